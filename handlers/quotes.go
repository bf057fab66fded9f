package handlers

import (
	"fmt"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"interiorquote/collections"
	"interiorquote/services"
	"interiorquote/templates"
)

const quoteListLimit = 100

// archiveQuote stores a snapshot of the exported lines and their totals.
func archiveQuote(app *pocketbase.PocketBase, title, sessionID string, lines []services.LineItem) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(collections.QuotesCollection)
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}

	summary := services.CalcSummary(lines)
	record := core.NewRecord(col)
	record.Set("title", title)
	record.Set("session", sessionID)
	record.Set("line_count", len(lines))
	record.Set("subtotal", summary.Subtotal)
	record.Set("tax", summary.Tax)
	record.Set("total", summary.Total)
	if lines == nil {
		lines = []services.LineItem{}
	}
	record.Set("lines", lines)

	if err := app.Save(record); err != nil {
		return nil, fmt.Errorf("save quote: %w", err)
	}
	return record, nil
}

// HandleQuoteList lists archived quotes, newest first. With ?scope=mine only
// the caller's session is listed.
// Route: GET /quotes
func HandleQuoteList(app *pocketbase.PocketBase, sessions *services.SessionStore, title string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		query := app.RecordQuery(collections.QuotesCollection).
			OrderBy("created DESC").
			Limit(quoteListLimit)
		mine := e.Request.URL.Query().Get("scope") == "mine"
		s := lookupSession(e, sessions)
		if mine && s != nil {
			query = query.AndWhere(dbx.HashExp{"session": s.ID})
		}

		var records []*core.Record
		// a caller without a session has no quotes of its own
		if !mine || s != nil {
			if err := query.All(&records); err != nil {
				app.Logger().Error("quote_list: query failed", "error", err)
				return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
		}

		items := make([]templates.QuoteListItem, 0, len(records))
		for _, rec := range records {
			created := ""
			if dt := rec.GetDateTime("created"); !dt.IsZero() {
				created = dt.Time().Local().Format("2006-01-02 15:04")
			}
			items = append(items, templates.QuoteListItem{
				ID:        rec.Id,
				Title:     rec.GetString("title"),
				Created:   created,
				LineCount: rec.GetInt("line_count"),
				Subtotal:  int64(rec.GetInt("subtotal")),
				Tax:       int64(rec.GetInt("tax")),
				Total:     int64(rec.GetInt("total")),
			})
		}

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.QuoteList(items).Render(e.Request.Context(), e.Response)
		}
		return templates.QuoteListPage(title, items).Render(e.Request.Context(), e.Response)
	}
}

// HandleQuoteExportExcel re-downloads an archived quote from its snapshot.
// Route: GET /quotes/{id}/export/excel
func HandleQuoteExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		if quoteID == "" {
			return e.String(http.StatusBadRequest, "Missing quote ID")
		}

		record, err := app.FindRecordById(collections.QuotesCollection, quoteID)
		if err != nil {
			return e.String(http.StatusNotFound, "Quote not found")
		}

		var lines []services.LineItem
		if err := record.UnmarshalJSONField("lines", &lines); err != nil {
			app.Logger().Error("quote_export: bad line snapshot", "quote", quoteID, "error", err)
			return e.String(http.StatusInternalServerError, "Quote data is unreadable")
		}

		xlsxBytes, err := services.GenerateQuoteExcel(lines)
		if err != nil {
			app.Logger().Error("quote_export: failed to generate", "quote", quoteID, "error", err)
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		filename := fmt.Sprintf("%s_%s.xlsx", sanitizeFilename(record.GetString("title")), record.Id)
		return writeAttachment(e, xlsxContentType, filename, xlsxBytes)
	}
}
