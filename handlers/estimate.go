package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"interiorquote/services"
	"interiorquote/templates"
)

// HandleEstimatePage renders the estimate form, the current line items and
// the catalog append form.
// Route: GET /
func HandleEstimatePage(app *pocketbase.PocketBase, catalog *services.CatalogStore, sessions *services.SessionStore, title string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s := lookupSession(e, sessions)
		cat := catalog.Load()

		processes := cat.Processes()
		selected := e.Request.URL.Query().Get("process")
		if selected == "" && len(processes) > 0 {
			selected = processes[0]
		}

		data := templates.EstimatePageData{
			Title:           title,
			Processes:       processes,
			SelectedProcess: selected,
			Items:           cat.ItemsFor(selected),
			MarginPresets:   services.MarginPresets,
			DefaultMargin:   services.DefaultMarginPercent,
			DefaultQuantity: services.DefaultQuantity,
			Lines:           linesData(s, ""),
			CatalogForm:     templates.CatalogFormData{UnitOptions: services.UnitOptions},
		}

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.EstimateContent(data).Render(e.Request.Context(), e.Response)
		}
		return templates.EstimatePage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleItemOptions returns the item <option>s of one process.
// Route: GET /estimate/items/options?process=
func HandleItemOptions(app *pocketbase.PocketBase, catalog *services.CatalogStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		process := e.Request.URL.Query().Get("process")
		items := catalog.Load().ItemsFor(process)
		return templates.ItemOptions(items).Render(e.Request.Context(), e.Response)
	}
}

// HandleAddLineItem prices the selected catalog item and appends it to the
// caller's estimate.
// Route: POST /estimate/items
func HandleAddLineItem(app *pocketbase.PocketBase, catalog *services.CatalogStore, sessions *services.SessionStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		process := e.Request.FormValue("process")
		itemName := e.Request.FormValue("item")
		note := strings.TrimSpace(e.Request.FormValue("note"))

		margin, err := parseFormNumber(e.Request.FormValue("margin"), services.DefaultMarginPercent)
		if err != nil {
			return WarningToast(e, "Margin must be a number")
		}
		quantity, err := parseFormNumber(e.Request.FormValue("quantity"), services.DefaultQuantity)
		if err != nil {
			return WarningToast(e, "Quantity must be a number")
		}
		if margin < 0 {
			return WarningToast(e, "Margin must not be negative")
		}
		if quantity < 0 {
			return WarningToast(e, "Quantity must not be negative")
		}

		entry, ok := catalog.Load().Lookup(process, itemName)
		if !ok {
			return WarningToast(e, "Select an item from the catalog")
		}

		s := requireSession(e, sessions)
		var added services.LineItem
		err = s.Update(func(l *services.EstimateList) error {
			var aerr error
			added, aerr = l.Add(entry, quantity, margin, note)
			return aerr
		})
		if errors.Is(err, services.ErrAmountTooLarge) {
			app.Logger().Warn("estimate: amount out of range", "session", s.ID, "error", err)
			return WarningToast(e, fmt.Sprintf("The amount is too large. Line amounts and the subtotal are limited to %s",
				services.FormatWon(services.MaxAmount)))
		}
		if err != nil {
			app.Logger().Error("estimate: add failed", "session", s.ID, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		app.Logger().Debug("estimate: line added",
			"session", s.ID, "process", added.Process, "item", added.ItemName,
			"quantity", added.Quantity, "unit_price", added.UnitPrice, "amount", added.Amount)

		var notice string
		if services.HighMargin(margin) {
			notice = fmt.Sprintf("Margin of %s is above %s. The item was added as entered.",
				services.FormatPercent(margin), services.FormatPercent(services.HighMarginPercent))
		}

		SetToast(e, "success", fmt.Sprintf("Added %s", added.ItemName))
		return templates.LinesSection(linesData(s, notice)).Render(e.Request.Context(), e.Response)
	}
}

// HandleRemoveLineItem removes the line item at a 0-based position.
// Route: DELETE /estimate/items/{index}
func HandleRemoveLineItem(app *pocketbase.PocketBase, sessions *services.SessionStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		index, err := strconv.Atoi(e.Request.PathValue("index"))
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid line item position")
		}

		s := lookupSession(e, sessions)
		if s == nil {
			return ErrorToast(e, http.StatusConflict, "That line item no longer exists")
		}
		var removed services.LineItem
		err = s.Update(func(l *services.EstimateList) error {
			var rerr error
			removed, rerr = l.RemoveAt(index)
			return rerr
		})
		if errors.Is(err, services.ErrIndexOutOfRange) {
			app.Logger().Warn("estimate: remove out of range", "session", s.ID, "error", err)
			return ErrorToast(e, http.StatusConflict, "That line item no longer exists")
		}
		if err != nil {
			app.Logger().Error("estimate: remove failed", "session", s.ID, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", fmt.Sprintf("Removed %s", removed.ItemName))
		return templates.LinesSection(linesData(s, "")).Render(e.Request.Context(), e.Response)
	}
}

// HandleResetEstimate discards the caller's session and starts an empty one.
// Route: POST /estimate/reset
func HandleResetEstimate(app *pocketbase.PocketBase, sessions *services.SessionStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		oldID := ""
		if old := lookupSession(e, sessions); old != nil {
			oldID = old.ID
			sessions.Destroy(old.ID)
		}
		s := startSession(e, sessions)

		app.Logger().Debug("estimate: session reset", "old", oldID, "new", s.ID)

		SetToast(e, "success", "Started a new estimate")
		return templates.LinesSection(linesData(s, "")).Render(e.Request.Context(), e.Response)
	}
}

// linesData reads the lines and totals of s. A nil session is an empty
// estimate.
func linesData(s *services.Session, notice string) templates.LinesData {
	if s == nil {
		return templates.LinesData{Notice: notice}
	}
	return templates.LinesData{
		Lines:   s.Items(),
		Summary: s.Summary(),
		Notice:  notice,
	}
}

// parseFormNumber parses a numeric form value. Blank input yields def.
func parseFormNumber(raw string, def float64) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return def, nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", raw)
	}
	return v, nil
}
