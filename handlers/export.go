package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"interiorquote/config"
	"interiorquote/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

func writeAttachment(e *core.RequestEvent, contentType, filename string, body []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, err := e.Response.Write(body)
	return err
}

// HandleEstimateExportExcel downloads the caller's estimate as a one-sheet
// workbook and records the export in the quote archive.
// Route: GET /estimate/export/excel
func HandleEstimateExportExcel(app *pocketbase.PocketBase, sessions *services.SessionStore, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sessionID, lines := sessionLines(lookupSession(e, sessions))

		xlsxBytes, err := services.GenerateQuoteExcel(lines)
		if err != nil {
			app.Logger().Error("export_excel: failed to generate", "session", sessionID, "error", err)
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		if cfg.ArchiveExports {
			if _, err := archiveQuote(app, cfg.QuoteTitle, sessionID, lines); err != nil {
				// the download still succeeds
				app.Logger().Error("export_excel: failed to archive quote", "session", sessionID, "error", err)
			}
		}

		return writeAttachment(e, xlsxContentType, services.QuoteFilename, xlsxBytes)
	}
}

// HandleEstimateExportPDF downloads the caller's estimate as a printable PDF
// with the VAT summary.
// Route: GET /estimate/export/pdf
func HandleEstimateExportPDF(app *pocketbase.PocketBase, sessions *services.SessionStore, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sessionID, lines := sessionLines(lookupSession(e, sessions))

		data := services.NewQuoteExportData(cfg.QuoteTitle, time.Now(), lines)
		pdfBytes, err := services.GenerateQuotePDF(data)
		if err != nil {
			app.Logger().Error("export_pdf: failed to generate", "session", sessionID, "error", err)
			return e.String(http.StatusInternalServerError, "Failed to generate PDF file")
		}

		return writeAttachment(e, "application/pdf", services.QuotePDFFilename, pdfBytes)
	}
}

// sessionLines returns the ID and line items of s. Callers without a session
// export an empty estimate.
func sessionLines(s *services.Session) (string, []services.LineItem) {
	if s == nil {
		return "", nil
	}
	return s.ID, s.Items()
}
