package services

import "time"

// QuoteExportData holds everything needed to render a quote document.
type QuoteExportData struct {
	Title   string
	Date    string
	Lines   []LineItem
	Summary Summary
}

// NewQuoteExportData snapshots lines and computes their summary.
func NewQuoteExportData(title string, date time.Time, lines []LineItem) QuoteExportData {
	snapshot := make([]LineItem, len(lines))
	copy(snapshot, lines)
	return QuoteExportData{
		Title:   title,
		Date:    date.Format("2006-01-02"),
		Lines:   snapshot,
		Summary: CalcSummary(snapshot),
	}
}
