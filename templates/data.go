// Package templates holds the HTML components served by the handlers.
// Components live in .templ files; run `templ generate` after editing them.
package templates

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"interiorquote/services"
)

// EstimatePageData is everything the estimate page renders.
type EstimatePageData struct {
	Title           string
	Processes       []string
	SelectedProcess string
	Items           []services.CatalogEntry
	MarginPresets   []float64
	DefaultMargin   float64
	DefaultQuantity float64
	Lines           LinesData
	CatalogForm     CatalogFormData
}

// LinesData drives the line item table and the summary under it.
type LinesData struct {
	Lines   []services.LineItem
	Summary services.Summary
	// Notice is an informational message shown above the table.
	Notice string
}

// CatalogFormData holds the raw form values and per-field errors keyed by
// the CatalogEntry json names.
type CatalogFormData struct {
	Process     string
	ItemName    string
	Unit        string
	BasePrice   string
	Errors      map[string]string
	UnitOptions []string
}

// CatalogPageData is the catalog listing with the import form.
type CatalogPageData struct {
	Title   string
	Path    string
	Catalog services.Catalog
	Form    CatalogFormData
}

// QuoteListItem is one archived export.
type QuoteListItem struct {
	ID        string
	Title     string
	Created   string
	LineCount int
	Subtotal  int64
	Tax       int64
	Total     int64
}

func formatInput(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func itemLabel(it services.CatalogEntry) string {
	return fmt.Sprintf("%s (%s, %s)", it.ItemName, it.Unit, services.FormatWon(services.RoundWon(it.BasePrice)))
}

func removeLineURL(i int) string {
	return fmt.Sprintf("/estimate/items/%d", i)
}

func quoteExportURL(id string) templ.SafeURL {
	return templ.URL("/quotes/" + id + "/export/excel")
}

// errorsJSON is posted back to download the error report.
func errorsJSON(errs []services.ValidationError) (string, error) {
	b, err := json.Marshal(errs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
