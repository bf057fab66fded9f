// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"interiorquote/collections"
	"interiorquote/services"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// WriteTestCatalog writes a catalog CSV with the given body (header included)
// into a temporary directory and returns its path.
func WriteTestCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "materials.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test catalog: %v", err)
	}
	return path
}

// SampleCatalogCSV has two processes, the first with two items.
const SampleCatalogCSV = "process,item_name,unit,base_price\n" +
	"Flooring,Tile,sqm,10000\n" +
	"Flooring,Laminate,sqm,25000\n" +
	"Paint,Primer,can,15000\n"

// NewTestCatalogStore returns a catalog store over a temporary copy of
// SampleCatalogCSV.
func NewTestCatalogStore(t *testing.T, app *pocketbase.PocketBase) *services.CatalogStore {
	t.Helper()

	return services.NewCatalogStore(WriteTestCatalog(t, SampleCatalogCSV), app.Logger())
}

// CreateTestQuote archives a quote record for the given lines and returns it.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, title string, lines []services.LineItem) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.QuotesCollection)
	if err != nil {
		t.Fatalf("failed to find quotes collection: %v", err)
	}

	summary := services.CalcSummary(lines)
	record := core.NewRecord(col)
	record.Set("title", title)
	record.Set("session", "test-session")
	record.Set("line_count", len(lines))
	record.Set("subtotal", summary.Subtotal)
	record.Set("tax", summary.Tax)
	record.Set("total", summary.Total)
	record.Set("lines", lines)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
