package collections_test

import (
	"testing"

	"interiorquote/collections"
	"interiorquote/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

// expectedCollections is the full list of collections that Setup() must create.
var expectedCollections = []string{
	collections.QuotesCollection,
}

func TestSetup_AllCollectionsExist(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q not found after Setup(): %v", name, err)
			continue
		}
		if col.Name != name {
			t.Errorf("expected collection name %q, got %q", name, col.Name)
		}
	}
}

func TestSetup_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t) // Setup() already called once via NewTestApp

	ids := make(map[string]string)
	for _, name := range expectedCollections {
		col, _ := app.FindCollectionByNameOrId(name)
		ids[name] = col.Id
	}

	collections.Setup(app)

	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q missing after second Setup(): %v", name, err)
			continue
		}
		if col.Id != ids[name] {
			t.Errorf("collection %q id changed after second Setup(): %s -> %s", name, ids[name], col.Id)
		}
	}
}

func TestSetup_QuotesFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId(collections.QuotesCollection)

	fields := []string{"title", "session", "line_count", "subtotal", "tax", "total", "lines", "created", "updated"}
	for _, f := range fields {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("quotes: missing field %q", f)
		}
	}

	if _, ok := col.Fields.GetByName("lines").(*core.JSONField); !ok {
		t.Error("quotes.lines should be a JSON field")
	}
	total, ok := col.Fields.GetByName("total").(*core.NumberField)
	if !ok {
		t.Fatal("quotes.total should be a number field")
	}
	if total.Required {
		t.Error("quotes.total must not be required, an empty quote totals zero")
	}
}

func TestSetup_QuoteAcceptsZeroTotals(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId(collections.QuotesCollection)

	record := core.NewRecord(col)
	record.Set("title", "Empty")
	record.Set("line_count", 0)
	record.Set("subtotal", 0)
	record.Set("tax", 0)
	record.Set("total", 0)
	record.Set("lines", []any{})
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save empty quote: %v", err)
	}
}

func TestSetup_QuoteRequiresTitle(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId(collections.QuotesCollection)

	record := core.NewRecord(col)
	record.Set("total", 100)
	if err := app.Save(record); err == nil {
		t.Error("expected save without title to fail")
	}
}
