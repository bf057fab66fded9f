package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// QuotesCollection records every exported estimate.
const QuotesCollection = "quotes"

// maxLinesJSON bounds the stored line snapshot of a single quote.
const maxLinesJSON = 2 << 20

// Setup programmatically creates/ensures the quotes collection exists.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, QuotesCollection, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "title", Required: true, Max: 200})
		c.Fields.Add(&core.TextField{Name: "session", Required: false})
		c.Fields.Add(&core.NumberField{Name: "line_count", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "subtotal", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "tax", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "total", OnlyInt: true})
		c.Fields.Add(&core.JSONField{Name: "lines", MaxSize: maxLinesJSON})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_quotes_session", false, "session", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
