package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "materials.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleCatalog = "process,item_name,unit,base_price\n" +
	"Flooring,Tile,sqm,10000\n" +
	"Flooring,Laminate,sqm,25000\n" +
	"Paint,Emulsion,can,30000\n"

func TestCatalogStore_Load(t *testing.T) {
	store := NewCatalogStore(writeCatalog(t, sampleCatalog), nil)

	cat := store.Load()

	require.Equal(t, 3, cat.Len())
	assert.Equal(t, CatalogEntry{Process: "Flooring", ItemName: "Tile", Unit: "sqm", BasePrice: 10000}, cat.Entries[0])
	assert.Equal(t, []string{"Flooring", "Paint"}, cat.Processes())
}

func TestCatalogStore_LoadIsIdempotent(t *testing.T) {
	store := NewCatalogStore(writeCatalog(t, sampleCatalog), nil)

	first := store.Load()
	second := store.Load()
	assert.Equal(t, first, second)

	store.Invalidate()
	assert.Equal(t, first, store.Load())
}

func TestCatalogStore_LoadReturnsCopy(t *testing.T) {
	store := NewCatalogStore(writeCatalog(t, sampleCatalog), nil)

	cat := store.Load()
	cat.Entries[0].BasePrice = 1

	assert.Equal(t, 10000.0, store.Load().Entries[0].BasePrice)
}

func TestCatalogStore_LoadFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{"missing file", nil},
		{"empty file", strPtr("")},
		{"wrong column count", strPtr("process,item_name,unit,base_price\nFlooring,Tile,10000\n")},
		{"unparsable price", strPtr("process,item_name,unit,base_price\nFlooring,Tile,sqm,cheap\n")},
		{"negative price", strPtr("process,item_name,unit,base_price\nFlooring,Tile,sqm,-5\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "materials.csv")
			if tt.content != nil {
				path = writeCatalog(t, *tt.content)
			}
			cat := NewCatalogStore(path, nil).Load()
			assert.Equal(t, 0, cat.Len())
			assert.Empty(t, cat.Processes())
		})
	}
}

func TestCatalogStore_LoadHeaderOnly(t *testing.T) {
	cat := NewCatalogStore(writeCatalog(t, "process,item_name,unit,base_price\n"), nil).Load()
	assert.Equal(t, 0, cat.Len())
}

func TestCatalogStore_LoadKoreanHeaderWithBOM(t *testing.T) {
	content := "\ufeff공정,항목명,단위,단가(원)\n도배,실크벽지,㎡,12000\n타일,포세린,㎡,\"35,000\"\n"
	cat := NewCatalogStore(writeCatalog(t, content), nil).Load()

	require.Equal(t, 2, cat.Len())
	assert.Equal(t, "도배", cat.Entries[0].Process)
	assert.Equal(t, 35000.0, cat.Entries[1].BasePrice)
}

func TestCatalogStore_AppendVisibleOnNextLoad(t *testing.T) {
	store := NewCatalogStore(writeCatalog(t, sampleCatalog), nil)
	require.Equal(t, 3, store.Load().Len()) // warm the cache

	stored, err := store.Append(CatalogEntry{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 15000})
	require.NoError(t, err)
	assert.Equal(t, "Primer", stored.ItemName)

	cat := store.Load()
	require.Equal(t, 4, cat.Len())
	entry, ok := cat.Lookup("Paint", "Primer")
	require.True(t, ok)
	assert.Equal(t, 15000.0, entry.BasePrice)
	assert.Len(t, cat.ItemsFor("Paint"), 2)
}

func TestCatalogStore_AppendCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "materials.csv")
	store := NewCatalogStore(path, nil)
	require.Equal(t, 0, store.Load().Len())

	_, err := store.Append(CatalogEntry{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 15000})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "process,item_name,unit,base_price\nPaint,Primer,can,15000\n", string(raw))
	assert.Equal(t, 1, store.Load().Len())
}

func TestCatalogStore_AppendKeepsUnparsableFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"blank price", "process,item_name,unit,base_price\nFlooring,Tile,sqm,10000\nFlooring,Laminate,sqm,25000\nWallpaper,Silk,roll,\n"},
		{"negative price", "process,item_name,unit,base_price\nFlooring,Tile,sqm,10000\nFlooring,Laminate,sqm,-1\n"},
		{"short row", "process,item_name,unit,base_price\nFlooring,Tile,sqm,10000\nFlooring,Laminate,25000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t, tt.content)
			store := NewCatalogStore(path, nil)

			_, err := store.Append(CatalogEntry{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 15000})
			require.ErrorIs(t, err, ErrCatalogUnreadable)

			err = store.AppendAll([]CatalogEntry{{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 15000}})
			require.ErrorIs(t, err, ErrCatalogUnreadable)

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(raw), "the existing file must not be rewritten")
			_, err = os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err), "no temp file should be left behind")
		})
	}
}

func TestCatalogStore_AppendRejectsInvalid(t *testing.T) {
	tests := []struct {
		name      string
		entry     CatalogEntry
		badFields []string
	}{
		{"zero price", CatalogEntry{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 0}, []string{"base_price"}},
		{"negative price", CatalogEntry{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: -10}, []string{"base_price"}},
		{"missing process", CatalogEntry{ItemName: "Primer", Unit: "can", BasePrice: 100}, []string{"process"}},
		{"whitespace item", CatalogEntry{Process: "Paint", ItemName: "   ", Unit: "can", BasePrice: 100}, []string{"item_name"}},
		{"everything missing", CatalogEntry{}, []string{"process", "item_name", "unit", "base_price"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t, sampleCatalog)
			store := NewCatalogStore(path, nil)

			_, err := store.Append(tt.entry)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidEntry)

			var entryErr *EntryError
			require.ErrorAs(t, err, &entryErr)
			for _, f := range tt.badFields {
				assert.Contains(t, entryErr.Fields, f)
			}
			assert.Len(t, entryErr.Fields, len(tt.badFields))

			raw, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			assert.Equal(t, sampleCatalog, string(raw))
		})
	}
}

func TestCatalogStore_AppendTrimsFields(t *testing.T) {
	store := NewCatalogStore(writeCatalog(t, sampleCatalog), nil)

	stored, err := store.Append(CatalogEntry{Process: " Paint ", ItemName: "Primer\t", Unit: " can", BasePrice: 15000})
	require.NoError(t, err)
	assert.Equal(t, CatalogEntry{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 15000}, stored)

	_, ok := store.Load().Lookup("Paint", "Primer")
	assert.True(t, ok)
}

func TestCatalogStore_AppendAllIsAllOrNothing(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	store := NewCatalogStore(path, nil)

	err := store.AppendAll([]CatalogEntry{
		{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 15000},
		{Process: "Paint", ItemName: "", Unit: "can", BasePrice: 15000},
	})
	require.ErrorIs(t, err, ErrInvalidEntry)
	assert.Equal(t, 3, store.Load().Len())

	err = store.AppendAll([]CatalogEntry{
		{Process: "Paint", ItemName: "Primer", Unit: "can", BasePrice: 15000},
		{Process: "Wallpaper", ItemName: "Silk", Unit: "roll", BasePrice: 42000.5},
	})
	require.NoError(t, err)
	cat := store.Load()
	require.Equal(t, 5, cat.Len())
	assert.Equal(t, 42000.5, cat.Entries[4].BasePrice)
}

func TestCatalogStore_DuplicatesAllowed(t *testing.T) {
	store := NewCatalogStore(writeCatalog(t, sampleCatalog), nil)

	_, err := store.Append(CatalogEntry{Process: "Flooring", ItemName: "Tile", Unit: "sqm", BasePrice: 12000})
	require.NoError(t, err)

	cat := store.Load()
	assert.Len(t, cat.ItemsFor("Flooring"), 3)
	// first row wins on lookup
	entry, ok := cat.Lookup("Flooring", "Tile")
	require.True(t, ok)
	assert.Equal(t, 10000.0, entry.BasePrice)
}

func TestCatalogStore_InvalidatePicksUpExternalEdits(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	store := NewCatalogStore(path, nil)
	require.Equal(t, 3, store.Load().Len())

	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog+"Paint,Primer,can,15000\n"), 0o644))
	assert.Equal(t, 3, store.Load().Len(), "cached snapshot until invalidated")

	store.Invalidate()
	assert.Equal(t, 4, store.Load().Len())
}

func TestCatalog_ItemsForUnknownProcess(t *testing.T) {
	cat := Catalog{Entries: []CatalogEntry{tileEntry}}
	assert.Empty(t, cat.ItemsFor("Roofing"))
	_, ok := cat.Lookup("Flooring", "Marble")
	assert.False(t, ok)
}

func TestEntryError_Message(t *testing.T) {
	err := &EntryError{Fields: map[string]string{"unit": "Unit is required", "process": "Process is required"}}
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "invalid catalog entry: "))
	assert.Less(t, strings.Index(msg, "process"), strings.Index(msg, "unit"))
}

func strPtr(s string) *string { return &s }
