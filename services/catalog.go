package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CatalogHeader is the header row written to the catalog file. Rows are read
// by position, so files with other header labels load the same way.
var CatalogHeader = []string{"process", "item_name", "unit", "base_price"}

// ErrInvalidEntry is wrapped by every catalog validation failure.
var ErrInvalidEntry = errors.New("invalid catalog entry")

// ErrCatalogUnreadable is returned by appends when the existing file cannot
// be read or parsed. The file is left untouched.
var ErrCatalogUnreadable = errors.New("existing catalog file cannot be read")

// CatalogEntry is one priced material or task.
type CatalogEntry struct {
	Process   string  `json:"process"`
	ItemName  string  `json:"item_name"`
	Unit      string  `json:"unit"`
	BasePrice float64 `json:"base_price"`
}

// Normalize trims surrounding whitespace from the text fields.
func (e CatalogEntry) Normalize() CatalogEntry {
	e.Process = strings.TrimSpace(e.Process)
	e.ItemName = strings.TrimSpace(e.ItemName)
	e.Unit = strings.TrimSpace(e.Unit)
	return e
}

// Validate checks that all text fields are present and the price is positive.
// It returns an *EntryError on failure.
func (e CatalogEntry) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Process, validation.Required.Error("Process is required")),
		validation.Field(&e.ItemName, validation.Required.Error("Item name is required")),
		validation.Field(&e.Unit, validation.Required.Error("Unit is required")),
		validation.Field(&e.BasePrice,
			validation.Required.Error("Price must be greater than zero"),
			validation.Min(0.0).Exclusive().Error("Price must be greater than zero"),
		),
	)
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	return &EntryError{Fields: fields}
}

// EntryError carries per-field messages for a rejected catalog entry.
// Keys are the json field names of CatalogEntry.
type EntryError struct {
	Fields map[string]string
}

func (e *EntryError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return ErrInvalidEntry.Error() + ": " + strings.Join(parts, "; ")
}

func (e *EntryError) Unwrap() error { return ErrInvalidEntry }

// Catalog is an ordered snapshot of catalog entries.
type Catalog struct {
	Entries []CatalogEntry
}

func (c Catalog) Len() int {
	return len(c.Entries)
}

// Processes returns the distinct process names in first-seen order.
func (c Catalog) Processes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range c.Entries {
		if !seen[e.Process] {
			seen[e.Process] = true
			out = append(out, e.Process)
		}
	}
	return out
}

// ItemsFor returns the entries of one process in catalog order.
func (c Catalog) ItemsFor(process string) []CatalogEntry {
	var out []CatalogEntry
	for _, e := range c.Entries {
		if e.Process == process {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns the first entry matching process and item name.
func (c Catalog) Lookup(process, itemName string) (CatalogEntry, bool) {
	for _, e := range c.Entries {
		if e.Process == process && e.ItemName == itemName {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// CatalogStore reads and appends catalog entries in a CSV file.
//
// Loads are cached until the next successful append or an explicit
// Invalidate. Appends rewrite the whole file from a fresh read, so writers in
// other processes between that read and the write are lost.
type CatalogStore struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	cached *Catalog
}

// NewCatalogStore returns a store for the CSV file at path. A nil logger
// falls back to slog.Default().
func NewCatalogStore(path string, logger *slog.Logger) *CatalogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogStore{path: path, logger: logger}
}

func (s *CatalogStore) Path() string {
	return s.path
}

// Load returns the catalog. A missing, unreadable or malformed file yields an
// empty catalog.
func (s *CatalogStore) Load() Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		entries, err := readCatalogFile(s.path)
		if err != nil {
			s.logger.Debug("catalog: using empty catalog", "path", s.path, "error", err)
			entries = nil
		}
		s.cached = &Catalog{Entries: entries}
	}
	return Catalog{Entries: append([]CatalogEntry(nil), s.cached.Entries...)}
}

// Invalidate drops the cached catalog so the next Load reads the file.
func (s *CatalogStore) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Append validates entry and adds it to the end of the file. The stored
// (trimmed) entry is returned.
func (s *CatalogStore) Append(entry CatalogEntry) (CatalogEntry, error) {
	entry = entry.Normalize()
	if err := entry.Validate(); err != nil {
		return CatalogEntry{}, err
	}
	if err := s.AppendAll([]CatalogEntry{entry}); err != nil {
		return CatalogEntry{}, err
	}
	return entry, nil
}

// AppendAll validates every entry and adds them in a single rewrite of the
// file. Nothing is written if any entry is invalid or if the existing file
// does not parse.
func (s *CatalogStore) AppendAll(entries []CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	normalized := make([]CatalogEntry, len(entries))
	for i, e := range entries {
		normalized[i] = e.Normalize()
		if err := normalized[i].Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}
	}
	entries = normalized

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := readCatalogFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("catalog: starting new catalog file", "path", s.path)
		current = nil
	case err != nil:
		s.logger.Error("catalog: refusing to rewrite unreadable file", "path", s.path, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnreadable, s.path, err)
	}
	current = append(current, entries...)

	if err := writeCatalogFile(s.path, current); err != nil {
		return fmt.Errorf("append catalog: %w", err)
	}
	s.cached = nil

	s.logger.Info("catalog: entries appended", "path", s.path, "added", len(entries), "total", len(current))
	return nil
}

func readCatalogFile(path string) ([]CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCatalogCSV(f)
}

// parseCatalogCSV reads a header row followed by process, item, unit, price rows.
func parseCatalogCSV(r io.Reader) ([]CatalogEntry, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = len(CatalogHeader)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("catalog has no header row")
	}

	entries := make([]CatalogEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		price, err := parsePrice(row[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, CatalogEntry{
			Process:   row[0],
			ItemName:  row[1],
			Unit:      row[2],
			BasePrice: price,
		})
	}
	return entries, nil
}

func parsePrice(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %q", s)
	}
	return price, nil
}

func writeCatalogFile(path string, entries []CatalogEntry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create catalog file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(CatalogHeader); err != nil {
		f.Close()
		return fmt.Errorf("write catalog header: %w", err)
	}
	for _, e := range entries {
		record := []string{e.Process, e.ItemName, e.Unit, strconv.FormatFloat(e.BasePrice, 'f', -1, 64)}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("write catalog row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush catalog: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close catalog file: %w", err)
	}
	return os.Rename(tmp, path)
}
