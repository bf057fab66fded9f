package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFile is returned for uploads that are neither .csv nor .xlsx.
var ErrUnsupportedFile = errors.New("unsupported file format: must be .csv or .xlsx")

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult is returned after parsing and validating an uploaded catalog file.
type ImportResult struct {
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	ErrorRows int               `json:"error_rows"`
	Errors    []ValidationError `json:"errors"`
	Entries   []CatalogEntry    `json:"-"`
	FileName  string            `json:"-"`
}

// importFieldLabels maps CatalogEntry json names to the labels shown in errors.
var importFieldLabels = map[string]string{
	"process":    "Process",
	"item_name":  "Item",
	"unit":       "Unit",
	"base_price": "Price",
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// ValidateCatalogFile parses an uploaded catalog file and checks every row
// against the same rules as CatalogStore.Append. Columns are taken by
// position: process, item, unit, price. Blank rows are skipped.
func ValidateCatalogFile(file io.Reader, fileName string) (*ImportResult, error) {
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		_, dataRows, err = parseCSV(stripBOM(file))
	case strings.HasSuffix(lowerName, ".xlsx"):
		_, dataRows, err = parseExcel(file)
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{FileName: fileName}
	errorRows := make(map[int]bool)

	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		cells := make([]string, len(CatalogHeader))
		copy(cells, row)
		if isBlankRow(cells) {
			continue
		}
		result.TotalRows++

		entry := CatalogEntry{Process: cells[0], ItemName: cells[1], Unit: cells[2]}.Normalize()

		var rowErrors []ValidationError
		price, perr := parsePrice(cells[3])
		if perr != nil {
			rowErrors = append(rowErrors, ValidationError{
				Row:     rowNum,
				Field:   importFieldLabels["base_price"],
				Message: "Price must be a number",
			})
		}
		entry.BasePrice = price

		if verr := entry.Validate(); verr != nil {
			var entryErr *EntryError
			if errors.As(verr, &entryErr) {
				rowErrors = append(rowErrors, entryValidationErrors(rowNum, entryErr, perr != nil)...)
			} else {
				rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: "Row", Message: verr.Error()})
			}
		}

		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			errorRows[rowNum] = true
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	result.ErrorRows = len(errorRows)
	result.ValidRows = len(result.Entries)
	return result, nil
}

// entryValidationErrors converts an EntryError into row errors in column
// order. A price that already failed to parse is not reported twice.
func entryValidationErrors(rowNum int, err *EntryError, skipPrice bool) []ValidationError {
	keys := make([]string, 0, len(err.Fields))
	for k := range err.Fields {
		if k == "base_price" && skipPrice {
			continue
		}
		keys = append(keys, k)
	}
	order := map[string]int{"process": 0, "item_name": 1, "unit": 2, "base_price": 3}
	sort.Slice(keys, func(i, j int) bool { return order[keys[i]] < order[keys[j]] })

	out := make([]ValidationError, 0, len(keys))
	for _, k := range keys {
		label := importFieldLabels[k]
		if label == "" {
			label = k
		}
		out = append(out, ValidationError{Row: rowNum, Field: label, Message: err.Fields[k]})
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// stripBOM drops a leading UTF-8 byte order mark, which spreadsheet tools
// add when saving CSV.
func stripBOM(r io.Reader) io.Reader {
	data, err := io.ReadAll(r)
	if err != nil {
		return r
	}
	return bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff")))
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errs []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := []interface{}{"Row #", "Field", "Error"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	for col, width := range map[string]float64{"A": 8, "B": 16, "C": 45} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	for i, e := range errs {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{e.Row, e.Field, e.Message}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write error row %d: %w", e.Row, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
