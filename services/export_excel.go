package services

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// QuoteFilename is the default download name of the exported quote.
const QuoteFilename = "quote.xlsx"

// QuoteSheetName is the name of the single sheet in the exported workbook.
const QuoteSheetName = "Quote"

// QuoteColumns are the header labels of the exported sheet, in column order.
var QuoteColumns = []string{"Process", "Item", "Unit", "Quantity", "Unit Price", "Amount", "Note"}

var quoteColumnWidths = []float64{16, 28, 8, 10, 14, 16, 30}

// GenerateQuoteExcel writes one header row and one row per line item, in
// list order. Summary figures are not part of the sheet.
func GenerateQuoteExcel(lines []LineItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := QuoteSheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	for i, w := range quoteColumnWidths {
		col := colName(i)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	dataStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create data style: %w", err)
	}

	// "#,##0"
	moneyStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
		NumFmt: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	lastCol := colName(len(QuoteColumns) - 1)

	header := make([]interface{}, len(QuoteColumns))
	for i, h := range QuoteColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	for i, l := range lines {
		rowStr := strconv.Itoa(i + 2)
		values := []interface{}{l.Process, l.ItemName, l.Unit, l.Quantity, l.UnitPrice, l.Amount, l.Note}
		if err := f.SetSheetRow(sheet, "A"+rowStr, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
		f.SetCellStyle(sheet, "A"+rowStr, lastCol+rowStr, dataStyle)
		f.SetCellStyle(sheet, "E"+rowStr, "F"+rowStr, moneyStyle)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseQuoteExcel reads line items back from a workbook written by
// GenerateQuoteExcel.
func ParseQuoteExcel(r io.Reader) ([]LineItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("quote sheet has no header row")
	}

	lines := make([]LineItem, 0, len(rows)-1)
	for i, row := range rows[1:] {
		cells := make([]string, len(QuoteColumns))
		copy(cells, row)

		qty, err := strconv.ParseFloat(cells[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid quantity %q", i+2, cells[3])
		}
		unitPrice, err := parseWholeWon(cells[4])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid unit price %q", i+2, cells[4])
		}
		amount, err := parseWholeWon(cells[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q", i+2, cells[5])
		}

		lines = append(lines, LineItem{
			Process:   cells[0],
			ItemName:  cells[1],
			Unit:      cells[2],
			Quantity:  qty,
			UnitPrice: unitPrice,
			Amount:    amount,
			Note:      cells[6],
		})
	}
	return lines, nil
}

// parseWholeWon accepts "11000" as well as "11000.0" style raw values.
func parseWholeWon(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return RoundWon(v), nil
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}

// colName converts a 0-based column index to an Excel column letter (A, B, ..., Z, AA, ...).
func colName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return name
}
