package services

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// QuotePDFFilename is the default download name of the printable quote.
const QuotePDFFilename = "quote.pdf"

// GenerateQuotePDF renders a printable quote with the VAT summary using maroto/v2.
func GenerateQuotePDF(data QuoteExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m)
	for i, l := range data.Lines {
		addTableRow(m, i+1, l)
	}
	addSummary(m, data.Summary)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, data QuoteExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Items: %d", len(data.Lines)), props.Text{
					Size:  9,
					Align: align.Left,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.Date), props.Text{
					Size:  9,
					Align: align.Right,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
		),
	)

	m.AddRows(row.New(4))
}

func addTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerCell := props.Cell{BackgroundColor: headerBg}

	labels := []struct {
		size  int
		label string
	}{
		{1, "#"},
		{2, "Process"},
		{2, "Item"},
		{1, "Unit"},
		{1, "Qty"},
		{2, "Unit Price"},
		{2, "Amount"},
		{1, "Note"},
	}

	r := row.New(8)
	for _, l := range labels {
		r.Add(col.New(l.size).Add(text.New(l.label, headerText)).WithStyle(&headerCell))
	}
	m.AddRows(r)
}

func addTableRow(m core.Maroto, index int, l LineItem) {
	base := props.Text{Size: 7, Align: align.Center}
	left := base
	left.Align = align.Left
	right := base
	right.Align = align.Right

	var cellStyle *props.Cell
	if index%2 == 0 {
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	}

	cols := []core.Col{
		col.New(1).Add(text.New(strconv.Itoa(index), base)),
		col.New(2).Add(text.New(l.Process, left)),
		col.New(2).Add(text.New(l.ItemName, left)),
		col.New(1).Add(text.New(l.Unit, base)),
		col.New(1).Add(text.New(FormatQty(l.Quantity), right)),
		col.New(2).Add(text.New(FormatAmount(l.UnitPrice), right)),
		col.New(2).Add(text.New(FormatAmount(l.Amount), right)),
		col.New(1).Add(text.New(l.Note, left)),
	}
	if cellStyle != nil {
		for i := range cols {
			cols[i] = cols[i].WithStyle(cellStyle)
		}
	}

	m.AddRows(row.New(7).Add(cols...))
}

func addSummary(m core.Maroto, s Summary) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	labelStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	valueStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	lines := []struct {
		label string
		value int64
	}{
		{"Subtotal", s.Subtotal},
		{fmt.Sprintf("VAT (%s)", FormatPercent(TaxPercent)), s.Tax},
		{"Total", s.Total},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(l.label, labelStyle)).WithStyle(summaryCell),
				col.New(4).Add(text.New(FormatAmount(l.value)+" KRW", valueStyle)).WithStyle(summaryCell),
			),
		)
	}
}
