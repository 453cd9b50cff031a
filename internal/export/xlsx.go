// Package export writes a page's derived tables as an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/presentation"
)

const (
	ContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	filtersSheet   = "Filters"
	maxSheetName   = 31
	headerFill     = "#067fd6"
	numFmtInteger  = 3 // #,##0
	numFmtDecimal2 = 4 // #,##0.00
)

// Filename is the attachment name for a page export.
func Filename(page models.PageID, sel models.FilterSelection) string {
	return fmt.Sprintf("%s_%s_%s_%s.xlsx", page, sel.State, sel.Year, sel.Category)
}

// Write builds a workbook with a filters sheet followed by one sheet per
// table and streams it to w.
func Write(w io.Writer, page models.PageID, sel models.FilterSelection, tables []models.DerivedTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", filtersSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := writeFilters(f, styles, page, sel); err != nil {
		return err
	}

	for _, t := range tables {
		if err := writeTable(f, styles, t); err != nil {
			return fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type styles struct {
	header  int
	integer int
	decimal int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}

	if s.integer, err = f.NewStyle(&excelize.Style{NumFmt: numFmtInteger}); err != nil {
		return s, fmt.Errorf("integer style: %w", err)
	}
	if s.decimal, err = f.NewStyle(&excelize.Style{NumFmt: numFmtDecimal2}); err != nil {
		return s, fmt.Errorf("decimal style: %w", err)
	}
	return s, nil
}

func writeFilters(f *excelize.File, s styles, page models.PageID, sel models.FilterSelection) error {
	rows := [][]any{
		{"Filter", "Value"},
		{"Page", string(page)},
		{"State", sel.State},
		{"Year", sel.Year},
		{"Category", sel.Category},
	}
	for i, row := range rows {
		if err := setRow(f, filtersSheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(filtersSheet, "A1", "B1", s.header); err != nil {
		return err
	}
	return f.SetColWidth(filtersSheet, "A", "B", 18)
}

func writeTable(f *excelize.File, s styles, t models.DerivedTable) error {
	sheet := sheetName(t.Name)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := append(keyHeaders(t), "Value", "Display")
	if err := setRow(f, sheet, 1, toAny(headers)); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, s.header); err != nil {
		return err
	}

	valueCol := len(headers) - 1
	for i, r := range t.Rows {
		row := make([]any, 0, len(headers))
		for _, k := range r.Key {
			row = append(row, k)
		}
		row = append(row, r.Value.InexactFloat64(), presentation.FormatRow(t, r))

		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}

		cell, err := excelize.CoordinatesToCellName(valueCol, i+2)
		if err != nil {
			return err
		}
		style := s.decimal
		if kind := t.RowKind(r); kind == models.KindCount || kind == models.KindQuantity {
			style = s.integer
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", lastCol, 20)
}

func keyHeaders(t models.DerivedTable) []string {
	switch t.Chart {
	case models.ChartSunburst:
		return []string{"Category", "Sub-Category"}
	case models.ChartCard:
		return []string{"Metric"}
	}

	if len(t.Rows) > 0 && len(t.Rows[0].Key) == 2 {
		return []string{"Month", "Year"}
	}

	switch {
	case t.Chart == models.ChartHBar && t.YLabel != "":
		return []string{t.YLabel}
	case t.XLabel != "":
		return []string{t.XLabel}
	default:
		return []string{"Label"}
	}
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
