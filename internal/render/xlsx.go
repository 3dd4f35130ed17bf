package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/guttosm/fiscalpulse/internal/report"
)

const sheetName = "Report"

// Row fills per tag.
const (
	fillReturn = "FF9999"
	fillDay    = "FFFFCC"
	fillPeriod = "C6EFCE"
)

var columnWidths = []float64{12, 10, 10, 42, 14, 12}

// XLSX renders rows into a single-sheet workbook. Amounts stay text so the
// fixed two-decimal form survives.
func XLSX(rows []report.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	header := make([]any, len(report.Columns))
	for i, c := range report.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}
	if err := styleRow(f, 1, styles.header); err != nil {
		return nil, err
	}

	for i, r := range rows {
		line := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, line)
		fields := r.Fields()
		values := make([]any, len(fields))
		for j, v := range fields {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if id, ok := styles.forRow(r); ok {
			if err := styleRow(f, line, id); err != nil {
				return nil, err
			}
		}
	}

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type styleSet struct {
	header, ret, day, period int
}

func (s styleSet) forRow(r report.Row) (int, bool) {
	switch {
	case r.IsReturn():
		return s.ret, true
	case r.Tag == report.TagDaySummary:
		return s.day, true
	case r.Tag == report.TagPeriodSummary:
		return s.period, true
	default:
		return 0, false
	}
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	fills := []struct {
		dst   *int
		color string
	}{{&s.ret, fillReturn}, {&s.day, fillDay}, {&s.period, fillPeriod}}
	for _, fl := range fills {
		*fl.dst, err = f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fl.color}},
		})
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

func styleRow(f *excelize.File, line, style int) error {
	first, _ := excelize.CoordinatesToCellName(1, line)
	last, _ := excelize.CoordinatesToCellName(len(report.Columns), line)
	return f.SetCellStyle(sheetName, first, last, style)
}
