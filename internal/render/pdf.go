package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/guttosm/fiscalpulse/internal/report"
)

// ErrFontRequired is returned when PDF output is requested without a usable TTF font.
var ErrFontRequired = errors.New("pdf export needs a UTF-8 TTF font (REPORT_PDF_FONT)")

const fontFamily = "report"

var pdfWidths = []float64{24, 18, 18, 80, 22, 22}

// PDF renders rows as an A4 portrait table. Item names and group labels are
// Cyrillic, so a UTF-8 TTF font must be supplied.
func PDF(meta Meta, rows []report.Row, fontPath string) ([]byte, error) {
	if fontPath == "" {
		return nil, ErrFontRequired
	}
	if _, err := os.Stat(fontPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontRequired, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8Font(fontFamily, "", fontPath)
	pdf.SetFont(fontFamily, "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Fiscal report: "+meta.Archive)
	pdf.Ln(8)
	pdf.SetFont(fontFamily, "", 8)

	header := func() {
		pdf.SetFillColor(230, 230, 230)
		for i, c := range report.Columns {
			pdf.CellFormat(pdfWidths[i], 6, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	for _, r := range rows {
		if pdf.GetY() > 280 {
			pdf.AddPage()
			header()
		}
		fill := setFill(pdf, r)
		for i, v := range r.Fields() {
			align := "L"
			if i == 4 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], 5, v, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setFill(pdf *gofpdf.Fpdf, r report.Row) bool {
	switch {
	case r.IsReturn():
		pdf.SetFillColor(0xFF, 0x99, 0x99)
	case r.Tag == report.TagDaySummary:
		pdf.SetFillColor(0xFF, 0xFF, 0xCC)
	case r.Tag == report.TagPeriodSummary:
		pdf.SetFillColor(0xC6, 0xEF, 0xCE)
	default:
		return false
	}
	return true
}
