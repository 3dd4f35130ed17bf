// Package render turns report rows into XLSX, PDF and JSON documents.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guttosm/fiscalpulse/internal/domain/dto"
	"github.com/guttosm/fiscalpulse/internal/report"
)

// ErrOutputWrite marks a failure to write a rendered document to its
// destination. The in-memory document is still valid and may be written elsewhere.
var ErrOutputWrite = errors.New("output write failed")

// Format is an output document type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(s), ".")) {
	case FormatXLSX, "":
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// Ext returns the file extension, dot included.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Meta describes the run a document was built from.
type Meta struct {
	RunID              string
	Archive            string
	Status             string
	Files              int
	Transactions       int
	MalformedFragments int
}

// Options carries format specific settings.
type Options struct {
	FontPath string // UTF-8 TTF font, required for PDF
}

// Render produces the document bytes for format.
func Render(format Format, meta Meta, rows []report.Row, opts Options) ([]byte, error) {
	switch format {
	case FormatPDF:
		return PDF(meta, rows, opts.FontPath)
	case FormatJSON:
		return JSON(meta, rows)
	default:
		return XLSX(rows)
	}
}

// Response converts rows to their API representation.
func Response(meta Meta, rows []report.Row) dto.ReportResponse {
	out := dto.ReportResponse{
		RunID:              meta.RunID,
		Archive:            meta.Archive,
		Status:             meta.Status,
		Files:              meta.Files,
		Transactions:       meta.Transactions,
		MalformedFragments: meta.MalformedFragments,
		Rows:               make([]dto.ReportRow, 0, len(rows)),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, dto.ReportRow{
			Date: r.Date, Time: r.Time, Check: r.Check, Label: r.Label,
			Amount: r.Amount, Kind: r.Kind, Tag: r.Tag.String(),
		})
	}
	return out
}

// JSON renders the report as an indented dto.ReportResponse.
func JSON(meta Meta, rows []report.Row) ([]byte, error) {
	return json.MarshalIndent(Response(meta, rows), "", "  ")
}

// WriteFile writes data to path. Any failure wraps ErrOutputWrite.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputWrite, path, err)
	}
	return nil
}

// WriteWithFallback writes data to path and, when that fails, once more to a
// timestamped sibling of path. It returns the path actually written.
func WriteWithFallback(path string, data []byte, now time.Time) (string, error) {
	err := WriteFile(path, data)
	if err == nil {
		return path, nil
	}
	alt := SiblingName(path, now)
	if err2 := WriteFile(alt, data); err2 != nil {
		return "", errors.Join(err, err2)
	}
	return alt, nil
}

// SiblingName returns path with a timestamp inserted before the extension.
func SiblingName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + now.Format("20060102_150405") + ext
}
