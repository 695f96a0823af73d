package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format names an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Exporter writes a Document in one format.
type Exporter interface {
	Export(ctx context.Context, doc Document, w io.Writer) error
	ContentType() string
	Extension() string
}

// ParseFormat accepts "pdf" or "xlsx", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ExporterFor returns the exporter for f.
func ExporterFor(f Format) (Exporter, error) {
	switch f {
	case FormatPDF:
		return PDFExporter{}, nil
	case FormatXLSX:
		return XLSXExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Filename is the attachment name for an exported budget.
func Filename(e Exporter) string {
	return "budget." + e.Extension()
}
