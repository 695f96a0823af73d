package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	chartImageName = "chart"
	pageWidth      = 210.0
	minFontSize    = 6.0
)

// PDFExporter writes an A4 portrait PDF using the core Arial font with
// cp1252 translation, which covers accented letters and the euro sign.
type PDFExporter struct{}

func (PDFExporter) ContentType() string { return "application/pdf" }
func (PDFExporter) Extension() string   { return "pdf" }

func (PDFExporter) Export(ctx context.Context, doc Document, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1252")

	for i, l := range doc.Lines {
		style := ""
		if i == 0 {
			style = "B"
		}
		text := tr(l.Text)
		fitFontSize(pdf, style, text, l.FontSize, pageWidth-l.X-MarginLeft)
		pdf.Text(l.X, l.Y, text)
	}

	if img := doc.Image; img != nil {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(chartImageName, opts, bytes.NewReader(img.PNG))
		pdf.ImageOptions(chartImageName, img.X, img.Y, img.W, img.H, false, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fitFontSize sets the largest font size, at most size and at least
// minFontSize, at which text fits in width. pdf.Text never wraps.
func fitFontSize(pdf *fpdf.Fpdf, style, text string, size, width float64) float64 {
	pdf.SetFont("Arial", style, size)
	for size > minFontSize && pdf.GetStringWidth(text) > width {
		size = max(size-0.5, minFontSize)
		pdf.SetFontSize(size)
	}
	return size
}
