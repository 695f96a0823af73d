// Package report builds the budget summary document and writes it out as PDF
// or XLSX.
package report

import (
	"fmt"
	"strings"

	"budget/internal/core"
)

// Page geometry, in millimetres.
const (
	MarginLeft  = 10.0
	TopY        = 10.0
	ImageWidth  = 100.0
	ImageHeight = 100.0

	TitleFontSize = 14.0
	BodyFontSize  = 12.0
)

const (
	SummaryTitle = "Résumé du budget"
	GridSheet    = "Grille"
)

// Line is one piece of text at an explicit position.
type Line struct {
	Text     string
	X, Y     float64
	FontSize float64
}

// Image is a PNG placed at an explicit position and size.
type Image struct {
	PNG  []byte
	X, Y float64
	W, H float64
}

// Table is the grid as structured values, for formats that carry cells.
type Table struct {
	Header []string
	Rows   [][]any
}

// Document is a format-neutral summary: positioned lines, at most one image
// and the grid table.
type Document struct {
	Title string
	Lines []Line
	Image *Image
	Table Table
}

// BuildSummary lays out the summary of s. A nil or empty png leaves the
// document without an image.
func BuildSummary(s core.Snapshot, t core.Totals, cat *core.Catalog, png []byte) Document {
	doc := Document{Title: SummaryTitle}
	y := TopY

	add := func(text string, size, advance float64) {
		doc.Lines = append(doc.Lines, Line{
			Text:     core.SanitizeForDisplay(text),
			X:        MarginLeft,
			Y:        y,
			FontSize: size,
		})
		y += advance
	}

	add(SummaryTitle, TitleFontSize, 10)
	add("Revenu mensuel : "+s.Income.Display(), BodyFontSize, 8)
	add("Objectif de budget : "+s.TargetBudget.Display(), BodyFontSize, 10)
	add("Détails par ligne :", BodyFontSize, 8)
	for r, row := range s.Rows {
		add(rowLine(r, row, t.Rows[r]), BodyFontSize, 8)
	}
	y += 5
	add("Total général : "+t.Grand.Display(), BodyFontSize, 8)
	add("Solde restant : "+t.Balance.Display(), BodyFontSize, 10)

	if len(png) > 0 {
		doc.Image = &Image{PNG: png, X: MarginLeft, Y: y, W: ImageWidth, H: ImageHeight}
	}
	doc.Table = buildTable(s, t, cat)
	return doc
}

func rowLine(r int, row core.Row, total core.Money) string {
	parts := make([]string, 0, len(row)+1)
	for _, e := range row {
		parts = append(parts, fmt.Sprintf("%s - %s", e.Label, e.Amount.Display()))
	}
	parts = append(parts, "Total : "+total.Display())
	return fmt.Sprintf("Ligne %d : %s", r+1, strings.Join(parts, " | "))
}

func buildTable(s core.Snapshot, t core.Totals, cat *core.Catalog) Table {
	header := []string{"Ligne"}
	for _, title := range cat.Titles() {
		header = append(header, title, "Montant "+title)
	}
	header = append(header, "Total")

	rows := make([][]any, 0, len(s.Rows)+1)
	for r, row := range s.Rows {
		cells := []any{r + 1}
		for _, e := range row {
			cells = append(cells, core.SanitizeForDisplay(e.Label), e.Amount.Euros())
		}
		rows = append(rows, append(cells, t.Rows[r].Euros()))
	}

	footer := []any{"Total"}
	for _, m := range t.Categories {
		footer = append(footer, "", m.Euros())
	}
	rows = append(rows, append(footer, t.Grand.Euros()))

	return Table{Header: header, Rows: rows}
}
