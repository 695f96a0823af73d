package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"budget/internal/core"
)

var (
	ColorBorder = lipgloss.Color("#575653")
	ColorAccent = lipgloss.Color("#36A2EB")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorRed    = lipgloss.Color("#D14D41")
	ColorOrange = lipgloss.Color("#DA702C")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorBorder)
	dangerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table. The first column is left aligned,
// the others right aligned. A row holding only "---" draws a separator.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	measure := func(row []string) {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right) + "\n")
	}
	line := func(row []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// SummaryTable lays the grid out as a table: one line per row with label
// and amount per category, then the category totals.
func SummaryTable(cat *core.Catalog, s core.Snapshot, t core.Totals) Table {
	titles := cat.Titles()
	headers := append([]string{"Ligne"}, titles[:]...)
	headers = append(headers, "Total")

	rows := make([][]string, 0, core.NumRows+2)
	for r, row := range s.Rows {
		cells := []string{fmt.Sprintf("%d", r+1)}
		for _, e := range row {
			cells = append(cells, core.SanitizeForDisplay(e.Label)+"  "+e.Amount.String())
		}
		rows = append(rows, append(cells, t.Rows[r].String()))
	}
	rows = append(rows, []string{"---"})
	totals := []string{"Total"}
	for _, m := range t.Categories {
		totals = append(totals, m.String())
	}
	rows = append(rows, append(totals, t.Grand.String()))

	return Table{Title: "Détails par ligne", Headers: headers, Rows: rows}
}

// RenderSummary renders the whole budget for the terminal.
func RenderSummary(cat *core.Catalog, s core.Snapshot, t core.Totals) string {
	var b strings.Builder
	b.WriteString(RenderTitle("Résumé du budget") + "\n\n")
	fmt.Fprintf(&b, "  Revenu mensuel : %s\n", s.Income.Display())
	fmt.Fprintf(&b, "  Objectif de budget : %s\n\n", s.TargetBudget.Display())
	b.WriteString(RenderTable(SummaryTable(cat, s, t)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Total général : %s\n", t.Grand.Display())

	balance := t.Balance.Display()
	if t.Negative {
		balance = dangerStyle.Render(balance)
	}
	fmt.Fprintf(&b, "  Solde restant : %s\n", balance)
	if t.OverTarget {
		b.WriteString("  " + warnStyle.Render("Objectif de budget dépassé") + "\n")
	}
	return b.String()
}
