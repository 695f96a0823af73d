package http

import (
	"html/template"

	"budget/internal/controller"
	"budget/internal/core"
)

// JSON shapes returned by the API.
type (
	entryJSON struct {
		Label  string `json:"label"`
		Amount string `json:"amount"`
	}

	rowJSON struct {
		Entries []entryJSON `json:"entries"`
		Total   string      `json:"total"`
	}

	stateJSON struct {
		Income         string    `json:"income"`
		TargetBudget   string    `json:"targetBudget"`
		Rows           []rowJSON `json:"rows"`
		CategoryTotals []string  `json:"categoryTotals"`
		GrandTotal     string    `json:"grandTotal"`
		Balance        string    `json:"balance"`
		Negative       bool      `json:"negative"`
		OverTarget     bool      `json:"overTarget"`
	}

	noticeJSON struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}

	outcomeJSON struct {
		Display *string      `json:"display,omitempty"`
		Notices []noticeJSON `json:"notices"`
		State   stateJSON    `json:"state"`
	}
)

func newStateJSON(s core.Snapshot, t core.Totals) stateJSON {
	v := stateJSON{
		Income:       s.Income.String(),
		TargetBudget: s.TargetBudget.String(),
		Rows:         make([]rowJSON, 0, core.NumRows),
		GrandTotal:   t.Grand.Localized(),
		Balance:      t.Balance.Localized(),
		Negative:     t.Negative,
		OverTarget:   t.OverTarget,
	}
	for r, row := range s.Rows {
		rj := rowJSON{Total: t.Rows[r].Localized()}
		for _, e := range row {
			rj.Entries = append(rj.Entries, entryJSON{Label: e.Label, Amount: e.Amount.String()})
		}
		v.Rows = append(v.Rows, rj)
	}
	for _, m := range t.Categories {
		v.CategoryTotals = append(v.CategoryTotals, m.Localized())
	}
	return v
}

func newOutcomeJSON(o controller.Outcome) outcomeJSON {
	v := outcomeJSON{
		Notices: make([]noticeJSON, 0, len(o.Notices)),
		State:   newStateJSON(o.Snapshot, o.Totals),
	}
	if o.HasDisplay {
		d := o.Display
		v.Display = &d
	}
	for _, n := range o.Notices {
		v.Notices = append(v.Notices, noticeJSON{Level: string(n.Level), Message: n.Message})
	}
	return v
}

// Page view model for index.html.
type (
	optionView struct {
		Value    string
		Selected bool
	}

	cellView struct {
		Row, Col int
		Amount   string
		Options  []optionView
	}

	rowView struct {
		Index int
		Cells []cellView
		Total string
	}

	pageView struct {
		Titles         [core.NumCategories]string
		Income         string
		TargetBudget   string
		Rows           []rowView
		CategoryTotals []string
		GrandTotal     string
		Balance        string
		Negative       bool
		OverTarget     bool
		MaxInputLength int
		ConfirmReset   string
		ConfirmValue   string
	}
)

func newPageView(cat *core.Catalog, s core.Snapshot, t core.Totals) pageView {
	v := pageView{
		Titles:         cat.Titles(),
		Income:         s.Income.String(),
		TargetBudget:   s.TargetBudget.String(),
		GrandTotal:     t.Grand.Localized(),
		Balance:        t.Balance.Localized(),
		Negative:       t.Negative,
		OverTarget:     t.OverTarget,
		MaxInputLength: core.MaxInputLength,
		ConfirmReset:   controller.MsgConfirmReset,
		ConfirmValue:   controller.ConfirmValue,
	}
	for r, row := range s.Rows {
		rv := rowView{Index: r, Total: t.Rows[r].Localized()}
		for c, e := range row {
			cell := cellView{Row: r, Col: c, Amount: e.Amount.String()}
			if !cat.HasOption(c, e.Label) {
				cell.Options = append(cell.Options, optionView{Value: e.Label, Selected: true})
			}
			for _, opt := range cat.Columns[c].Options {
				cell.Options = append(cell.Options, optionView{Value: opt, Selected: opt == e.Label})
			}
			rv.Cells = append(rv.Cells, cell)
		}
		v.Rows = append(v.Rows, rv)
	}
	for _, m := range t.Categories {
		v.CategoryTotals = append(v.CategoryTotals, m.Localized())
	}
	return v
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}
