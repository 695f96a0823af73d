package core

// Totals are the values derived from a Snapshot. They are never stored.
type Totals struct {
	Rows       [NumRows]Money
	Categories [NumCategories]Money
	Grand      Money
	Balance    Money
	// Negative flags an over-budget balance for presentation.
	Negative bool
	// OverTarget is set when a target budget exists and spending exceeds it.
	OverTarget bool
}

// ComputeRowTotal sums the four amounts of a row.
func ComputeRowTotal(r Row) Money {
	var total Money
	for _, e := range r {
		total = total.Add(e.Amount)
	}
	return total
}

// ComputeCategoryTotals sums each column over all rows.
func ComputeCategoryTotals(s Snapshot) [NumCategories]Money {
	var totals [NumCategories]Money
	for _, r := range s.Rows {
		for c, e := range r {
			totals[c] = totals[c].Add(e.Amount)
		}
	}
	return totals
}

// ComputeGrandTotal sums every entry of the grid.
func ComputeGrandTotal(s Snapshot) Money {
	var total Money
	for _, r := range s.Rows {
		total = total.Add(ComputeRowTotal(r))
	}
	return total
}

// ComputeBalance is income minus the grand total.
func ComputeBalance(s Snapshot) Money {
	return s.Income.Sub(ComputeGrandTotal(s))
}

// Compute derives every total in one pass over the grid.
func Compute(s Snapshot) Totals {
	var t Totals
	for i, r := range s.Rows {
		t.Rows[i] = ComputeRowTotal(r)
		t.Grand = t.Grand.Add(t.Rows[i])
	}
	t.Categories = ComputeCategoryTotals(s)
	t.Balance = s.Income.Sub(t.Grand)
	t.Negative = t.Balance.IsNegative()
	t.OverTarget = !s.TargetBudget.IsZero() && t.Grand.Cents > s.TargetBudget.Cents
	return t
}
