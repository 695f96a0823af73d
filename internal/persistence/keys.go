package persistence

import (
	"fmt"

	"budget/internal/core"
)

// Scalar keys.
const (
	IncomeKey       = "income"
	TargetBudgetKey = "targetBudget"
)

// ColumnNames are the column segments used in entry keys, in grid order.
// They are fixed so that stored data does not depend on the option catalog.
var ColumnNames = [core.NumCategories]string{"housing", "transport", "leisure", "savings"}

// SelectionKey is the key of the label at (row, col): "selection_0_housing".
func SelectionKey(row, col int) string {
	return fmt.Sprintf("selection_%d_%s", row, ColumnNames[col])
}

// AmountKey is the key of the amount at (row, col): "amount_0_housing".
func AmountKey(row, col int) string {
	return fmt.Sprintf("amount_%d_%s", row, ColumnNames[col])
}

// ExpenseKey is the flat mirror of the amount at (row, col), indexed
// row*4+col: "expense_5" for row 1, transport.
func ExpenseKey(row, col int) string {
	return fmt.Sprintf("expense_%d", row*core.NumCategories+col)
}

// AllKeys lists every key a full snapshot occupies.
func AllKeys() []string {
	keys := []string{IncomeKey, TargetBudgetKey}
	for r := 0; r < core.NumRows; r++ {
		for c := 0; c < core.NumCategories; c++ {
			keys = append(keys, SelectionKey(r, c), AmountKey(r, c), ExpenseKey(r, c))
		}
	}
	return keys
}
