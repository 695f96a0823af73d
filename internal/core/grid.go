package core

import (
	"errors"
	"fmt"
)

// Grid shape.
const (
	NumRows       = 6
	NumCategories = 4
)

// Column indexes, in grid order.
const (
	Housing = iota
	Transport
	Leisure
	Savings
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrAmountClamped = errors.New("amount clamped to allowed range")
	ErrInvalidLabel  = errors.New("invalid category label")
	ErrOutOfGrid     = errors.New("cell outside the budget grid")
)

type (
	// Entry is one cell: a sub-category label and an amount.
	Entry struct {
		Label  string
		Amount Money
	}

	// Row is one budget line, one entry per category column.
	Row [NumCategories]Entry

	// Snapshot is the whole document state. The fixed-size array keeps
	// exactly NumRows rows at all times.
	Snapshot struct {
		Income       Money
		TargetBudget Money
		Rows         [NumRows]Row
	}
)

// NewSnapshot returns the default state: zero income and target, every
// entry on its column's first option with a zero amount.
func NewSnapshot(cat *Catalog) Snapshot {
	var s Snapshot
	for r := range s.Rows {
		for c := range s.Rows[r] {
			s.Rows[r][c] = Entry{Label: cat.DefaultLabel(c)}
		}
	}
	return s
}

// CheckCell returns ErrOutOfGrid when (row, col) is not a grid cell.
func CheckCell(row, col int) error {
	if row < 0 || row >= NumRows || col < 0 || col >= NumCategories {
		return fmt.Errorf("%w: row=%d col=%d", ErrOutOfGrid, row, col)
	}
	return nil
}

// SetEntryAmount parses raw and stores it in the entry at (row, col).
//
// Invalid text sets the amount to 0 and returns ErrInvalidAmount. Text above
// MaxAmount stores MaxAmount and returns ErrAmountClamped. In both cases the
// returned Money is what was stored.
func (s *Snapshot) SetEntryAmount(row, col int, raw string) (Money, error) {
	if err := CheckCell(row, col); err != nil {
		return Money{}, err
	}
	return setAmount(&s.Rows[row][col].Amount, raw)
}

// SetEntryCategory stores a sanitized label at (row, col). A label failing
// IsValidCategoryLabel is replaced by the column's first option and
// ErrInvalidLabel is returned. Labels are not checked against the option
// list, so free text survives.
func (s *Snapshot) SetEntryCategory(cat *Catalog, row, col int, raw string) (string, error) {
	if err := CheckCell(row, col); err != nil {
		return "", err
	}
	entry := &s.Rows[row][col]
	if !IsValidCategoryLabel(raw) {
		entry.Label = cat.DefaultLabel(col)
		return entry.Label, ErrInvalidLabel
	}
	entry.Label = SanitizeForDisplay(raw)
	return entry.Label, nil
}

// SetIncome applies the amount contract to the monthly income.
func (s *Snapshot) SetIncome(raw string) (Money, error) {
	return setAmount(&s.Income, raw)
}

// SetTargetBudget applies the amount contract to the target budget.
func (s *Snapshot) SetTargetBudget(raw string) (Money, error) {
	return setAmount(&s.TargetBudget, raw)
}

// Entry returns the entry at (row, col).
func (s Snapshot) Entry(row, col int) (Entry, error) {
	if err := CheckCell(row, col); err != nil {
		return Entry{}, err
	}
	return s.Rows[row][col], nil
}

// setAmount stores whatever ParseAmount settled on: zero for rejected text,
// the bound for clamped text.
func setAmount(dst *Money, raw string) (Money, error) {
	m, err := ParseAmount(raw)
	*dst = m
	return m, err
}
