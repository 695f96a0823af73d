package core

import (
	"errors"
	"testing"
)

func TestNewSnapshotDefaults(t *testing.T) {
	cat := DefaultCatalog()
	s := NewSnapshot(cat)
	if !s.Income.IsZero() || !s.TargetBudget.IsZero() {
		t.Fatalf("expected zero scalars, got income=%v target=%v", s.Income, s.TargetBudget)
	}
	for r := 0; r < NumRows; r++ {
		for c := 0; c < NumCategories; c++ {
			e := s.Rows[r][c]
			if e.Label != cat.DefaultLabel(c) || !e.Amount.IsZero() {
				t.Fatalf("cell %d,%d = %+v", r, c, e)
			}
		}
	}
}

func TestSetEntryAmount(t *testing.T) {
	cat := DefaultCatalog()
	cases := []struct {
		name  string
		raw   string
		cents int64
		err   error
	}{
		{"plain", "120.5", 12050, nil},
		{"upper bound", "1000000", 100_000_000, nil},
		{"above bound clamps", "1000001", 100_000_000, ErrAmountClamped},
		{"negative rejected", "-5", 0, ErrInvalidAmount},
		{"garbage rejected", "abc", 0, ErrInvalidAmount},
		{"empty rejected", "", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSnapshot(cat)
			s.Rows[2][Leisure].Amount = Money{Cents: 999}

			got, err := s.SetEntryAmount(2, Leisure, tc.raw)
			if !errors.Is(err, tc.err) || (tc.err == nil && err != nil) {
				t.Fatalf("expected err %v, got %v", tc.err, err)
			}
			if got.Cents != tc.cents || s.Rows[2][Leisure].Amount.Cents != tc.cents {
				t.Fatalf("expected %d cents stored, got returned=%d stored=%d",
					tc.cents, got.Cents, s.Rows[2][Leisure].Amount.Cents)
			}
		})
	}
}

func TestSetEntryAmountOutOfGrid(t *testing.T) {
	s := NewSnapshot(DefaultCatalog())
	for _, cell := range [][2]int{{-1, 0}, {NumRows, 0}, {0, -1}, {0, NumCategories}} {
		if _, err := s.SetEntryAmount(cell[0], cell[1], "1"); !errors.Is(err, ErrOutOfGrid) {
			t.Fatalf("cell %v: expected ErrOutOfGrid, got %v", cell, err)
		}
	}
	if ComputeGrandTotal(s) != (Money{}) {
		t.Fatalf("out-of-grid writes must not change the snapshot")
	}
}

func TestSetEntryCategory(t *testing.T) {
	cat := DefaultCatalog()
	s := NewSnapshot(cat)

	label, err := s.SetEntryCategory(cat, 0, Housing, "EDF")
	if err != nil || label != "EDF" || s.Rows[0][Housing].Label != "EDF" {
		t.Fatalf("expected EDF, got %q err=%v", label, err)
	}

	// Free text passes as long as the character policy holds.
	label, err = s.SetEntryCategory(cat, 0, Transport, "Vélo électrique")
	if err != nil || label != "Vélo électrique" {
		t.Fatalf("expected free text kept, got %q err=%v", label, err)
	}

	label, err = s.SetEntryCategory(cat, 0, Savings, "<img src=x>")
	if !errors.Is(err, ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
	if label != "Livret A" || s.Rows[0][Savings].Label != "Livret A" {
		t.Fatalf("expected reset to first option, got %q", s.Rows[0][Savings].Label)
	}
}

func TestSetIncomeAndTarget(t *testing.T) {
	s := NewSnapshot(DefaultCatalog())
	if _, err := s.SetIncome("2000"); err != nil || s.Income.Cents != 200000 {
		t.Fatalf("income: %v %v", s.Income, err)
	}
	if _, err := s.SetTargetBudget("1500.75"); err != nil || s.TargetBudget.Cents != 150075 {
		t.Fatalf("target: %v %v", s.TargetBudget, err)
	}
	if _, err := s.SetIncome("2 000"); !errors.Is(err, ErrInvalidAmount) || !s.Income.IsZero() {
		t.Fatalf("expected invalid income reset to zero, got %v %v", s.Income, err)
	}
}
