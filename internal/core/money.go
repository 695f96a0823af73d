// Package core holds the budget grid, its validation rules and the totals
// derived from it.
//
// This file contains money parsing and formatting. Amounts are kept in
// integer cents; text is parsed with shopspring/decimal so that arbitrarily
// long digit strings are compared against the bounds before any integer
// conversion happens.
package core

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MaxAmount is the largest amount any field accepts (1 000 000.00 €).
var MaxAmount = Money{Cents: 100_000_000}

var (
	maxAmountDecimal = decimal.New(MaxAmount.Cents, -2)
	frenchPrinter    = message.NewPrinter(language.French)
)

// Money is an amount in euro cents.
type Money struct {
	Cents int64
}

// ParseAmount converts user text into Money.
//
// The text must satisfy IsValidAmount, otherwise ErrInvalidAmount is
// returned. Values above MaxAmount come back as MaxAmount together with
// ErrAmountClamped, so callers can store the clamped value and still tell the
// user about it.
//
//	ParseAmount("120.5")   -> 12050, nil
//	ParseAmount("1000001") -> 100000000, ErrAmountClamped
//	ParseAmount("-5")      -> 0, ErrInvalidAmount
func ParseAmount(text string) (Money, error) {
	if !IsValidAmount(text) {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.GreaterThan(maxAmountDecimal) {
		return MaxAmount, ErrAmountClamped
	}
	if d.IsNegative() {
		// Unreachable through IsValidAmount, kept for the [0, max] contract.
		return Money{}, ErrAmountClamped
	}
	return Money{Cents: d.Shift(2).IntPart()}, nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// String formats the amount with two decimals and a dot separator ("120.50").
// This is also the canonical text written to the store.
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// Euros returns the euro value as a float64 for chart rendering.
// Use cents for calculations.
func (m Money) Euros() float64 {
	return decimal.New(m.Cents, -2).InexactFloat64()
}

// Display formats the amount the way the summary document prints it ("120.50 €").
func (m Money) Display() string {
	return m.String() + " €"
}

// Localized formats the amount with French grouping and decimal comma for the page.
func (m Money) Localized() string {
	return frenchPrinter.Sprintf("%v €", number.Decimal(m.Euros(), number.Scale(2)))
}
