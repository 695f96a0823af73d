// Package controller turns widget events into snapshot changes. Handlers are
// pure: they take the current snapshot and an event and return the next
// snapshot plus a list of effects. The Controller runs the effects.
package controller

import "errors"

var (
	ErrUnhandledEvent    = errors.New("unhandled event")
	ErrResetNotConfirmed = errors.New("reset not confirmed")
)

// ConfirmValue must accompany a reset event.
const ConfirmValue = "confirm"

// FieldKind identifies the widget an event comes from.
type FieldKind string

const (
	FieldIncome       FieldKind = "income"
	FieldTargetBudget FieldKind = "targetBudget"
	FieldAmount       FieldKind = "amount"
	FieldLabel        FieldKind = "label"
	FieldReset        FieldKind = "reset"
)

// EventKind is what happened to the widget.
type EventKind string

const (
	EventFocus  EventKind = "focus"
	EventBlur   EventKind = "blur"
	EventInput  EventKind = "input"
	EventChange EventKind = "change"
	EventReset  EventKind = "reset"
)

// FieldKinds and EventKinds list every known kind.
var (
	FieldKinds = []FieldKind{FieldIncome, FieldTargetBudget, FieldAmount, FieldLabel, FieldReset}
	EventKinds = []EventKind{EventFocus, EventBlur, EventInput, EventChange, EventReset}
)

// Event is one widget event. Row and Col are used by amount and label
// fields only.
type Event struct {
	Field FieldKind
	Kind  EventKind
	Row   int
	Col   int
	Value string
}

// Level tells the page how to present a notice.
type Level string

const (
	// LevelAlert blocks until acknowledged.
	LevelAlert   Level = "alert"
	LevelWarning Level = "warning"
)

// Effect is an action requested by a handler.
type Effect interface {
	effect()
}

type (
	// Persist writes one key.
	Persist struct {
		Key   string
		Value string
	}
	// ClearStorage removes every key.
	ClearStorage struct{}
	// Recompute refreshes totals and the chart.
	Recompute struct{}
	// Display replaces the widget's text.
	Display struct {
		Value string
	}
	// Notify shows a message to the user.
	Notify struct {
		Level   Level
		Message string
	}
)

func (Persist) effect()      {}
func (ClearStorage) effect() {}
func (Recompute) effect()    {}
func (Display) effect()      {}
func (Notify) effect()       {}
