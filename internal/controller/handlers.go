package controller

import (
	"errors"

	"budget/internal/core"
	"budget/internal/persistence"
)

// Step is a handler's result.
type Step struct {
	Snapshot core.Snapshot
	Effects  []Effect
}

// Handler computes the next step for an event. It must not touch storage.
type Handler func(s core.Snapshot, cat *core.Catalog, ev Event) (Step, error)

type route struct {
	field FieldKind
	kind  EventKind
}

// amountField binds an amount-like widget to its place in the snapshot.
type amountField struct {
	get  func(s core.Snapshot, ev Event) (core.Money, error)
	set  func(s *core.Snapshot, ev Event, raw string) (core.Money, error)
	keys func(ev Event) []string
}

var (
	incomeField = amountField{
		get: func(s core.Snapshot, _ Event) (core.Money, error) { return s.Income, nil },
		set: func(s *core.Snapshot, _ Event, raw string) (core.Money, error) {
			return s.SetIncome(raw)
		},
		keys: func(Event) []string { return []string{persistence.IncomeKey} },
	}
	targetField = amountField{
		get: func(s core.Snapshot, _ Event) (core.Money, error) { return s.TargetBudget, nil },
		set: func(s *core.Snapshot, _ Event, raw string) (core.Money, error) {
			return s.SetTargetBudget(raw)
		},
		keys: func(Event) []string { return []string{persistence.TargetBudgetKey} },
	}
	entryField = amountField{
		get: func(s core.Snapshot, ev Event) (core.Money, error) {
			e, err := s.Entry(ev.Row, ev.Col)
			return e.Amount, err
		},
		set: func(s *core.Snapshot, ev Event, raw string) (core.Money, error) {
			return s.SetEntryAmount(ev.Row, ev.Col, raw)
		},
		keys: func(ev Event) []string {
			return []string{persistence.AmountKey(ev.Row, ev.Col), persistence.ExpenseKey(ev.Row, ev.Col)}
		},
	}
)

func dispatchTable() map[route]Handler {
	t := map[route]Handler{
		{FieldLabel, EventChange}: labelChange,
		{FieldReset, EventReset}:  reset,
	}
	for field, f := range map[FieldKind]amountField{
		FieldIncome:       incomeField,
		FieldTargetBudget: targetField,
		FieldAmount:       entryField,
	} {
		t[route{field, EventFocus}] = f.focus
		t[route{field, EventInput}] = f.input
		t[route{field, EventBlur}] = f.blur
	}
	return t
}

// focus clears a zero amount so the user can type over it.
func (f amountField) focus(s core.Snapshot, _ *core.Catalog, ev Event) (Step, error) {
	m, err := f.get(s, ev)
	if err != nil {
		return Step{}, err
	}
	step := Step{Snapshot: s}
	if m.IsZero() {
		step.Effects = []Effect{Display{Value: ""}}
	}
	return step, nil
}

// input caps the widget text at core.MaxInputLength characters.
func (f amountField) input(s core.Snapshot, _ *core.Catalog, ev Event) (Step, error) {
	if _, err := f.get(s, ev); err != nil {
		return Step{}, err
	}
	step := Step{Snapshot: s}
	if cut := core.TruncateInput(ev.Value, core.MaxInputLength); cut != ev.Value {
		step.Effects = []Effect{Display{Value: cut}}
	}
	return step, nil
}

// blur commits the text: empty means zero, invalid text stores zero, too
// large stores the maximum.
func (f amountField) blur(s core.Snapshot, _ *core.Catalog, ev Event) (Step, error) {
	raw := ev.Value
	if raw == "" {
		raw = "0"
	}

	next := s
	m, err := f.set(&next, ev, raw)
	var effects []Effect
	switch {
	case err == nil:
	case errors.Is(err, core.ErrInvalidAmount):
		effects = append(effects, Notify{Level: LevelAlert, Message: MsgInvalidAmount})
	case errors.Is(err, core.ErrAmountClamped):
		effects = append(effects, Notify{Level: LevelAlert, Message: MsgAmountTooLarge})
	default:
		return Step{}, err
	}

	for _, key := range f.keys(ev) {
		effects = append(effects, Persist{Key: key, Value: m.String()})
	}
	effects = append(effects, Recompute{}, Display{Value: m.String()})
	return Step{Snapshot: next, Effects: effects}, nil
}

// labelChange stores a label as soon as it is picked. A label with
// forbidden characters is replaced by the column default.
func labelChange(s core.Snapshot, cat *core.Catalog, ev Event) (Step, error) {
	next := s
	label, err := next.SetEntryCategory(cat, ev.Row, ev.Col, ev.Value)
	var effects []Effect
	switch {
	case err == nil:
	case errors.Is(err, core.ErrInvalidLabel):
		effects = append(effects, Notify{Level: LevelAlert, Message: MsgInvalidLabel})
	default:
		return Step{}, err
	}

	effects = append(effects,
		Persist{Key: persistence.SelectionKey(ev.Row, ev.Col), Value: label},
		Recompute{},
		Display{Value: label},
	)
	return Step{Snapshot: next, Effects: effects}, nil
}

// reset returns the default snapshot once confirmed.
func reset(_ core.Snapshot, cat *core.Catalog, ev Event) (Step, error) {
	if ev.Value != ConfirmValue {
		return Step{}, ErrResetNotConfirmed
	}
	return Step{
		Snapshot: core.NewSnapshot(cat),
		Effects:  []Effect{ClearStorage{}, Recompute{}},
	}, nil
}
