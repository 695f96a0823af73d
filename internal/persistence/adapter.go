// Package persistence maps the budget snapshot onto store keys. Every
// accepted edit is written through immediately, one key per field.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// Publisher receives a notice after each successful write. Failures are
// logged and never fail the write.
type Publisher interface {
	PublishSet(ctx context.Context, key, value string) error
	PublishClear(ctx context.Context) error
}

type Adapter struct {
	store  store.Store
	pub    Publisher
	logger *log.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPublisher attaches a change publisher.
func WithPublisher(p Publisher) Option {
	return func(a *Adapter) { a.pub = p }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) { a.logger = l.WithComponent(log.ComponentPersistence) }
}

func New(s store.Store, opts ...Option) *Adapter {
	a := &Adapter{
		store:  s,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentPersistence),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Store returns the underlying store.
func (a *Adapter) Store() store.Store { return a.store }

// Load reads one key. ok is false when the key has never been written.
func (a *Adapter) Load(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := a.store.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", key, err)
	}
	return v, ok, nil
}

// Save writes one key.
func (a *Adapter) Save(ctx context.Context, key, value string) error {
	if err := a.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	a.logger.DebugContext(ctx, "Saved field", log.NewFields().WithKey(key, value).WithOperation(log.OpSave).ToSlice()...)
	if a.pub != nil {
		if err := a.pub.PublishSet(ctx, key, value); err != nil {
			a.logger.WarnContext(ctx, "Change publish failed", log.FieldKey, key, log.FieldError, err)
		}
	}
	return nil
}

// ClearAll removes every persisted key.
func (a *Adapter) ClearAll(ctx context.Context) error {
	if err := a.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	a.logger.InfoContext(ctx, "Storage cleared", log.FieldOperation, log.OpClear)
	if a.pub != nil {
		if err := a.pub.PublishClear(ctx); err != nil {
			a.logger.WarnContext(ctx, "Change publish failed", log.FieldOperation, log.OpClear, log.FieldError, err)
		}
	}
	return nil
}

// lookupFunc reads one key during Restore.
type lookupFunc func(key string) (string, bool, error)

// lookup returns a reader for Restore. Stores that can list their pairs
// are read once; others are read key by key.
func (a *Adapter) lookup(ctx context.Context) (lookupFunc, error) {
	d, ok := a.store.(store.Dumper)
	if !ok {
		return func(key string) (string, bool, error) { return a.Load(ctx, key) }, nil
	}
	pairs, err := d.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load all: %w", err)
	}
	return func(key string) (string, bool, error) {
		v, ok := pairs[key]
		return v, ok, nil
	}, nil
}

// Restore rebuilds the snapshot from the store. Missing keys keep their
// default. Malformed values fall back to the default and are logged; they
// are not rewritten. Labels are checked against the character policy only,
// so free text saved earlier survives. When amount_{r}_{c} is absent the
// legacy expense_{i} key is used instead.
func (a *Adapter) Restore(ctx context.Context, cat *core.Catalog) (core.Snapshot, error) {
	s := core.NewSnapshot(cat)

	get, err := a.lookup(ctx)
	if err != nil {
		return s, err
	}
	if s.Income, err = a.restoreAmount(ctx, get, IncomeKey); err != nil {
		return core.NewSnapshot(cat), err
	}
	if s.TargetBudget, err = a.restoreAmount(ctx, get, TargetBudgetKey); err != nil {
		return core.NewSnapshot(cat), err
	}

	for r := 0; r < core.NumRows; r++ {
		for c := 0; c < core.NumCategories; c++ {
			entry := &s.Rows[r][c]

			label, ok, err := get(SelectionKey(r, c))
			if err != nil {
				return core.NewSnapshot(cat), err
			}
			if ok {
				if core.IsValidCategoryLabel(label) {
					entry.Label = core.SanitizeForDisplay(label)
				} else {
					a.logger.WarnContext(ctx, "Ignoring stored label",
						log.NewFields().WithKey(SelectionKey(r, c), label).WithCell(r, c).ToSlice()...)
				}
			}

			amount, err := a.restoreAmount(ctx, get, AmountKey(r, c), ExpenseKey(r, c))
			if err != nil {
				return core.NewSnapshot(cat), err
			}
			entry.Amount = amount
		}
	}
	return s, nil
}

// restoreAmount parses the first of keys present in the store. Missing or
// malformed values yield zero; oversized values are clamped.
func (a *Adapter) restoreAmount(ctx context.Context, get lookupFunc, keys ...string) (core.Money, error) {
	for _, key := range keys {
		raw, ok, err := get(key)
		if err != nil {
			return core.Money{}, err
		}
		if !ok {
			continue
		}
		m, perr := core.ParseAmount(raw)
		switch {
		case perr == nil:
		case errors.Is(perr, core.ErrAmountClamped):
			a.logger.WarnContext(ctx, "Clamped stored amount", log.NewFields().WithKey(key, raw).ToSlice()...)
		default:
			a.logger.WarnContext(ctx, "Ignoring stored amount", log.NewFields().WithKey(key, raw).WithError(perr).ToSlice()...)
		}
		return m, nil
	}
	return core.Money{}, nil
}
