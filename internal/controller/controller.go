package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/report"
)

// Storage is what the controller needs from the persistence adapter.
type Storage interface {
	Restore(ctx context.Context, cat *core.Catalog) (core.Snapshot, error)
	Save(ctx context.Context, key, value string) error
	ClearAll(ctx context.Context) error
}

// Outcome is what the page needs after an event.
type Outcome struct {
	Snapshot core.Snapshot
	Totals   core.Totals
	// Display is set when HasDisplay is true.
	Display    string
	HasDisplay bool
	Notices    []Notify
}

// Controller owns the snapshot and serializes every event on it.
type Controller struct {
	mu       sync.Mutex
	snapshot core.Snapshot
	totals   core.Totals

	cat      *core.Catalog
	storage  Storage
	chart    *chart.Presenter
	logger   *log.Logger
	handlers map[route]Handler
}

// New restores the snapshot from storage, computes the totals and renders
// the chart once.
func New(ctx context.Context, cat *core.Catalog, storage Storage, presenter *chart.Presenter, logger *log.Logger) (*Controller, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if presenter == nil {
		presenter = chart.New()
	}
	c := &Controller{
		cat:      cat,
		storage:  storage,
		chart:    presenter,
		logger:   logger.WithComponent(log.ComponentController),
		handlers: dispatchTable(),
	}

	s, err := storage.Restore(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	c.snapshot = s
	c.totals = core.Compute(s)
	if err := c.chart.Render(chart.FromTotals(cat, c.totals)); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	c.logger.InfoContext(ctx, "Snapshot loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldBalance, c.totals.Balance.String(),
	)
	return c, nil
}

// Catalog returns the option catalog the controller was built with.
func (c *Controller) Catalog() *core.Catalog { return c.cat }

// State returns copies of the snapshot and its totals.
func (c *Controller) State() (core.Snapshot, core.Totals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.totals
}

// Handle dispatches one event. Storage effects run before the new snapshot
// is committed; if one fails the snapshot is left unchanged.
func (c *Controller) Handle(ctx context.Context, ev Event) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := c.logger.With(log.NewFields().WithEvent(string(ev.Field), string(ev.Kind)).ToSlice()...)

	h, ok := c.handlers[route{ev.Field, ev.Kind}]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s/%s", ErrUnhandledEvent, ev.Field, ev.Kind)
	}
	step, err := h(c.snapshot, c.cat, ev)
	if err != nil {
		logger.DebugContext(ctx, "Event rejected", log.FieldError, err)
		return Outcome{}, err
	}

	var (
		out       Outcome
		recompute bool
	)
	for _, e := range step.Effects {
		switch e := e.(type) {
		case Persist:
			if err := c.storage.Save(ctx, e.Key, e.Value); err != nil {
				logger.ErrorContext(ctx, "Persist failed", log.NewFields().WithKey(e.Key, e.Value).WithError(err).ToSlice()...)
				return Outcome{}, err
			}
		case ClearStorage:
			if err := c.storage.ClearAll(ctx); err != nil {
				logger.ErrorContext(ctx, "Clear failed", log.FieldError, err)
				return Outcome{}, err
			}
		case Recompute:
			recompute = true
		case Display:
			out.Display, out.HasDisplay = e.Value, true
		case Notify:
			logger.WarnContext(ctx, "Notice", log.FieldValue, e.Message)
			out.Notices = append(out.Notices, e)
		}
	}

	c.snapshot = step.Snapshot
	if recompute {
		wasNegative := c.totals.Negative
		c.totals = core.Compute(c.snapshot)
		if err := c.chart.Update(chart.FromTotals(c.cat, c.totals)); err != nil {
			logger.WarnContext(ctx, "Chart update failed", log.FieldError, err)
		}
		if c.totals.Negative && !wasNegative {
			out.Notices = append(out.Notices, Notify{Level: LevelWarning, Message: MsgNegativeBalance})
		}
	}

	out.Snapshot, out.Totals = c.snapshot, c.totals
	return out, nil
}

// Reset clears storage and restores the defaults.
func (c *Controller) Reset(ctx context.Context) (Outcome, error) {
	return c.Handle(ctx, Event{Field: FieldReset, Kind: EventReset, Value: ConfirmValue})
}

// ChartPNG returns the chart of the current totals. It is chart.ErrNoData
// while every category is zero.
func (c *Controller) ChartPNG() ([]byte, error) {
	return c.chart.Image()
}

// Export writes the summary document in the given format. The state is
// copied under the lock and rendered outside it.
func (c *Controller) Export(ctx context.Context, format report.Format, w io.Writer) error {
	exporter, err := report.ExporterFor(format)
	if err != nil {
		return err
	}
	s, t := c.State()

	png, err := c.chart.PNG(chart.FromTotals(c.cat, t))
	switch {
	case err == nil:
	case errors.Is(err, chart.ErrNoData):
		png = nil
	default:
		return fmt.Errorf("render chart: %w", err)
	}

	doc := report.BuildSummary(s, t, c.cat, png)
	if err := exporter.Export(ctx, doc, w); err != nil {
		c.logger.ErrorContext(ctx, "Export failed", log.FieldFormat, string(format), log.FieldError, err)
		return err
	}
	c.logger.InfoContext(ctx, "Exported summary", log.FieldOperation, log.OpExport, log.FieldFormat, string(format))
	return nil
}
