// Package worker records the budget change feed into the audit table.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/store/sqlstore"
)

// ChangeRecorder stores audit rows. *sqlstore.Store implements it.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, c sqlstore.Change) error
}

// Stats counts handled messages since start.
type Stats struct {
	Recorded int64
	Failed   int64
	Clears   int64
}

// AuditWorker turns field change messages into audit rows.
type AuditWorker struct {
	recorder ChangeRecorder
	logger   *log.Logger
	now      func() time.Time

	recorded atomic.Int64
	failed   atomic.Int64
	clears   atomic.Int64
}

func NewAuditWorker(recorder ChangeRecorder, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuditWorker{
		recorder: recorder,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
	}
}

// HandleChange records one message. It has the amqp.Handler signature; an
// error makes the consumer requeue the message, and the message ID keeps
// the retry from writing a duplicate row.
func (w *AuditWorker) HandleChange(ctx context.Context, msg *amqp.FieldChangeMessage) error {
	change := sqlstore.Change{
		ID:         msg.ID,
		Key:        msg.Key,
		Value:      msg.Value,
		Op:         msg.Op,
		OccurredAt: msg.Timestamp,
		RecordedAt: w.now(),
	}
	if err := w.recorder.RecordChange(ctx, change); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("record change: %w", err)
	}

	w.recorded.Add(1)
	if msg.Op == amqp.OpClear {
		w.clears.Add(1)
		w.logger.InfoContext(ctx, "Budget cleared", log.FieldMessageID, msg.ID)
		return nil
	}
	w.logger.DebugContext(ctx, "Change recorded",
		log.NewFields().WithKey(msg.Key, msg.Value).ToSlice()...)
	return nil
}

// Stats returns the counters.
func (w *AuditWorker) Stats() Stats {
	return Stats{
		Recorded: w.recorded.Load(),
		Failed:   w.failed.Load(),
		Clears:   w.clears.Load(),
	}
}

// ReportEvery logs the counters every interval until ctx ends.
func (w *AuditWorker) ReportEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s := w.Stats()
			w.logger.InfoContext(ctx, "Audit worker stats",
				"recorded", s.Recorded, "failed", s.Failed, "clears", s.Clears)
		}
	}
}
