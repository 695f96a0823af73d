package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/store/sqlstore"
)

type fakeRecorder struct {
	changes []sqlstore.Change
	err     error
}

func (f *fakeRecorder) RecordChange(_ context.Context, c sqlstore.Change) error {
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, c)
	return nil
}

func TestHandleChange(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewAuditWorker(rec, log.Discard())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	set := amqp.NewSetMessage("income", "2000.00")
	if err := w.HandleChange(context.Background(), set); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := w.HandleChange(context.Background(), amqp.NewClearMessage()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if len(rec.changes) != 2 {
		t.Fatalf("recorded %d changes", len(rec.changes))
	}
	got := rec.changes[0]
	if got.ID != set.ID || got.Key != "income" || got.Value != "2000.00" || got.Op != amqp.OpSet {
		t.Errorf("change = %+v", got)
	}
	if !got.RecordedAt.Equal(fixed) || !got.OccurredAt.Equal(set.Timestamp) {
		t.Errorf("timestamps = %v / %v", got.OccurredAt, got.RecordedAt)
	}
	if s := w.Stats(); s.Recorded != 2 || s.Clears != 1 || s.Failed != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestHandleChangeFailure(t *testing.T) {
	boom := errors.New("disk full")
	w := NewAuditWorker(&fakeRecorder{err: boom}, log.Discard())

	err := w.HandleChange(context.Background(), amqp.NewSetMessage("income", "1"))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if s := w.Stats(); s.Failed != 1 || s.Recorded != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestHandleChangeIntoSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	w := NewAuditWorker(db, log.Discard())
	msg := amqp.NewSetMessage("selection_0_housing", "EDF")
	// A redelivered message must not create a second row.
	for i := 0; i < 2; i++ {
		if err := w.HandleChange(ctx, msg); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}

	changes, err := db.RecentChanges(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(changes) != 1 || changes[0].Value != "EDF" {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestReportEveryStopsOnCancel(t *testing.T) {
	w := NewAuditWorker(&fakeRecorder{}, log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.ReportEvery(ctx, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReportEvery did not stop")
	}
}
