package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "budget.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreBehaviour(t *testing.T) {
	storetest.Run(t, openTemp(t))
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budget.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "amount_2_leisure", "45.00"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	// Migrations are idempotent on an existing file.
	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	v, ok, err := s.Get(ctx, "amount_2_leisure")
	if err != nil || !ok || v != "45.00" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
}

func TestRecordChangeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	base := time.UnixMilli(1_700_000_000_000)
	changes := []Change{
		{ID: "a", Key: "income", Value: "2000.00", Op: "set", OccurredAt: base},
		{ID: "b", Key: "amount_0_housing", Value: "120.50", Op: "set", OccurredAt: base.Add(time.Second)},
		{ID: "a", Key: "income", Value: "2000.00", Op: "set", OccurredAt: base},
	}
	for _, c := range changes {
		if err := s.RecordChange(ctx, c); err != nil {
			t.Fatalf("record %s: %v", c.ID, err)
		}
	}

	got, err := s.RecentChanges(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("expected newest first, got %s then %s", got[0].ID, got[1].ID)
	}
	if !got[1].OccurredAt.Equal(base) || got[1].RecordedAt.IsZero() {
		t.Fatalf("timestamps not round-tripped: %+v", got[1])
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("postgres rebind = %q", got)
	}
	lite := &Store{dialect: SQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}

func TestPostgresStoreBehaviour(t *testing.T) {
	dsn := os.Getenv("BUDGET_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BUDGET_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer s.Close()
	if err := s.ClearAll(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	storetest.Run(t, s)
}
