package controller

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/persistence"
	"budget/internal/report"
	"budget/internal/store/memory"
)

func newTestController(t *testing.T, seed map[string]string) (*Controller, *memory.Store) {
	t.Helper()
	st := memory.New(seed)
	adapter := persistence.New(st, persistence.WithLogger(log.Discard()))
	c, err := New(context.Background(), core.DefaultCatalog(), adapter, chart.New(chart.WithSize(200, 200)), log.Discard())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c, st
}

func mustHandle(t *testing.T, c *Controller, ev Event) Outcome {
	t.Helper()
	out, err := c.Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("handle %+v: %v", ev, err)
	}
	return out
}

func stored(t *testing.T, st *memory.Store, key string) string {
	t.Helper()
	v, ok, err := st.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("key %s not stored (err=%v)", key, err)
	}
	return v
}

func hasNotice(out Outcome, msg string) bool {
	for _, n := range out.Notices {
		if n.Message == msg {
			return true
		}
	}
	return false
}

func TestDispatchTableCoverage(t *testing.T) {
	handled := map[route]bool{
		{FieldIncome, EventFocus}:       true,
		{FieldIncome, EventInput}:       true,
		{FieldIncome, EventBlur}:        true,
		{FieldTargetBudget, EventFocus}: true,
		{FieldTargetBudget, EventInput}: true,
		{FieldTargetBudget, EventBlur}:  true,
		{FieldAmount, EventFocus}:       true,
		{FieldAmount, EventInput}:       true,
		{FieldAmount, EventBlur}:        true,
		{FieldLabel, EventChange}:       true,
		{FieldReset, EventReset}:        true,
	}

	table := dispatchTable()
	if len(table) != len(handled) {
		t.Fatalf("dispatch table has %d routes, want %d", len(table), len(handled))
	}

	c, _ := newTestController(t, nil)
	for _, f := range FieldKinds {
		for _, k := range EventKinds {
			r := route{f, k}
			if _, ok := table[r]; ok != handled[r] {
				t.Errorf("route %s/%s registered=%v", f, k, ok)
			}
			if handled[r] {
				continue
			}
			_, err := c.Handle(context.Background(), Event{Field: f, Kind: k})
			if !errors.Is(err, ErrUnhandledEvent) {
				t.Errorf("%s/%s: expected ErrUnhandledEvent, got %v", f, k, err)
			}
		}
	}
}

func TestAmountBlur(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		wantStored string
		wantNotice string
	}{
		{"valid", "120.50", "120.50", ""},
		{"integer", "45", "45.00", ""},
		{"empty becomes zero", "", "0.00", ""},
		{"invalid text", "abc", "0.00", MsgInvalidAmount},
		{"comma decimal", "12,5", "0.00", MsgInvalidAmount},
		{"negative", "-5", "0.00", MsgInvalidAmount},
		{"too large", "2000000", "1000000.00", MsgAmountTooLarge},
		{"surrounding spaces", " 12 ", "0.00", MsgInvalidAmount},
		{"embedded NUL", "1\x002", "0.00", MsgInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Income covers the valid amounts so no balance warning is raised.
			c, st := newTestController(t, map[string]string{persistence.IncomeKey: "1000"})
			out := mustHandle(t, c, Event{Field: FieldAmount, Kind: EventBlur, Row: 1, Col: core.Transport, Value: tt.value})

			if got := stored(t, st, persistence.AmountKey(1, core.Transport)); got != tt.wantStored {
				t.Errorf("amount key = %q, want %q", got, tt.wantStored)
			}
			if got := stored(t, st, persistence.ExpenseKey(1, core.Transport)); got != tt.wantStored {
				t.Errorf("expense key = %q, want %q", got, tt.wantStored)
			}
			if !out.HasDisplay || out.Display != tt.wantStored {
				t.Errorf("display = %q (%v)", out.Display, out.HasDisplay)
			}
			if out.Snapshot.Rows[1][core.Transport].Amount.String() != tt.wantStored {
				t.Errorf("snapshot amount = %s", out.Snapshot.Rows[1][core.Transport].Amount)
			}
			if tt.wantNotice == "" && len(out.Notices) != 0 {
				t.Errorf("unexpected notices %v", out.Notices)
			}
			if tt.wantNotice != "" && !hasNotice(out, tt.wantNotice) {
				t.Errorf("missing notice %q in %v", tt.wantNotice, out.Notices)
			}
		})
	}
}

func TestTotalsFollowEdits(t *testing.T) {
	c, st := newTestController(t, nil)
	mustHandle(t, c, Event{Field: FieldIncome, Kind: EventBlur, Value: "2000"})
	mustHandle(t, c, Event{Field: FieldTargetBudget, Kind: EventBlur, Value: "1500"})
	mustHandle(t, c, Event{Field: FieldAmount, Kind: EventBlur, Row: 0, Col: core.Housing, Value: "800"})
	out := mustHandle(t, c, Event{Field: FieldAmount, Kind: EventBlur, Row: 0, Col: core.Leisure, Value: "50.25"})

	if out.Totals.Rows[0].String() != "850.25" {
		t.Errorf("row total = %s", out.Totals.Rows[0])
	}
	if out.Totals.Grand.String() != "850.25" || out.Totals.Balance.String() != "1149.75" {
		t.Errorf("grand=%s balance=%s", out.Totals.Grand, out.Totals.Balance)
	}
	if stored(t, st, persistence.IncomeKey) != "2000.00" || stored(t, st, persistence.TargetBudgetKey) != "1500.00" {
		t.Error("scalar keys not persisted")
	}

	s, tot := c.State()
	if s != out.Snapshot || tot != out.Totals {
		t.Error("State differs from the last outcome")
	}
	if _, err := c.ChartPNG(); err != nil {
		t.Errorf("chart: %v", err)
	}
}

func TestFocusAndInput(t *testing.T) {
	c, _ := newTestController(t, map[string]string{persistence.IncomeKey: "1500"})

	if out := mustHandle(t, c, Event{Field: FieldAmount, Kind: EventFocus, Row: 2, Col: core.Savings}); !out.HasDisplay || out.Display != "" {
		t.Errorf("focus on zero amount should clear the widget, got %+v", out)
	}
	if out := mustHandle(t, c, Event{Field: FieldIncome, Kind: EventFocus}); out.HasDisplay {
		t.Errorf("focus on non-zero income should leave the widget, got %q", out.Display)
	}

	out := mustHandle(t, c, Event{Field: FieldIncome, Kind: EventInput, Value: "123456789"})
	if !out.HasDisplay || out.Display != "1234567" {
		t.Errorf("input not truncated: %+v", out)
	}
	if out := mustHandle(t, c, Event{Field: FieldIncome, Kind: EventInput, Value: "1234"}); out.HasDisplay {
		t.Error("short input must not be rewritten")
	}
	if s, _ := c.State(); s.Income.String() != "1500.00" {
		t.Errorf("input must not change the snapshot, income=%s", s.Income)
	}
}

func TestLabelChange(t *testing.T) {
	c, st := newTestController(t, nil)
	key := persistence.SelectionKey(3, core.Transport)

	out := mustHandle(t, c, Event{Field: FieldLabel, Kind: EventChange, Row: 3, Col: core.Transport, Value: "Carte Navigo"})
	if stored(t, st, key) != "Carte Navigo" || len(out.Notices) != 0 {
		t.Fatalf("valid label: stored=%q notices=%v", stored(t, st, key), out.Notices)
	}

	out = mustHandle(t, c, Event{Field: FieldLabel, Kind: EventChange, Row: 3, Col: core.Transport, Value: "Bus<script>"})
	if !hasNotice(out, MsgInvalidLabel) {
		t.Errorf("missing invalid label notice: %v", out.Notices)
	}
	if got := stored(t, st, key); got != "Essence" {
		t.Errorf("invalid label stored as %q, want column default", got)
	}
	if out.Display != "Essence" {
		t.Errorf("display = %q", out.Display)
	}
}

func TestOutOfGridIsRejected(t *testing.T) {
	c, st := newTestController(t, nil)
	for _, ev := range []Event{
		{Field: FieldAmount, Kind: EventBlur, Row: 6, Col: 0, Value: "1"},
		{Field: FieldAmount, Kind: EventFocus, Row: 0, Col: 4},
		{Field: FieldLabel, Kind: EventChange, Row: -1, Col: 0, Value: "Loyer"},
	} {
		if _, err := c.Handle(context.Background(), ev); !errors.Is(err, core.ErrOutOfGrid) {
			t.Errorf("%+v: expected ErrOutOfGrid, got %v", ev, err)
		}
	}
	if st.Len() != 0 {
		t.Errorf("rejected events wrote %d keys", st.Len())
	}
}

func TestNegativeBalanceWarnsOnTransition(t *testing.T) {
	c, _ := newTestController(t, nil)
	mustHandle(t, c, Event{Field: FieldIncome, Kind: EventBlur, Value: "100"})

	out := mustHandle(t, c, Event{Field: FieldAmount, Kind: EventBlur, Row: 0, Col: 0, Value: "150"})
	if !out.Totals.Negative || !hasNotice(out, MsgNegativeBalance) {
		t.Fatalf("expected warning on first negative balance, got %+v", out.Notices)
	}

	out = mustHandle(t, c, Event{Field: FieldAmount, Kind: EventBlur, Row: 0, Col: 1, Value: "10"})
	if hasNotice(out, MsgNegativeBalance) {
		t.Error("warning repeated while still negative")
	}

	mustHandle(t, c, Event{Field: FieldIncome, Kind: EventBlur, Value: "1000"})
	out = mustHandle(t, c, Event{Field: FieldIncome, Kind: EventBlur, Value: "50"})
	if !hasNotice(out, MsgNegativeBalance) {
		t.Error("expected a new warning after the balance recovered")
	}
}

func TestNegativeBalanceAtLoadIsBaseline(t *testing.T) {
	c, _ := newTestController(t, map[string]string{
		persistence.IncomeKey:          "10",
		persistence.AmountKey(0, 0):    "20",
		persistence.SelectionKey(0, 0): "Loyer",
	})
	if _, tot := c.State(); !tot.Negative {
		t.Fatal("restored balance should be negative")
	}
	out := mustHandle(t, c, Event{Field: FieldAmount, Kind: EventBlur, Row: 1, Col: 0, Value: "5"})
	if hasNotice(out, MsgNegativeBalance) {
		t.Error("no transition happened, no warning expected")
	}
}

func TestReset(t *testing.T) {
	c, st := newTestController(t, nil)
	mustHandle(t, c, Event{Field: FieldIncome, Kind: EventBlur, Value: "900"})
	mustHandle(t, c, Event{Field: FieldLabel, Kind: EventChange, Row: 0, Col: 0, Value: "EDF"})

	if _, err := c.Handle(context.Background(), Event{Field: FieldReset, Kind: EventReset}); !errors.Is(err, ErrResetNotConfirmed) {
		t.Fatalf("unconfirmed reset: %v", err)
	}
	if st.Len() == 0 {
		t.Fatal("unconfirmed reset cleared storage")
	}

	out, err := c.Reset(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if st.Len() != 0 {
		t.Errorf("storage holds %d keys after reset", st.Len())
	}
	if out.Snapshot != core.NewSnapshot(c.Catalog()) {
		t.Error("snapshot not back to defaults")
	}
	if !out.Totals.Grand.IsZero() || !out.Totals.Balance.IsZero() {
		t.Errorf("totals not zero: %+v", out.Totals)
	}
}

func TestRestartRestoresState(t *testing.T) {
	c, st := newTestController(t, nil)
	mustHandle(t, c, Event{Field: FieldIncome, Kind: EventBlur, Value: "3000"})
	mustHandle(t, c, Event{Field: FieldAmount, Kind: EventBlur, Row: 5, Col: core.Savings, Value: "250.75"})
	mustHandle(t, c, Event{Field: FieldLabel, Kind: EventChange, Row: 5, Col: core.Savings, Value: "PEA"})
	before, beforeTotals := c.State()

	seed, _ := st.All(context.Background())
	restarted, _ := newTestController(t, seed)
	after, afterTotals := restarted.State()
	if before != after || beforeTotals != afterTotals {
		t.Errorf("state after restart differs:\n%+v\n%+v", before, after)
	}
}

type failingStorage struct {
	err error
}

func (f *failingStorage) Restore(_ context.Context, cat *core.Catalog) (core.Snapshot, error) {
	return core.NewSnapshot(cat), nil
}
func (f *failingStorage) Save(context.Context, string, string) error { return f.err }
func (f *failingStorage) ClearAll(context.Context) error             { return f.err }

func TestStorageFailureKeepsSnapshot(t *testing.T) {
	boom := errors.New("disk full")
	c, err := New(context.Background(), core.DefaultCatalog(), &failingStorage{err: boom}, nil, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	before, _ := c.State()

	if _, err := c.Handle(context.Background(), Event{Field: FieldIncome, Kind: EventBlur, Value: "10"}); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := c.Reset(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected storage error on reset, got %v", err)
	}
	if after, _ := c.State(); after != before {
		t.Error("snapshot changed although storage failed")
	}
}

func TestExport(t *testing.T) {
	c, _ := newTestController(t, nil)

	var empty bytes.Buffer
	if err := c.Export(context.Background(), report.FormatPDF, &empty); err != nil {
		t.Fatalf("export without chart data: %v", err)
	}
	if !bytes.HasPrefix(empty.Bytes(), []byte("%PDF")) {
		t.Fatal("not a PDF")
	}

	mustHandle(t, c, Event{Field: FieldAmount, Kind: EventBlur, Row: 0, Col: 0, Value: "75"})
	for _, f := range []report.Format{report.FormatPDF, report.FormatXLSX} {
		var buf bytes.Buffer
		if err := c.Export(context.Background(), f, &buf); err != nil {
			t.Errorf("%s export: %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s export empty", f)
		}
	}

	if err := c.Export(context.Background(), "csv", &bytes.Buffer{}); !errors.Is(err, report.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
