package persistence

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store/memory"
)

type fakePublisher struct {
	sets   []string
	clears int
	err    error
}

func (f *fakePublisher) PublishSet(_ context.Context, key, value string) error {
	f.sets = append(f.sets, key+"="+value)
	return f.err
}

func (f *fakePublisher) PublishClear(context.Context) error {
	f.clears++
	return f.err
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }
func (f failingStore) ClearAll(context.Context) error                    { return f.err }

// countingStore counts reads on a memory store.
type countingStore struct {
	*memory.Store
	gets, lists int
	allErr      error
}

func (c *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	return c.Store.Get(ctx, key)
}

func (c *countingStore) All(ctx context.Context) (map[string]string, error) {
	c.lists++
	if c.allErr != nil {
		return nil, c.allErr
	}
	return c.Store.All(ctx)
}

// keyOnlyStore hides All so Restore has to read key by key.
type keyOnlyStore struct{ s *countingStore }

func (k keyOnlyStore) Get(ctx context.Context, key string) (string, bool, error) {
	return k.s.Get(ctx, key)
}
func (k keyOnlyStore) Set(ctx context.Context, key, value string) error { return k.s.Set(ctx, key, value) }
func (k keyOnlyStore) ClearAll(ctx context.Context) error               { return k.s.ClearAll(ctx) }

func TestKeys(t *testing.T) {
	cases := []struct{ got, want string }{
		{SelectionKey(0, core.Housing), "selection_0_housing"},
		{AmountKey(5, core.Savings), "amount_5_savings"},
		{AmountKey(2, core.Leisure), "amount_2_leisure"},
		{ExpenseKey(0, core.Housing), "expense_0"},
		{ExpenseKey(1, core.Transport), "expense_5"},
		{ExpenseKey(5, core.Savings), "expense_23"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
	if n := len(AllKeys()); n != 2+3*core.NumRows*core.NumCategories {
		t.Errorf("AllKeys() has %d keys", n)
	}
}

func TestRestoreEmptyStoreGivesDefaults(t *testing.T) {
	cat := core.DefaultCatalog()
	a := New(memory.New(nil), WithLogger(log.Discard()))

	got, err := a.Restore(context.Background(), cat)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got != core.NewSnapshot(cat) {
		t.Fatalf("expected default snapshot, got %+v", got)
	}
}

func TestSaveThenRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	cat := core.DefaultCatalog()
	a := New(memory.New(nil), WithLogger(log.Discard()))

	want := core.NewSnapshot(cat)
	want.Income = core.Money{Cents: 250000}
	want.TargetBudget = core.Money{Cents: 180050}
	want.Rows[0][core.Housing] = core.Entry{Label: "EDF", Amount: core.Money{Cents: 12050}}
	want.Rows[3][core.Leisure] = core.Entry{Label: "Vélo du dimanche", Amount: core.Money{Cents: 4200}}
	want.Rows[5][core.Savings] = core.Entry{Label: "PEA", Amount: core.MaxAmount}

	mustSave := func(k, v string) {
		t.Helper()
		if err := a.Save(ctx, k, v); err != nil {
			t.Fatalf("save %s: %v", k, err)
		}
	}
	mustSave(IncomeKey, want.Income.String())
	mustSave(TargetBudgetKey, want.TargetBudget.String())
	for r := 0; r < core.NumRows; r++ {
		for c := 0; c < core.NumCategories; c++ {
			e := want.Rows[r][c]
			mustSave(SelectionKey(r, c), e.Label)
			mustSave(AmountKey(r, c), e.Amount.String())
			mustSave(ExpenseKey(r, c), e.Amount.String())
		}
	}

	got, err := a.Restore(ctx, cat)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestRestoreFallsBackOnBadValues(t *testing.T) {
	cat := core.DefaultCatalog()
	s := memory.New(map[string]string{
		IncomeKey:                       "abc",
		TargetBudgetKey:                 "5000000",
		SelectionKey(0, core.Housing):   "<script>",
		SelectionKey(1, core.Transport): "Trottinette",
		AmountKey(0, core.Housing):      "-3",
		AmountKey(1, core.Transport):    "12.345",
		ExpenseKey(2, core.Leisure):     "30.00", // legacy key only
		AmountKey(4, core.Savings):      "",
		ExpenseKey(4, core.Savings):     "99.00", // ignored: amount key present
		SelectionKey(5, core.Savings):   "Livret 2",
	})
	a := New(s, WithLogger(log.Discard()))

	got, err := a.Restore(context.Background(), cat)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if !got.Income.IsZero() {
		t.Errorf("bad income should default to zero, got %s", got.Income)
	}
	if got.TargetBudget != core.MaxAmount {
		t.Errorf("oversized target should clamp, got %s", got.TargetBudget)
	}
	if got.Rows[0][core.Housing].Label != "Loyer" || !got.Rows[0][core.Housing].Amount.IsZero() {
		t.Errorf("row 0 housing = %+v", got.Rows[0][core.Housing])
	}
	if got.Rows[1][core.Transport].Label != "Trottinette" || !got.Rows[1][core.Transport].Amount.IsZero() {
		t.Errorf("row 1 transport = %+v", got.Rows[1][core.Transport])
	}
	if got.Rows[2][core.Leisure].Amount.Cents != 3000 {
		t.Errorf("legacy expense key not used: %+v", got.Rows[2][core.Leisure])
	}
	if !got.Rows[4][core.Savings].Amount.IsZero() {
		t.Errorf("empty amount key must win over legacy key: %+v", got.Rows[4][core.Savings])
	}
	if got.Rows[5][core.Savings].Label != "Livret A" {
		t.Errorf("label with digits must default, got %q", got.Rows[5][core.Savings].Label)
	}

	// Restore never writes back.
	if v, _, _ := s.Get(context.Background(), IncomeKey); v != "abc" {
		t.Errorf("restore rewrote income to %q", v)
	}
}

func TestPublisherNotified(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	a := New(memory.New(nil), WithPublisher(pub), WithLogger(log.Discard()))

	if err := a.Save(ctx, IncomeKey, "10.00"); err != nil {
		t.Fatal(err)
	}
	if err := a.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if len(pub.sets) != 1 || pub.sets[0] != "income=10.00" || pub.clears != 1 {
		t.Fatalf("publisher saw sets=%v clears=%d", pub.sets, pub.clears)
	}
}

func TestPublishFailureDoesNotFailSave(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	s := memory.New(nil)
	a := New(s, WithPublisher(pub), WithLogger(log.Discard()))

	if err := a.Save(ctx, IncomeKey, "10.00"); err != nil {
		t.Fatalf("save must succeed, got %v", err)
	}
	if v, ok, _ := s.Get(ctx, IncomeKey); !ok || v != "10.00" {
		t.Fatalf("value not stored")
	}
	if err := a.ClearAll(ctx); err != nil {
		t.Fatalf("clear must succeed, got %v", err)
	}
}

func TestRestoreReadsListingStoreOnce(t *testing.T) {
	ctx := context.Background()
	cat := core.DefaultCatalog()
	seed := map[string]string{
		IncomeKey:                     "1500",
		SelectionKey(2, core.Leisure): "Cinéma",
		AmountKey(2, core.Leisure):    "30",
		ExpenseKey(4, core.Savings):   "75.5",
	}

	listing := &countingStore{Store: memory.New(seed)}
	got, err := New(listing, WithLogger(log.Discard())).Restore(ctx, cat)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if listing.lists != 1 || listing.gets != 0 {
		t.Errorf("listing store: %d All calls, %d Get calls; want 1 and 0", listing.lists, listing.gets)
	}

	counted := &countingStore{Store: memory.New(seed)}
	want, err := New(keyOnlyStore{counted}, WithLogger(log.Discard())).Restore(ctx, cat)
	if err != nil {
		t.Fatalf("restore key by key: %v", err)
	}
	if counted.lists != 0 || counted.gets == 0 {
		t.Errorf("key store: %d All calls, %d Get calls", counted.lists, counted.gets)
	}
	if got != want {
		t.Fatalf("restores differ:\n listing %+v\n key     %+v", got, want)
	}
	if got.Income.Cents != 150000 || got.Rows[2][core.Leisure].Amount.Cents != 3000 ||
		got.Rows[2][core.Leisure].Label != "Cinéma" || got.Rows[4][core.Savings].Amount.Cents != 7550 {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestRestoreListingError(t *testing.T) {
	boom := errors.New("quota exceeded")
	st := &countingStore{Store: memory.New(nil), allErr: boom}
	_, err := New(st, WithLogger(log.Discard())).Restore(context.Background(), core.DefaultCatalog())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped listing error, got %v", err)
	}
	if st.gets != 0 {
		t.Errorf("fell back to %d Get calls after a listing error", st.gets)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	pub := &fakePublisher{}
	a := New(failingStore{err: boom}, WithPublisher(pub), WithLogger(log.Discard()))

	if err := a.Save(ctx, IncomeKey, "1.00"); !errors.Is(err, boom) {
		t.Fatalf("save: expected wrapped store error, got %v", err)
	}
	if err := a.ClearAll(ctx); !errors.Is(err, boom) {
		t.Fatalf("clear: expected wrapped store error, got %v", err)
	}
	if _, err := a.Restore(ctx, core.DefaultCatalog()); !errors.Is(err, boom) {
		t.Fatalf("restore: expected wrapped store error, got %v", err)
	}
	if len(pub.sets) != 0 || pub.clears != 0 {
		t.Fatalf("failed writes must not be published")
	}
}
