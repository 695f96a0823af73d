// Package storetest holds a behaviour suite every store.Store backend must pass.
package storetest

import (
	"context"
	"testing"

	"budget/internal/store"
)

// Run exercises s. The store must be empty on entry.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := s.Get(ctx, "absent")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if ok || v != "" {
			t.Fatalf("expected missing key, got %q ok=%v", v, ok)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := s.Set(ctx, "income", "2000.00"); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, ok, err := s.Get(ctx, "income")
		if err != nil || !ok || v != "2000.00" {
			t.Fatalf("got %q ok=%v err=%v", v, ok, err)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		if err := s.Set(ctx, "selection_0_housing", "Loyer"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.Set(ctx, "selection_0_housing", "Téléphone"); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, _, err := s.Get(ctx, "selection_0_housing")
		if err != nil || v != "Téléphone" {
			t.Fatalf("got %q err=%v", v, err)
		}
	})

	t.Run("empty value is present", func(t *testing.T) {
		if err := s.Set(ctx, "blank", ""); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, ok, err := s.Get(ctx, "blank")
		if err != nil || !ok || v != "" {
			t.Fatalf("got %q ok=%v err=%v", v, ok, err)
		}
	})

	t.Run("dump", func(t *testing.T) {
		d, ok := s.(store.Dumper)
		if !ok {
			t.Skip("backend does not list pairs")
		}
		all, err := d.All(ctx)
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if all["income"] != "2000.00" || all["selection_0_housing"] != "Téléphone" {
			t.Fatalf("unexpected dump %v", all)
		}
	})

	t.Run("clear all", func(t *testing.T) {
		if err := s.ClearAll(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		for _, k := range []string{"income", "selection_0_housing", "blank"} {
			if _, ok, err := s.Get(ctx, k); err != nil || ok {
				t.Fatalf("%s still present after clear (err=%v)", k, err)
			}
		}
		// Clearing an empty store is fine.
		if err := s.ClearAll(ctx); err != nil {
			t.Fatalf("second clear: %v", err)
		}
	})
}
