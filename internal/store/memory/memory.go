// Package memory is an in-process store.Store. Values live as long as the
// process does.
package memory

import (
	"context"
	"maps"
	"sync"

	"budget/internal/store"
)

var (
	_ store.Store  = (*Store)(nil)
	_ store.Dumper = (*Store)(nil)
)

type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New returns a store seeded with a copy of seed (may be nil).
func New(seed map[string]string) *Store {
	values := make(map[string]string, len(seed))
	maps.Copy(values, seed)
	return &Store{values: values}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.values)
	return nil
}

// All returns a copy of every stored pair.
func (s *Store) All(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values), nil
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
