// Package store defines the key-value port the budget is persisted through.
// Backends live in subpackages: memory, sqlstore, redisstore and sheets.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store closed")

type (
	// Store is a string key-value store. Get reports whether the key exists.
	Store interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
		ClearAll(ctx context.Context) error
	}

	// Pinger is implemented by network backends for readiness checks.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Dumper lists every stored pair in one read. Restore prefers it.
	Dumper interface {
		All(ctx context.Context) (map[string]string, error)
	}
)

// Ping calls s.Ping when s implements Pinger and returns nil otherwise.
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
