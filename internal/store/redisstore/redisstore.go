// Package redisstore keeps every budget key as a field of one Redis hash.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"budget/internal/store"
)

var (
	_ store.Store  = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
	_ store.Dumper = (*Store)(nil)
)

// DefaultHash is the hash name used when none is configured.
const DefaultHash = "budget:snapshot"

type Store struct {
	rdb  redis.UniversalClient
	hash string
}

// New wraps an existing client. hash defaults to DefaultHash.
func New(rdb redis.UniversalClient, hash string) *Store {
	if hash == "" {
		hash = DefaultHash
	}
	return &Store{rdb: rdb, hash: hash}
}

// Dial connects to the Redis server at url ("redis://host:6379/0") and
// checks the connection.
func Dial(ctx context.Context, url, hash string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, hash), nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.HSet(ctx, s.hash, key, value).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.hash).Err(); err != nil {
		return fmt.Errorf("del %s: %w", s.hash, err)
	}
	return nil
}

func (s *Store) All(ctx context.Context) (map[string]string, error) {
	all, err := s.rdb.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", s.hash, err)
	}
	return all, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
