package redisstore

import (
	"context"
	"os"
	"testing"

	"budget/internal/store/storetest"
)

// Runs against a real server: BUDGET_TEST_REDIS_URL=redis://localhost:6379/15
func TestRedisStoreBehaviour(t *testing.T) {
	url := os.Getenv("BUDGET_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BUDGET_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := Dial(ctx, url, "budget:test:"+t.Name())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.Close()
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	storetest.Run(t, s)
}

func TestDialRejectsBadURL(t *testing.T) {
	if _, err := Dial(context.Background(), "not a url", ""); err == nil {
		t.Fatal("expected error for malformed url")
	}
}

func TestNewDefaultsHash(t *testing.T) {
	if s := New(nil, ""); s.hash != DefaultHash {
		t.Fatalf("hash = %q", s.hash)
	}
}
