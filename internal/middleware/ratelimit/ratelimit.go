// Package ratelimit throttles clients with one token bucket per IP.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// staleAfter is how long an idle bucket is kept before cleanup drops it.
const staleAfter = 10 * time.Minute

// Limiter gives each client a bucket of Burst tokens refilled at
// RequestsPerMinute. A request takes one token.
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	perSecond    float64
	burst        float64
	now          func() time.Time
	rejected     atomic.Int64
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	cleanupInterval time.Duration
}

type bucket struct {
	tokens float64
	last   time.Time
}

type Config struct {
	RequestsPerMinute int
	// Burst is the bucket size; zero means RequestsPerMinute.
	Burst           int
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a limiter and starts its cleanup goroutine; call Stop
// to end it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		buckets:         make(map[string]*bucket),
		perSecond:       float64(config.RequestsPerMinute) / 60,
		burst:           float64(config.Burst),
		now:             time.Now,
		stopCleanup:     make(chan struct{}),
		cleanupInterval: config.CleanupInterval,
	}
	go rl.cleanupLoop()
	return rl
}

// Allow takes a token for clientIP.
func (rl *Limiter) Allow(clientIP string) bool {
	_, ok := rl.take(clientIP)
	return ok
}

// take takes a token, or reports how long until one is available.
func (rl *Limiter) take(clientIP string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[clientIP]
	if !ok {
		b = &bucket{tokens: rl.burst, last: now}
		rl.buckets[clientIP] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(rl.burst, b.tokens+elapsed*rl.perSecond)
	}
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return 0, true
	}
	rl.rejected.Add(1)
	missing := 1 - b.tokens
	return time.Duration(missing / rl.perSecond * float64(time.Second)), false
}

func (rl *Limiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries drops buckets idle for longer than staleAfter; they
// would be full again anyway.
func (rl *Limiter) cleanupStaleEntries() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleAfter)
	removed := 0
	for ip, b := range rl.buckets {
		if b.last.Before(cutoff) {
			delete(rl.buckets, ip)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of tracked buckets.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

type Metrics struct {
	Rejected    int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		Rejected:    rl.rejected.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// RetryAfterSeconds renders d for the Retry-After header, rounded up to at
// least one second.
func RetryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Middleware limits requests whose method is in methods (all methods when
// empty). onLimit receives the wait before the next token and may be nil.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request, time.Duration), methods ...string) func(http.Handler) http.Handler {
	limited := make(map[string]bool, len(methods))
	for _, m := range methods {
		limited[m] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(limited) > 0 && !limited[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			wait, ok := rl.take(extractIP(r))
			if !ok {
				if onLimit != nil {
					onLimit(w, r, wait)
					return
				}
				w.Header().Set("Retry-After", RetryAfterSeconds(wait))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
