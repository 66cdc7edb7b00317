package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RequestLimiter throttles inbound HTTP requests. Implementations must be
// safe for concurrent use.
type RequestLimiter interface {
	// Allow checks whether a request identified by key should be allowed.
	// Returns whether the request is allowed and rate information for
	// populating response headers.
	Allow(key string) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close()
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per minute
	Remaining  int           // Approximate tokens remaining
	ResetAt    time.Time     // When the bucket will be full again
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}

// bucket holds a token bucket and its last access time for cleanup.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucketLimiter is an in-memory RequestLimiter backed by
// golang.org/x/time/rate. Each client gets its own bucket. A background
// goroutine evicts buckets idle for more than 2x the cleanup interval.
type TokenBucketLimiter struct {
	rate            rate.Limit
	burst           int
	limit           int
	cleanupInterval time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	done    chan struct{}
	closed  bool
}

var _ RequestLimiter = (*TokenBucketLimiter)(nil)

// NewTokenBucketLimiter creates a limiter refilling requestsPerMinute tokens
// per minute up to burst, and starts the eviction goroutine.
func NewTokenBucketLimiter(requestsPerMinute int, burst int, cleanupInterval time.Duration) *TokenBucketLimiter {
	t := &TokenBucketLimiter{
		rate:            rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:           burst,
		limit:           requestsPerMinute,
		cleanupInterval: cleanupInterval,
		buckets:         make(map[string]*bucket),
		done:            make(chan struct{}),
	}
	go t.cleanup()
	return t
}

// Allow implements RequestLimiter.
func (t *TokenBucketLimiter) Allow(key string) (bool, Info) {
	t.mu.Lock()
	b, exists := t.buckets[key]
	if !exists {
		b = &bucket{limiter: rate.NewLimiter(t.rate, t.burst)}
		t.buckets[key] = b
	}
	b.lastSeen = time.Now()
	t.mu.Unlock()

	allowed := b.limiter.Allow()

	now := time.Now()
	tokens := b.limiter.TokensAt(now)

	info := Info{
		Limit:     t.limit,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now,
	}
	if missing := float64(t.burst) - tokens; missing > 0 {
		info.ResetAt = now.Add(time.Duration(missing / float64(t.rate) * float64(time.Second)))
	}

	if !allowed {
		r := b.limiter.Reserve()
		info.RetryAfter = r.Delay()
		r.Cancel()
	}

	return allowed, info
}

// Close stops the background cleanup goroutine. Safe to call twice.
func (t *TokenBucketLimiter) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.done)
	}
}

func (t *TokenBucketLimiter) cleanup() {
	ticker := time.NewTicker(t.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.evictStale()
		}
	}
}

func (t *TokenBucketLimiter) evictStale() {
	cutoff := time.Now().Add(-2 * t.cleanupInterval)
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, b := range t.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(t.buckets, key)
		}
	}
}
