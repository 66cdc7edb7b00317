package ratelimit

import (
	"context"
	"sync"
	"time"
)

// record is the per-key window state.
type record struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-process fixed-window Limiter. Records are created
// lazily on first Check and are never evicted automatically; a lapsed window
// is reset on the next Check for its key.
type MemoryLimiter struct {
	cfg   Config
	clock Clock

	mu      sync.Mutex
	records map[string]*record
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates a limiter. Non-positive limits fall back to
// DefaultMaxRequests and DefaultWindow.
func NewMemoryLimiter(cfg Config, opts ...Option) *MemoryLimiter {
	o := buildOptions(opts)
	return &MemoryLimiter{
		cfg:     cfg.withDefaults(),
		clock:   o.clock,
		records: make(map[string]*record),
	}
}

// Check implements Limiter.
func (m *MemoryLimiter) Check(_ context.Context, key string) (Decision, error) {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		rec = &record{resetAt: now.Add(m.cfg.Window)}
		m.records[key] = rec
	}

	if now.After(rec.resetAt) {
		rec.count = 0
		rec.resetAt = now.Add(m.cfg.Window)
	}

	allowed := rec.count < m.cfg.MaxRequests
	if allowed {
		rec.count++
	}

	d := Decision{
		Allowed:   allowed,
		Current:   rec.count,
		Max:       m.cfg.MaxRequests,
		Remaining: remaining(m.cfg.MaxRequests, rec.count),
		ResetAt:   rec.resetAt,
	}
	if !allowed {
		d.Message = m.cfg.Message
	}
	return d, nil
}

// Status implements Limiter.
func (m *MemoryLimiter) Status(_ context.Context, key string) (*Status, error) {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return newStatus(rec.count, m.cfg.MaxRequests, rec.resetAt, now), nil
}

// Remove implements Limiter.
func (m *MemoryLimiter) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

// Clear implements Limiter.
func (m *MemoryLimiter) Clear(_ context.Context) error {
	m.mu.Lock()
	clear(m.records)
	m.mu.Unlock()
	return nil
}

// Config implements Limiter.
func (m *MemoryLimiter) Config() Config {
	return m.cfg
}

// Len returns the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
