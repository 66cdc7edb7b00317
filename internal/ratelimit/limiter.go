// Package ratelimit provides per-key request throttling.
//
// Two families of limiter live here. Limiter is a fixed-window counter used
// by the notification pipeline for activity and channel limits; it has an
// in-process backend (MemoryLimiter) and a shared Redis backend
// (RedisLimiter) with identical semantics. RequestLimiter is a token bucket
// used by the HTTP middleware to protect the API itself.
//
// Fixed windows reset at discrete boundaries, so a client can spend up to
// 2x MaxRequests across one boundary. That is accepted behavior.
package ratelimit

import (
	"context"
	"time"
)

const (
	// DefaultMaxRequests is used when Config.MaxRequests is not positive.
	DefaultMaxRequests = 10
	// DefaultWindow is used when Config.Window is not positive.
	DefaultWindow = time.Minute
	// DefaultMessage is returned on denial when Config.Message is empty.
	DefaultMessage = "Too many requests, please try again later."
)

// Config is fixed for the lifetime of a limiter.
type Config struct {
	MaxRequests int
	Window      time.Duration
	Message     string
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Message == "" {
		c.Message = DefaultMessage
	}
	return c
}

// Decision is the result of a single Check.
type Decision struct {
	Allowed   bool
	Current   int
	Max       int
	Remaining int
	ResetAt   time.Time
	// Message is the configured denial text; empty when allowed.
	Message string
}

// Status is a read-only snapshot of a key's window.
type Status struct {
	Current       int
	Max           int
	Remaining     int
	ResetAt       time.Time
	TimeRemaining time.Duration
}

// Limiter is a fixed-window counter keyed by an arbitrary string.
// Implementations must be safe for concurrent use, and Check must be atomic
// per key.
type Limiter interface {
	// Check counts one request for key and reports whether it is allowed.
	// A denied request does not change the count.
	Check(ctx context.Context, key string) (Decision, error)

	// Status returns the key's current window without modifying it, or nil
	// if the key has never been checked.
	Status(ctx context.Context, key string) (*Status, error)

	// Remove forgets key; its next Check starts a fresh window.
	Remove(ctx context.Context, key string) error

	// Clear forgets every key.
	Clear(ctx context.Context) error

	// Config returns the limiter's effective configuration.
	Config() Config
}

// Clock returns the current time. Tests substitute a controllable clock.
type Clock func() time.Time

// Option configures a limiter.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides time.Now.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func remaining(max, count int) int {
	if r := max - count; r > 0 {
		return r
	}
	return 0
}

func newStatus(count, max int, resetAt, now time.Time) *Status {
	left := resetAt.Sub(now)
	if left < 0 {
		left = 0
	}
	return &Status{
		Current:       count,
		Max:           max,
		Remaining:     remaining(max, count),
		ResetAt:       resetAt,
		TimeRemaining: left,
	}
}
