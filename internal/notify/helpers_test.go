package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"activitynotifier/internal/channel"
	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"
)

type sentMessage struct {
	Destination string
	Subject     string
	Body        string
}

// fakeSender records deliveries and can be told to fail, stall or panic.
type fakeSender struct {
	name string

	mu    sync.Mutex
	sent  []sentMessage
	err   error
	delay time.Duration
	// ignoreCtx makes a delayed send sleep through cancellation.
	ignoreCtx bool
	panicWith any
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(ctx context.Context, destination, subject, body string) error {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{Destination: destination, Subject: subject, Body: body})
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func newFakeSenders() (map[models.Channel]channel.Sender, map[models.Channel]*fakeSender) {
	fakes := map[models.Channel]*fakeSender{}
	senders := map[models.Channel]channel.Sender{}
	for _, ch := range models.Channels {
		f := &fakeSender{name: string(ch)}
		fakes[ch] = f
		senders[ch] = f
	}
	return senders, fakes
}

func newChannelLimiters(max int) map[models.Channel]ratelimit.Limiter {
	out := map[models.Channel]ratelimit.Limiter{}
	for _, ch := range models.Channels {
		out[ch] = ratelimit.NewMemoryLimiter(ratelimit.Config{MaxRequests: max, Window: time.Minute})
	}
	return out
}

// failingLimiter returns err from every call.
type failingLimiter struct {
	err error
}

func (l failingLimiter) Check(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, l.err
}
func (l failingLimiter) Status(context.Context, string) (*ratelimit.Status, error) { return nil, l.err }
func (l failingLimiter) Remove(context.Context, string) error                    { return l.err }
func (l failingLimiter) Clear(context.Context) error                             { return l.err }
func (l failingLimiter) Config() ratelimit.Config                                { return ratelimit.Config{} }

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testIdentity = "0x1234567890abcdef1234567890abcdef12345678"

var fixedTime = time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }
