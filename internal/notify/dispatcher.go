package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"activitynotifier/internal/channel"
	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"
)

// DefaultChannelTimeout bounds a single channel send when none is configured.
const DefaultChannelTimeout = 10 * time.Second

// Dispatcher fans a message out to the channels named by a selector. Each
// channel has its own sender and its own rate limiter keyed by identity.
//
// Channels are handled independently: a missing contact, a denied limit or
// a failed send on one channel never affects the others.
type Dispatcher struct {
	senders  map[models.Channel]channel.Sender
	limiters map[models.Channel]ratelimit.Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. A channel with no sender is reported
// as SendFailed; a channel with no limiter is not throttled.
func NewDispatcher(senders map[models.Channel]channel.Sender, limiters map[models.Channel]ratelimit.Limiter, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultChannelTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		senders:  senders,
		limiters: limiters,
		timeout:  timeout,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Send delivers message to every channel in the selector's expansion and
// waits for all of them. It never returns an error; failures are reported
// in the result.
func (d *Dispatcher) Send(ctx context.Context, user models.User, kind models.ActivityKind, selector models.ChannelSelector, message string) models.DispatchResult {
	if err := user.Validate(); err != nil {
		return models.DispatchResult{
			Success:    false,
			Error:      err.Error(),
			PerChannel: map[models.Channel]models.DispatchOutcome{},
		}
	}

	channels := selector.Expand()
	if len(channels) == 0 {
		d.logger.DebugContext(ctx, "Notifications disabled for activity",
			"identity", user.Identity,
			"kind", kind.String(),
		)
		return models.DispatchResult{
			Success:    true,
			PerChannel: map[models.Channel]models.DispatchOutcome{},
		}
	}

	subject := Subject(kind)
	outcomes := make([]models.DispatchOutcome, len(channels))

	var g errgroup.Group
	for i, ch := range channels {
		g.Go(func() error {
			var err error
			outcomes[i], err = d.dispatchOne(ctx, user, ch, subject, message)
			return err
		})
	}
	waitErr := g.Wait()

	result := models.DispatchResult{
		Success:    waitErr == nil,
		PerChannel: make(map[models.Channel]models.DispatchOutcome, len(channels)),
	}
	if waitErr != nil {
		result.Error = waitErr.Error()
	}
	for i, ch := range channels {
		result.PerChannel[ch] = outcomes[i]
	}
	result.Aggregate()

	d.logger.InfoContext(ctx, "Notification dispatched",
		"identity", user.Identity,
		"kind", kind.String(),
		"selector", selector.String(),
		"sent", result.NotificationSent,
		"rate_limited", result.RateLimited,
	)
	return result
}

// dispatchOne returns a non-nil error only when the sender panicked.
func (d *Dispatcher) dispatchOne(ctx context.Context, user models.User, ch models.Channel, subject, message string) (models.DispatchOutcome, error) {
	logger := d.logger.With("identity", user.Identity, "channel", string(ch))

	destination := user.ContactFor(ch)
	if destination == "" {
		logger.WarnContext(ctx, "Notification requested but no contact for channel")
		return models.SkippedNoContact(), nil
	}

	if limiter, ok := d.limiters[ch]; ok {
		decision, err := limiter.Check(ctx, user.Identity)
		if err != nil {
			logger.ErrorContext(ctx, "Channel rate limit check failed", "error", err)
			return models.SendFailed(fmt.Errorf("rate limit check: %w", err)), nil
		}
		if !decision.Allowed {
			logger.InfoContext(ctx, "Channel rate limit exceeded",
				"current", decision.Current,
				"max", decision.Max,
				"reset_at", decision.ResetAt,
			)
			return models.RateLimited(decision.ResetAt), nil
		}
	}

	sender, ok := d.senders[ch]
	if !ok {
		return models.SendFailed(fmt.Errorf("no sender configured for %s", ch)), nil
	}

	err := d.sendWithTimeout(ctx, sender, destination, subject, message)
	var pe *panicError
	if errors.As(err, &pe) {
		logger.ErrorContext(ctx, "Notification sender panicked", "panic", pe.value)
		return models.SendFailed(err), fmt.Errorf("%s sender: %w", ch, err)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Notification send failed", "error", err)
		return models.SendFailed(err), nil
	}
	return models.Sent(), nil
}

// sendWithTimeout runs the sender under the channel timeout. A sender that
// ignores its context is abandoned once the deadline passes.
func (d *Dispatcher) sendWithTimeout(ctx context.Context, sender channel.Sender, destination, subject, message string) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &panicError{value: r}
			}
		}()
		done <- sender.Send(sendCtx, destination, subject, message)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("send timed out after %s: %w", d.timeout, err)
		}
		return err
	case <-sendCtx.Done():
		if errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("send timed out after %s", d.timeout)
		}
		return sendCtx.Err()
	}
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
