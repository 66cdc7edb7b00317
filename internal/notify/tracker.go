package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"
)

// sender is the part of Dispatcher the tracker depends on.
type sender interface {
	Send(ctx context.Context, user models.User, kind models.ActivityKind, selector models.ChannelSelector, message string) models.DispatchResult
}

// Tracker is the entry point for activity events. It applies the per-identity
// activity limit, formats the notification message and hands it to the
// dispatcher.
type Tracker struct {
	limiter    ratelimit.Limiter
	dispatcher sender
	clock      func() time.Time
	location   *time.Location
	logger     *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerClock overrides the clock used for message timestamps.
func WithTrackerClock(clock func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithLocation sets the time zone used to render message timestamps.
// Defaults to time.Local.
func WithLocation(loc *time.Location) TrackerOption {
	return func(t *Tracker) {
		if loc != nil {
			t.location = loc
		}
	}
}

func NewTracker(limiter ratelimit.Limiter, dispatcher sender, logger *slog.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		limiter:    limiter,
		dispatcher: dispatcher,
		clock:      time.Now,
		location:   time.Local,
		logger:     logger.With("component", "tracker"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track records one activity and notifies the user on the selected channels.
// Rate limiting is a normal outcome, not an error: a denied activity yields
// Success=true with ActivityLogged=false and RateLimited=true.
func (t *Tracker) Track(ctx context.Context, user models.User, kind models.ActivityKind, selector models.ChannelSelector, payload models.ActivityPayload) (result models.ActivityResult) {
	eventID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			t.logger.ErrorContext(ctx, "Activity tracking panicked",
				"event_id", eventID,
				"identity", user.Identity,
				"panic", r,
			)
			result = models.ActivityResult{
				Success: false,
				Error:   fmt.Sprintf("activity tracking failed: %v", r),
				EventID: eventID,
			}
		}
	}()

	if err := user.Validate(); err != nil {
		return models.ActivityResult{Success: false, Error: err.Error(), EventID: eventID}
	}

	decision, err := t.limiter.Check(ctx, user.Identity)
	if err != nil {
		t.logger.ErrorContext(ctx, "Activity rate limit check failed",
			"identity", user.Identity,
			"error", err,
		)
		return models.ActivityResult{
			Success: false,
			Error:   fmt.Sprintf("activity rate limit check: %v", err),
			EventID: eventID,
		}
	}
	if !decision.Allowed {
		t.logger.InfoContext(ctx, "Activity rate limit exceeded",
			"identity", user.Identity,
			"kind", kind.String(),
			"reset_at", decision.ResetAt,
		)
		resetAt := decision.ResetAt
		return models.ActivityResult{
			Success:        true,
			EventID:        eventID,
			ActivityLogged: false,
			RateLimited:    true,
			ResetAt:        &resetAt,
		}
	}

	message := FormatMessage(kind, user.Identity, payload, t.clock().In(t.location))
	t.logger.InfoContext(ctx, "Activity tracked",
		"event_id", eventID,
		"identity", user.Identity,
		"kind", kind.String(),
		"message", message,
	)

	dispatch := t.dispatcher.Send(ctx, user, kind, selector, message)

	return models.ActivityResult{
		Success:          dispatch.Success,
		Error:            dispatch.Error,
		EventID:          eventID,
		ActivityLogged:   true,
		RateLimited:      dispatch.RateLimited,
		Message:          message,
		NotificationSent: dispatch.NotificationSent,
		PerChannel:       dispatch.PerChannel,
	}
}
