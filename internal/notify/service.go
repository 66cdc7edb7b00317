// Package notify implements the activity notification pipeline: the
// activity tracker, the multi-channel dispatcher and the service that wires
// them to rate limiters and the user profile store.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"activitynotifier/internal/channel"
	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"
	"activitynotifier/internal/simulator"
	"activitynotifier/internal/storage"
)

// Service owns the limiters, dispatcher and tracker for one process. It is
// constructed once in main and shared by every caller.
type Service struct {
	limiters   *ratelimit.Set
	dispatcher *Dispatcher
	tracker    *Tracker
	profiles   storage.Storage
	simulator  *simulator.Simulator
	logger     *slog.Logger
}

// NewService wires the pipeline. profiles may be nil, in which case every
// request must carry its own contact info and channel.
func NewService(limiters *ratelimit.Set, senders map[models.Channel]channel.Sender, profiles storage.Storage, channelTimeout time.Duration, logger *slog.Logger, opts ...TrackerOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher := NewDispatcher(senders, limiters.Channels, channelTimeout, logger)
	s := &Service{
		limiters:   limiters,
		dispatcher: dispatcher,
		tracker:    NewTracker(limiters.Activity, dispatcher, logger, opts...),
		profiles:   profiles,
		logger:     logger.With("component", "notification_service"),
	}
	s.simulator = simulator.New(s, logger)
	return s
}

// Track runs the tracker directly with a fully resolved user and selector.
func (s *Service) Track(ctx context.Context, user models.User, kind models.ActivityKind, selector models.ChannelSelector, payload models.ActivityPayload) models.ActivityResult {
	return s.tracker.Track(ctx, user, kind, selector, payload)
}

// Send runs the dispatcher directly.
func (s *Service) Send(ctx context.Context, user models.User, kind models.ActivityKind, selector models.ChannelSelector, message string) models.DispatchResult {
	return s.dispatcher.Send(ctx, user, kind, selector, message)
}

// TrackActivity implements ServiceInterface.
func (s *Service) TrackActivity(ctx context.Context, req *models.TrackActivityRequest) (*models.ActivityResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError("invalid activity request", err)
	}

	user := models.User{Identity: req.Identity, Email: req.Email, Phone: req.Phone}
	selector := models.DefaultPreference

	profile, err := s.lookupProfile(ctx, req.Identity)
	if err != nil {
		return nil, NewInternalError("failed to load user profile", err)
	}
	if profile != nil {
		selector = profile.PreferenceFor(req.Kind)
		if user.Email == "" {
			user.Email = profile.Email
		}
		if user.Phone == "" {
			user.Phone = profile.Phone
		}
	}
	if req.Channel != nil {
		selector = *req.Channel
	}

	result := s.tracker.Track(ctx, user, req.Kind, selector, req.Payload)
	return &result, nil
}

// SendNotification implements ServiceInterface.
func (s *Service) SendNotification(ctx context.Context, req *models.SendNotificationRequest) (*models.DispatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError("invalid notification request", err)
	}
	result := s.dispatcher.Send(ctx, req.User, req.Kind, req.Channel, req.Message)
	return &result, nil
}

// RateLimitStatus implements ServiceInterface. Limiters that have not seen
// the identity report nil.
func (s *Service) RateLimitStatus(ctx context.Context, identity string) (*models.IdentityRateLimits, error) {
	if identity == "" {
		return nil, NewInvalidRequestError("identity is required", models.ErrMissingIdentity)
	}

	out := &models.IdentityRateLimits{Identity: identity}
	targets := []struct {
		limiter ratelimit.Limiter
		dst     **models.RateLimitStatus
	}{
		{s.limiters.Activity, &out.Activity},
		{s.limiters.Channels[models.ChannelEmail], &out.Email},
		{s.limiters.Channels[models.ChannelSMS], &out.SMS},
		{s.limiters.Channels[models.ChannelChat], &out.Chat},
	}
	for _, t := range targets {
		if t.limiter == nil {
			continue
		}
		st, err := t.limiter.Status(ctx, identity)
		if err != nil {
			return nil, NewInternalError("failed to read rate limit status", err)
		}
		if st != nil {
			*t.dst = &models.RateLimitStatus{
				Current:       st.Current,
				Max:           st.Max,
				Remaining:     st.Remaining,
				ResetAt:       st.ResetAt,
				TimeRemaining: st.TimeRemaining,
			}
		}
	}
	return out, nil
}

// ResetRateLimits implements ServiceInterface.
func (s *Service) ResetRateLimits(ctx context.Context, identity string) error {
	if identity == "" {
		return NewInvalidRequestError("identity is required", models.ErrMissingIdentity)
	}

	limiters := []ratelimit.Limiter{s.limiters.Activity}
	for _, ch := range models.Channels {
		limiters = append(limiters, s.limiters.Channels[ch])
	}
	for _, l := range limiters {
		if l == nil {
			continue
		}
		if err := l.Remove(ctx, identity); err != nil {
			return NewInternalError("failed to reset rate limits", err)
		}
	}

	s.logger.InfoContext(ctx, "Rate limits reset", "identity", identity)
	return nil
}

// ActivityLimitMessage implements ServiceInterface.
func (s *Service) ActivityLimitMessage() string {
	return s.limiters.Activity.Config().Message
}

// RegisterUser implements ServiceInterface.
func (s *Service) RegisterUser(ctx context.Context, req *models.RegisterUserRequest) (*models.UserProfile, error) {
	if err := s.requireProfiles(); err != nil {
		return nil, err
	}

	profile := models.NewUserProfile(req.Identity, req.Email, req.Phone)
	if err := profile.Validate(); err != nil {
		return nil, NewValidationError("invalid user", err)
	}

	existing, err := s.lookupProfile(ctx, profile.Identity)
	if err != nil {
		return nil, NewInternalError("failed to check existing user", err)
	}
	if existing != nil {
		return nil, NewConflictError(fmt.Sprintf("user '%s' is already registered", profile.Identity))
	}

	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, NewInternalError("failed to save user", err)
	}

	s.logger.InfoContext(ctx, "User registered", "identity", profile.Identity)
	return profile, nil
}

// GetUser implements ServiceInterface.
func (s *Service) GetUser(ctx context.Context, identity string) (*models.UserProfile, error) {
	if err := s.requireProfiles(); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, identity)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewUserNotFoundError(identity)
		}
		return nil, NewInternalError("failed to load user", err)
	}
	return profile, nil
}

// Users implements ServiceInterface.
func (s *Service) Users(ctx context.Context) ([]*models.UserProfile, error) {
	if err := s.requireProfiles(); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.Profiles(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list users", err)
	}
	return profiles, nil
}

// UpdateContact implements ServiceInterface.
func (s *Service) UpdateContact(ctx context.Context, identity string, req *models.UpdateContactRequest) (*models.UserProfile, error) {
	profile, err := s.GetUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := profile.UpdateContact(req.Email, req.Phone); err != nil {
		return nil, NewValidationError("invalid contact info", err)
	}
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, NewInternalError("failed to save user", err)
	}
	return profile, nil
}

// UpdatePreference implements ServiceInterface.
func (s *Service) UpdatePreference(ctx context.Context, identity string, kind models.ActivityKind, selector models.ChannelSelector) (*models.UserProfile, error) {
	profile, err := s.GetUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := profile.SetPreference(kind, selector); err != nil {
		return nil, NewValidationError("invalid preference", err)
	}
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, NewInternalError("failed to save user", err)
	}
	return profile, nil
}

// DeleteUser implements ServiceInterface.
func (s *Service) DeleteUser(ctx context.Context, identity string) error {
	if err := s.requireProfiles(); err != nil {
		return err
	}
	if err := s.profiles.DeleteProfile(ctx, identity); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewUserNotFoundError(identity)
		}
		return NewInternalError("failed to delete user", err)
	}
	s.logger.InfoContext(ctx, "User deleted", "identity", identity)
	return nil
}

// Simulate implements ServiceInterface.
func (s *Service) Simulate(ctx context.Context, req *models.SimulateRequest) (*models.SimulateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, NewValidationError("invalid simulate request", err)
	}
	events, err := s.simulator.Run(ctx, req.Count)
	if err != nil {
		return nil, NewInternalError("simulation interrupted", err)
	}
	return &models.SimulateResponse{Count: len(events), Results: events}, nil
}

// Ping implements ServiceInterface.
func (s *Service) Ping(ctx context.Context) error {
	if s.profiles == nil {
		return nil
	}
	return s.profiles.Ping(ctx)
}

// lookupProfile returns nil without error when the identity is unknown or
// no profile store is configured.
func (s *Service) lookupProfile(ctx context.Context, identity string) (*models.UserProfile, error) {
	if s.profiles == nil {
		return nil, nil
	}
	profile, err := s.profiles.GetProfile(ctx, identity)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *Service) requireProfiles() error {
	if s.profiles == nil {
		return NewUnavailableError("user profile store is not configured")
	}
	return nil
}
