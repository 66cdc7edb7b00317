package notify

import (
	"context"

	"activitynotifier/internal/models"
)

// ServiceInterface defines the notification service operations used by the API
type ServiceInterface interface {
	// TrackActivity resolves channel and contact info for the request and tracks the activity
	TrackActivity(ctx context.Context, req *models.TrackActivityRequest) (*models.ActivityResult, error)

	// SendNotification dispatches a caller-supplied message without the activity limit
	SendNotification(ctx context.Context, req *models.SendNotificationRequest) (*models.DispatchResult, error)

	// RateLimitStatus reports every limiter's window for an identity
	RateLimitStatus(ctx context.Context, identity string) (*models.IdentityRateLimits, error)

	// ResetRateLimits clears every limiter's window for an identity
	ResetRateLimits(ctx context.Context, identity string) error

	// ActivityLimitMessage is the denial text returned when the activity limit is exceeded
	ActivityLimitMessage() string

	// RegisterUser creates a profile with default preferences
	RegisterUser(ctx context.Context, req *models.RegisterUserRequest) (*models.UserProfile, error)

	// GetUser returns a registered profile
	GetUser(ctx context.Context, identity string) (*models.UserProfile, error)

	// Users returns all registered profiles
	Users(ctx context.Context) ([]*models.UserProfile, error)

	// UpdateContact replaces a profile's contact fields
	UpdateContact(ctx context.Context, identity string, req *models.UpdateContactRequest) (*models.UserProfile, error)

	// UpdatePreference sets the channel selector for one activity kind
	UpdatePreference(ctx context.Context, identity string, kind models.ActivityKind, selector models.ChannelSelector) (*models.UserProfile, error)

	// DeleteUser removes a profile
	DeleteUser(ctx context.Context, identity string) error

	// Simulate tracks randomly generated activities for the mock users
	Simulate(ctx context.Context, req *models.SimulateRequest) (*models.SimulateResponse, error)

	// Ping checks the profile store
	Ping(ctx context.Context) error
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
