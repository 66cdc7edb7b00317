package api

import (
	"context"

	"activitynotifier/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockNotificationService implements notify.ServiceInterface for testing
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) TrackActivity(ctx context.Context, req *models.TrackActivityRequest) (*models.ActivityResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActivityResult), args.Error(1)
}

func (m *MockNotificationService) SendNotification(ctx context.Context, req *models.SendNotificationRequest) (*models.DispatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DispatchResult), args.Error(1)
}

func (m *MockNotificationService) RateLimitStatus(ctx context.Context, identity string) (*models.IdentityRateLimits, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IdentityRateLimits), args.Error(1)
}

func (m *MockNotificationService) ResetRateLimits(ctx context.Context, identity string) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockNotificationService) ActivityLimitMessage() string {
	return m.Called().String(0)
}

func (m *MockNotificationService) RegisterUser(ctx context.Context, req *models.RegisterUserRequest) (*models.UserProfile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockNotificationService) GetUser(ctx context.Context, identity string) (*models.UserProfile, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockNotificationService) Users(ctx context.Context) ([]*models.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserProfile), args.Error(1)
}

func (m *MockNotificationService) UpdateContact(ctx context.Context, identity string, req *models.UpdateContactRequest) (*models.UserProfile, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockNotificationService) UpdatePreference(ctx context.Context, identity string, kind models.ActivityKind, selector models.ChannelSelector) (*models.UserProfile, error) {
	args := m.Called(ctx, identity, kind, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockNotificationService) DeleteUser(ctx context.Context, identity string) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockNotificationService) Simulate(ctx context.Context, req *models.SimulateRequest) (*models.SimulateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SimulateResponse), args.Error(1)
}

func (m *MockNotificationService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
