package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSetupRoutes_Unmatched(t *testing.T) {
	router := newTestRouter(t, &MockNotificationService{})

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{"unknown path", "GET", "/api/v1/nope", http.StatusNotFound, models.ErrorCodeNotFound},
		{"wrong method", "PATCH", "/api/v1/activities", http.StatusMethodNotAllowed, models.ErrorCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, tt.method, tt.path, "")

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestSetupRoutes_Preflight(t *testing.T) {
	router := newTestRouter(t, &MockNotificationService{})
	req := httptest.NewRequest("OPTIONS", "/api/v1/users/0xabc/contact", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRoutes_CORSDisabled(t *testing.T) {
	svc := &MockNotificationService{}
	svc.On("Ping", mock.Anything).Return(nil)
	config := models.NewDefaultConfig()
	config.Server.CORS.Enabled = false
	router := SetupRoutes(NewHandlers(svc), config)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWithRateLimiter(t *testing.T) {
	svc := &MockNotificationService{}
	svc.On("Ping", mock.Anything).Return(nil)
	svc.On("Users", mock.Anything).Return([]*models.UserProfile{}, nil)

	limiter := ratelimit.NewTokenBucketLimiter(60, 1, time.Minute)
	t.Cleanup(limiter.Close)
	router := SetupRoutes(NewHandlers(svc), models.NewDefaultConfig(), WithRateLimiter(limiter))

	rec := doJSON(t, router, "GET", "/api/v1/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))

	rec = doJSON(t, router, "GET", "/api/v1/users", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Health checks bypass the limiter.
	for i := 0; i < 3; i++ {
		rec = doJSON(t, router, "GET", "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestWithOTelMiddleware(t *testing.T) {
	svc := &MockNotificationService{}
	svc.On("Ping", mock.Anything).Return(nil)
	svc.On("Users", mock.Anything).Return([]*models.UserProfile{}, nil)
	router := SetupRoutes(NewHandlers(svc), models.NewDefaultConfig(), WithOTelMiddleware("activity-notifier-test"))

	assert.Equal(t, http.StatusOK, doJSON(t, router, "GET", "/api/v1/users", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(t, router, "GET", "/health", "").Code)
}
