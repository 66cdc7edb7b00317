package api

import (
	"net/http"

	"activitynotifier/internal/models"
	"activitynotifier/internal/ratelimit"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

func isHealthPath(path string) bool {
	return path == "/health" || path == "/api/v1/health"
}

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return !isHealthPath(r.URL.Path)
			}),
		))
	}
}

// WithRateLimiter throttles every route except the health checks.
func WithRateLimiter(limiter ratelimit.RequestLimiter) RouteOption {
	return func(r *mux.Router) {
		r.Use(ratelimit.Middleware(limiter, "/health", "/api/v1/health"))
	}
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	// Outermost first: request IDs must exist before logging and recovery.
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	for _, opt := range opts {
		opt(router)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/activities", handlers.TrackActivity).Methods("POST")
	api.HandleFunc("/notifications", handlers.SendNotification).Methods("POST")

	api.HandleFunc("/ratelimits/{identity}", handlers.RateLimitStatus).Methods("GET")
	api.HandleFunc("/ratelimits/{identity}", handlers.ResetRateLimits).Methods("DELETE")

	api.HandleFunc("/users", handlers.RegisterUser).Methods("POST")
	api.HandleFunc("/users", handlers.ListUsers).Methods("GET")
	api.HandleFunc("/users/{identity}", handlers.GetUser).Methods("GET")
	api.HandleFunc("/users/{identity}", handlers.DeleteUser).Methods("DELETE")
	api.HandleFunc("/users/{identity}/contact", handlers.UpdateContact).Methods("PUT")
	api.HandleFunc("/users/{identity}/preferences/{kind}", handlers.UpdatePreference).Methods("PUT")

	api.HandleFunc("/simulate", handlers.Simulate).Methods("POST")

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	// Preflight requests for any API path; the CORS middleware answers
	// them when enabled. A MatcherFunc keeps other methods on unknown paths
	// reporting 404 instead of 405.
	api.PathPrefix("").MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return r.Method == http.MethodOptions
	}).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.writeErrorResponse(w, http.StatusMethodNotAllowed, models.ErrorCodeInvalidRequest, "Method not allowed")
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.writeErrorResponse(w, http.StatusNotFound, models.ErrorCodeNotFound, "Not found")
	})

	return router
}
