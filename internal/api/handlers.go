package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"activitynotifier/internal/models"
	"activitynotifier/internal/notify"
	"activitynotifier/internal/version"

	"github.com/gorilla/mux"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP handlers for the notifier API
type Handlers struct {
	service   notify.ServiceInterface
	version   version.Info
	startedAt time.Time
}

// HandlersOption configures optional dependencies for Handlers.
type HandlersOption func(*Handlers)

// WithVersion sets the build info reported by the health check.
func WithVersion(info version.Info) HandlersOption {
	return func(h *Handlers) {
		h.version = info
	}
}

// NewHandlers creates a new handlers instance
func NewHandlers(service notify.ServiceInterface, opts ...HandlersOption) *Handlers {
	h := &Handlers{
		service:   service,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// TrackActivity handles activity tracking requests
// POST /api/v1/activities
//
// A denied activity is reported as 429 with Retry-After and the tracker's
// result in the error details, so clients can tell it from a failed request.
func (h *Handlers) TrackActivity(w http.ResponseWriter, r *http.Request) {
	var req models.TrackActivityRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.TrackActivity(r.Context(), &req)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	if result.RateLimited && !result.ActivityLogged {
		h.writeActivityLimited(w, result)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

func (h *Handlers) writeActivityLimited(w http.ResponseWriter, result *models.ActivityResult) {
	errorResp := models.NewErrorResponse(h.service.ActivityLimitMessage(), models.ErrorCodeRateLimitExceeded)
	errorResp.Details = map[string]string{"event_id": result.EventID}

	if result.ResetAt != nil {
		errorResp.Details["reset_at"] = result.ResetAt.UTC().Format(time.RFC3339)
		secs := int(time.Until(*result.ResetAt).Seconds()) + 1
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	h.writeJSONResponse(w, http.StatusTooManyRequests, errorResp)
}

// SendNotification handles raw dispatch requests
// POST /api/v1/notifications
func (h *Handlers) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req models.SendNotificationRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.SendNotification(r.Context(), &req)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// RateLimitStatus handles limiter status requests
// GET /api/v1/ratelimits/{identity}
func (h *Handlers) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	identity := mux.Vars(r)["identity"]

	status, err := h.service.RateLimitStatus(r.Context(), identity)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, status)
}

// ResetRateLimits handles limiter reset requests
// DELETE /api/v1/ratelimits/{identity}
func (h *Handlers) ResetRateLimits(w http.ResponseWriter, r *http.Request) {
	identity := mux.Vars(r)["identity"]

	if err := h.service.ResetRateLimits(r.Context(), identity); err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	slog.Info("Rate limits reset via API",
		"identity", identity,
		"client_ip", clientIP(r))

	h.writeJSONResponse(w, http.StatusOK, &models.ResetRateLimitsResponse{
		Identity: identity,
		Message:  "Rate limits reset",
	})
}

// Simulate handles synthetic activity requests
// POST /api/v1/simulate
func (h *Handlers) Simulate(w http.ResponseWriter, r *http.Request) {
	var req models.SimulateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Simulate(r.Context(), &req)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = h.version.Version
	response.Uptime = time.Since(h.startedAt).Round(time.Second).String()

	status := http.StatusOK
	if err := h.service.Ping(r.Context()); err != nil {
		response.Status = models.StatusDegraded
		response.AddComponent("storage", models.StatusUnhealthy, err.Error())
		status = http.StatusServiceUnavailable
	} else {
		response.AddComponent("storage", models.StatusHealthy, "Storage is operational")
	}
	response.AddComponent("api", models.StatusHealthy, "API is operational")

	h.writeJSONResponse(w, status, response)
}

// decodeJSON reports false after writing the error response.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		h.writeErrorResponse(w, http.StatusUnsupportedMediaType, models.ErrorCodeBadRequest, "Content-Type must be application/json")
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeErrorResponse(w, http.StatusRequestEntityTooLarge, models.ErrorCodeBadRequest, "Request body too large")
			return false
		}
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = w.Header().Get(requestIDHeader)
	h.writeJSONResponse(w, statusCode, errorResp)
}

// writeServiceErrorResponse maps a ServiceError to its status and code.
// Anything else is reported as an internal error without its message.
func (h *Handlers) writeServiceErrorResponse(w http.ResponseWriter, err error) {
	var serviceErr *notify.ServiceError
	if errors.As(err, &serviceErr) {
		message := serviceErr.Message
		if serviceErr.StatusCode < http.StatusInternalServerError && serviceErr.Err != nil {
			message = serviceErr.Error()
		}
		if serviceErr.StatusCode >= http.StatusInternalServerError {
			slog.Error("Service error", "code", serviceErr.Code, "error", err)
		}
		h.writeErrorResponse(w, serviceErr.StatusCode, serviceErr.Code, message)
		return
	}

	slog.Error("Unexpected service error", "error", err)
	h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
}
