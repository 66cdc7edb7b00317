package api

import (
	"log/slog"
	"net/http"

	"activitynotifier/internal/models"
	"activitynotifier/internal/notify"

	"github.com/gorilla/mux"
)

// RegisterUser handles profile registration
// POST /api/v1/users
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.RegisterUser(r.Context(), &req)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	slog.Info("User registered via API",
		"identity", profile.Identity,
		"client_ip", clientIP(r))

	h.writeJSONResponse(w, http.StatusCreated, profile)
}

// ListUsers handles profile listing
// GET /api/v1/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.Users(r.Context())
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}
	if profiles == nil {
		profiles = []*models.UserProfile{}
	}

	h.writeJSONResponse(w, http.StatusOK, profiles)
}

// GetUser handles profile retrieval
// GET /api/v1/users/{identity}
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetUser(r.Context(), mux.Vars(r)["identity"])
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, profile)
}

// UpdateContact handles contact info replacement
// PUT /api/v1/users/{identity}/contact
func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateContactRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.UpdateContact(r.Context(), mux.Vars(r)["identity"], &req)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, profile)
}

// UpdatePreference handles per-activity channel preference changes
// PUT /api/v1/users/{identity}/preferences/{kind}
func (h *Handlers) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, err := models.ParseActivityKind(vars["kind"])
	if err != nil {
		h.writeServiceErrorResponse(w, notify.NewInvalidRequestError("invalid activity kind", err))
		return
	}

	var req models.UpdatePreferenceRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.UpdatePreference(r.Context(), vars["identity"], kind, req.Channel)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, profile)
}

// DeleteUser handles profile removal
// DELETE /api/v1/users/{identity}
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity := mux.Vars(r)["identity"]

	if err := h.service.DeleteUser(r.Context(), identity); err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	slog.Info("User deleted via API",
		"identity", identity,
		"client_ip", clientIP(r))

	h.writeJSONResponse(w, http.StatusOK, &models.DeleteUserResponse{
		Identity: identity,
		Message:  "User deleted",
	})
}
