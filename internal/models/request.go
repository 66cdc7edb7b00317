// Package models - API request types and input validation.
// This file defines incoming API request structures with their validation.
//
// Validation Philosophy:
// - Fail fast with clear error messages for invalid input
// - Normalize input data for consistent processing (trimmed strings)
// - Kind-dependent payload rules are checked here so the pipeline never
//   formats a message from an incomplete payload
package models

import (
	"errors"
	"fmt"
	"strings"
)

// MaxSimulateCount bounds a single simulate request.
const MaxSimulateCount = 100

// TrackActivityRequest asks the service to track one activity.
//
// Channel Resolution:
// - Channel set: used as given
// - Channel omitted, identity registered: stored preference for the kind
// - Channel omitted, identity unknown: DefaultPreference
// Contact fields in the request override stored contact fields.
type TrackActivityRequest struct {
	Identity string           `json:"identity"`
	Email    string           `json:"email,omitempty"`
	Phone    string           `json:"phone,omitempty"`
	Kind     ActivityKind     `json:"kind"`
	Channel  *ChannelSelector `json:"channel,omitempty"`
	Payload  ActivityPayload  `json:"payload"`
}

func (r *TrackActivityRequest) Normalize() {
	r.Identity = strings.TrimSpace(r.Identity)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Payload.Query = strings.TrimSpace(r.Payload.Query)
	r.Payload.ContentID = strings.TrimSpace(r.Payload.ContentID)
}

func (r *TrackActivityRequest) Validate() error {
	if r.Identity == "" {
		return ErrMissingIdentity
	}
	if !r.Kind.Valid() {
		return ErrUnknownActivityKind
	}
	if r.Channel != nil && !r.Channel.Valid() {
		return ErrUnknownChannel
	}
	return ValidatePayload(r.Kind, r.Payload)
}

// ValidatePayload checks the kind-dependent payload fields.
func ValidatePayload(kind ActivityKind, p ActivityPayload) error {
	switch {
	case kind == ActivitySearch && p.Query == "":
		return errors.New("query is required for search activities")
	case kind.NeedsContentID() && p.ContentID == "":
		return fmt.Errorf("content_id is required for %s activities", kind)
	}
	return nil
}

// SendNotificationRequest dispatches a caller-supplied message directly.
type SendNotificationRequest struct {
	User    User            `json:"user"`
	Kind    ActivityKind    `json:"kind"`
	Channel ChannelSelector `json:"channel"`
	Message string          `json:"message"`
}

func (r *SendNotificationRequest) Validate() error {
	if err := r.User.Validate(); err != nil {
		return err
	}
	if !r.Kind.Valid() {
		return ErrUnknownActivityKind
	}
	if !r.Channel.Valid() {
		return ErrUnknownChannel
	}
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

type RegisterUserRequest struct {
	Identity string `json:"identity"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type UpdateContactRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type UpdatePreferenceRequest struct {
	Channel ChannelSelector `json:"channel"`
}

type SimulateRequest struct {
	Count int `json:"count"`
}

func (r *SimulateRequest) Validate() error {
	if r.Count <= 0 || r.Count > MaxSimulateCount {
		return fmt.Errorf("count must be between 1 and %d", MaxSimulateCount)
	}
	return nil
}
