package models

import (
	"time"
)

// OutcomeStatus is the per-channel result of a dispatch attempt.
type OutcomeStatus string

const (
	OutcomeSent             OutcomeStatus = "sent"
	OutcomeSkippedNoContact OutcomeStatus = "skipped_no_contact"
	OutcomeRateLimited      OutcomeStatus = "rate_limited"
	OutcomeSendFailed       OutcomeStatus = "send_failed"
)

// DispatchOutcome records what happened on one channel. ResetAt is set for
// rate-limited outcomes, Error for failed sends.
type DispatchOutcome struct {
	Status  OutcomeStatus `json:"status"`
	ResetAt *time.Time    `json:"reset_at,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Attempted reports whether the channel got past the contact check.
func (o DispatchOutcome) Attempted() bool {
	return o.Status != OutcomeSkippedNoContact
}

func Sent() DispatchOutcome { return DispatchOutcome{Status: OutcomeSent} }

func SkippedNoContact() DispatchOutcome { return DispatchOutcome{Status: OutcomeSkippedNoContact} }

func RateLimited(resetAt time.Time) DispatchOutcome {
	return DispatchOutcome{Status: OutcomeRateLimited, ResetAt: &resetAt}
}

func SendFailed(err error) DispatchOutcome {
	o := DispatchOutcome{Status: OutcomeSendFailed}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// DispatchResult aggregates the outcome of one fan-out.
type DispatchResult struct {
	Success          bool                        `json:"success"`
	Error            string                      `json:"error,omitempty"`
	NotificationSent bool                        `json:"notification_sent"`
	RateLimited      bool                        `json:"rate_limited"`
	PerChannel       map[Channel]DispatchOutcome `json:"per_channel"`
}

// Aggregate derives NotificationSent and RateLimited from PerChannel.
// RateLimited is true only when at least one channel was attempted and every
// attempted channel was rate limited.
func (r *DispatchResult) Aggregate() {
	r.NotificationSent = false
	attempted, limited := 0, 0
	for _, o := range r.PerChannel {
		if o.Status == OutcomeSent {
			r.NotificationSent = true
		}
		if !o.Attempted() {
			continue
		}
		attempted++
		if o.Status == OutcomeRateLimited {
			limited++
		}
	}
	r.RateLimited = attempted > 0 && attempted == limited
}

// ActivityResult is returned by the activity tracker.
type ActivityResult struct {
	Success          bool                        `json:"success"`
	Error            string                      `json:"error,omitempty"`
	EventID          string                      `json:"event_id,omitempty"`
	ActivityLogged   bool                        `json:"activity_logged"`
	RateLimited      bool                        `json:"rate_limited"`
	ResetAt          *time.Time                  `json:"reset_at,omitempty"`
	Message          string                      `json:"message,omitempty"`
	NotificationSent bool                        `json:"notification_sent"`
	PerChannel       map[Channel]DispatchOutcome `json:"per_channel,omitempty"`
}

// RateLimitStatus is a read-only snapshot of one limiter's record for a key.
type RateLimitStatus struct {
	Current       int           `json:"current"`
	Max           int           `json:"max"`
	Remaining     int           `json:"remaining"`
	ResetAt       time.Time     `json:"reset_at"`
	TimeRemaining time.Duration `json:"time_remaining"`
}

// IdentityRateLimits groups the status of every limiter for one identity.
// A nil entry means the limiter has not seen the identity yet.
type IdentityRateLimits struct {
	Identity string           `json:"identity"`
	Activity *RateLimitStatus `json:"activity"`
	Email    *RateLimitStatus `json:"email"`
	SMS      *RateLimitStatus `json:"sms"`
	Chat     *RateLimitStatus `json:"chat"`
}
