package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// UserProfile is a registered user's contact information and per-activity
// channel preferences.
//
// Preference Model:
// - Every activity kind maps to one ChannelSelector
// - Kinds without an explicit entry fall back to DefaultPreference
// - Contact fields are optional; a channel whose contact field is empty is
//   skipped at dispatch time rather than rejected at registration
type UserProfile struct {
	Identity    string                           `json:"identity"`
	Email       string                           `json:"email,omitempty"`
	Phone       string                           `json:"phone,omitempty"`
	Preferences map[ActivityKind]ChannelSelector `json:"preferences"`
	CreatedAt   time.Time                        `json:"created_at"`
	UpdatedAt   time.Time                        `json:"updated_at"`
}

// DefaultPreference is the selector used for kinds with no stored preference.
const DefaultPreference = SelectEmail

// NewUserProfile creates a profile with the default preference for every kind.
func NewUserProfile(identity, email, phone string) *UserProfile {
	now := time.Now().UTC()
	prefs := make(map[ActivityKind]ChannelSelector, len(ActivityKinds))
	for _, k := range ActivityKinds {
		prefs[k] = DefaultPreference
	}
	return &UserProfile{
		Identity:    strings.TrimSpace(identity),
		Email:       strings.TrimSpace(email),
		Phone:       strings.TrimSpace(phone),
		Preferences: prefs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks identity presence and contact field format.
func (p *UserProfile) Validate() error {
	if strings.TrimSpace(p.Identity) == "" {
		return ErrMissingIdentity
	}
	return validateContact(p.Email, p.Phone)
}

// PreferenceFor returns the stored selector for the kind, or DefaultPreference.
func (p *UserProfile) PreferenceFor(kind ActivityKind) ChannelSelector {
	if sel, ok := p.Preferences[kind]; ok {
		return sel
	}
	return DefaultPreference
}

// SetPreference stores the selector for the kind.
func (p *UserProfile) SetPreference(kind ActivityKind, sel ChannelSelector) error {
	if !kind.Valid() {
		return ErrUnknownActivityKind
	}
	if !sel.Valid() {
		return ErrUnknownChannel
	}
	if p.Preferences == nil {
		p.Preferences = make(map[ActivityKind]ChannelSelector)
	}
	p.Preferences[kind] = sel
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateContact replaces both contact fields.
func (p *UserProfile) UpdateContact(email, phone string) error {
	email, phone = strings.TrimSpace(email), strings.TrimSpace(phone)
	if err := validateContact(email, phone); err != nil {
		return err
	}
	p.Email = email
	p.Phone = phone
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// User returns the dispatch view of the profile.
func (p *UserProfile) User() User {
	return User{Identity: p.Identity, Email: p.Email, Phone: p.Phone}
}

// Clone returns a deep copy.
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.Preferences = make(map[ActivityKind]ChannelSelector, len(p.Preferences))
	for k, v := range p.Preferences {
		c.Preferences[k] = v
	}
	return &c
}

func validateContact(email, phone string) error {
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return errors.New("invalid email address")
		}
	}
	if phone != "" && !isPhoneNumber(phone) {
		return errors.New("invalid phone number")
	}
	return nil
}

// isPhoneNumber accepts an optional leading '+' followed by 6 to 15 digits,
// ignoring spaces and dashes.
func isPhoneNumber(s string) bool {
	s = strings.TrimPrefix(s, "+")
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return digits >= 6 && digits <= 15
}
