// Package models - Activity, channel and user types shared by the notification pipeline.
// This file defines the closed enumerations (activity kinds, channels, channel
// selectors) and the per-call user and payload values.
//
// Enumeration Design:
// - Numeric codes match the on-chain preference contract (Login=0 ... Unlike=7,
//   None=0 ... All=4) so stored preferences keep their meaning
// - Text form (login, email, all, ...) is used on the wire and in config files
// - Parsing accepts either form; marshalling always emits the text form
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownActivityKind is returned when an activity kind cannot be parsed.
	ErrUnknownActivityKind = errors.New("unknown activity kind")

	// ErrUnknownChannel is returned when a channel or channel selector cannot be parsed.
	ErrUnknownChannel = errors.New("unknown notification channel")

	// ErrMissingIdentity is returned when a user has no identity.
	ErrMissingIdentity = errors.New("user identity is required")
)

// ActivityKind classifies a trackable user action.
type ActivityKind int

const (
	ActivityLogin ActivityKind = iota
	ActivityLogout
	ActivitySearch
	ActivityCreate
	ActivityUpdate
	ActivityDelete
	ActivityLike
	ActivityUnlike
)

// ActivityKinds lists every activity kind in code order.
var ActivityKinds = []ActivityKind{
	ActivityLogin,
	ActivityLogout,
	ActivitySearch,
	ActivityCreate,
	ActivityUpdate,
	ActivityDelete,
	ActivityLike,
	ActivityUnlike,
}

var activityKindNames = map[ActivityKind]string{
	ActivityLogin:  "login",
	ActivityLogout: "logout",
	ActivitySearch: "search",
	ActivityCreate: "create",
	ActivityUpdate: "update",
	ActivityDelete: "delete",
	ActivityLike:   "like",
	ActivityUnlike: "unlike",
}

// Valid reports whether k is one of the known activity kinds.
func (k ActivityKind) Valid() bool {
	_, ok := activityKindNames[k]
	return ok
}

func (k ActivityKind) String() string {
	if name, ok := activityKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("activity(%d)", int(k))
}

// NeedsContentID reports whether the kind refers to a piece of content.
func (k ActivityKind) NeedsContentID() bool {
	switch k {
	case ActivityCreate, ActivityUpdate, ActivityDelete, ActivityLike, ActivityUnlike:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ActivityKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownActivityKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ActivityKind) UnmarshalText(text []byte) error {
	parsed, err := ParseActivityKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseActivityKind accepts either the name ("like") or the numeric code ("6").
func ParseActivityKind(s string) (ActivityKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		k := ActivityKind(n)
		if k.Valid() {
			return k, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownActivityKind, s)
	}
	for k, name := range activityKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownActivityKind, s)
}

// Channel is a single notification transport.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelChat  Channel = "chat"
)

// Channels lists every concrete channel in dispatch order.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelChat}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelChat:
		return true
	default:
		return false
	}
}

// ChannelSelector is the caller's requested set of channels.
type ChannelSelector int

const (
	SelectNone ChannelSelector = iota
	SelectEmail
	SelectSMS
	SelectChat
	SelectAll
)

var selectorNames = map[ChannelSelector]string{
	SelectNone:  "none",
	SelectEmail: "email",
	SelectSMS:   "sms",
	SelectChat:  "chat",
	SelectAll:   "all",
}

// selectorChannels is the fixed expansion table for every selector.
var selectorChannels = map[ChannelSelector][]Channel{
	SelectNone:  {},
	SelectEmail: {ChannelEmail},
	SelectSMS:   {ChannelSMS},
	SelectChat:  {ChannelChat},
	SelectAll:   {ChannelEmail, ChannelSMS, ChannelChat},
}

// Valid reports whether s is a known selector.
func (s ChannelSelector) Valid() bool {
	_, ok := selectorNames[s]
	return ok
}

func (s ChannelSelector) String() string {
	if name, ok := selectorNames[s]; ok {
		return name
	}
	return fmt.Sprintf("selector(%d)", int(s))
}

// Expand returns a fresh copy of the concrete channels named by the selector.
// Unknown selectors expand to nothing.
func (s ChannelSelector) Expand() []Channel {
	channels := selectorChannels[s]
	out := make([]Channel, len(channels))
	copy(out, channels)
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (s ChannelSelector) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ChannelSelector) UnmarshalText(text []byte) error {
	parsed, err := ParseChannelSelector(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseChannelSelector accepts a name ("sms"), a legacy alias ("whatsapp")
// or the numeric code ("2").
func ParseChannelSelector(s string) (ChannelSelector, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		sel := ChannelSelector(n)
		if sel.Valid() {
			return sel, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownChannel, s)
	}
	if s == "whatsapp" {
		return SelectChat, nil
	}
	for sel, name := range selectorNames {
		if name == s {
			return sel, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// User is the caller-supplied recipient of a notification. It is not stored
// by the pipeline itself.
type User struct {
	Identity string `json:"identity"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Validate checks that the user carries an identity.
func (u User) Validate() error {
	if strings.TrimSpace(u.Identity) == "" {
		return ErrMissingIdentity
	}
	return nil
}

// ContactFor returns the destination for the given channel, or "" when the
// user has no contact field for it.
func (u User) ContactFor(c Channel) string {
	switch c {
	case ChannelEmail:
		return strings.TrimSpace(u.Email)
	case ChannelSMS, ChannelChat:
		return strings.TrimSpace(u.Phone)
	default:
		return ""
	}
}

// ActivityPayload carries the kind-dependent fields of an activity event.
type ActivityPayload struct {
	Query     string `json:"query,omitempty"`
	ContentID string `json:"content_id,omitempty"`
}

// ActivityEvent is a single trackable action.
type ActivityEvent struct {
	Kind    ActivityKind    `json:"kind"`
	Payload ActivityPayload `json:"payload"`
}
