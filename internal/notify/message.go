package notify

import (
	"fmt"
	"time"

	"activitynotifier/internal/models"
)

// TimestampLayout renders local date-times in messages, e.g. "3/1/2024, 2:05:09 PM".
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// ActivityName is the human-readable name used in notification subjects.
func ActivityName(kind models.ActivityKind) string {
	switch kind {
	case models.ActivityLogin:
		return "Login"
	case models.ActivityLogout:
		return "Logout"
	case models.ActivitySearch:
		return "Search"
	case models.ActivityCreate:
		return "Content Creation"
	case models.ActivityUpdate:
		return "Content Update"
	case models.ActivityDelete:
		return "Content Deletion"
	case models.ActivityLike:
		return "Content Like"
	case models.ActivityUnlike:
		return "Content Unlike"
	default:
		return "Activity"
	}
}

// Subject builds the notification subject line for the kind.
func Subject(kind models.ActivityKind) string {
	return fmt.Sprintf("UGC Tracker: %s Notification", ActivityName(kind))
}

// FormatMessage renders the notification body for an activity at ts.
func FormatMessage(kind models.ActivityKind, identity string, payload models.ActivityPayload, ts time.Time) string {
	at := ts.Format(TimestampLayout)

	switch kind {
	case models.ActivityLogin:
		return fmt.Sprintf("Login detected for account %s at %s", ShortIdentity(identity), at)
	case models.ActivityLogout:
		return fmt.Sprintf("Logout detected for account %s at %s", ShortIdentity(identity), at)
	case models.ActivitySearch:
		return fmt.Sprintf("Search performed with query: \"%s\" at %s", payload.Query, at)
	case models.ActivityCreate:
		return contentMessage("created", payload.ContentID, at)
	case models.ActivityUpdate:
		return contentMessage("updated", payload.ContentID, at)
	case models.ActivityDelete:
		return contentMessage("deleted", payload.ContentID, at)
	case models.ActivityLike:
		return contentMessage("liked", payload.ContentID, at)
	case models.ActivityUnlike:
		return contentMessage("unliked", payload.ContentID, at)
	default:
		return fmt.Sprintf("Activity detected for account %s at %s", identity, at)
	}
}

func contentMessage(verb, contentID, at string) string {
	return fmt.Sprintf("Content %s with ID: %s at %s", verb, contentID, at)
}

// ShortIdentity abbreviates an identity to its first six and last four
// characters. Identities shorter than ten characters are returned whole.
func ShortIdentity(identity string) string {
	r := []rune(identity)
	if len(r) < 10 {
		return identity
	}
	return string(r[:6]) + "..." + string(r[len(r)-4:])
}
