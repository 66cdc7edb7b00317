package storage

import (
	"encoding/json"
	"fmt"

	"activitynotifier/internal/models"
)

// marshalPreferences converts a preference map to a JSON string keyed by
// activity name, e.g. {"login":"email","search":"none"}.
func marshalPreferences(prefs map[models.ActivityKind]models.ChannelSelector) (string, error) {
	if prefs == nil {
		prefs = map[models.ActivityKind]models.ChannelSelector{}
	}
	b, err := json.Marshal(prefs)
	if err != nil {
		return "", fmt.Errorf("marshal preferences: %w", err)
	}
	return string(b), nil
}

// unmarshalPreferences parses a JSON string into a preference map. Kinds
// missing from the stored document get the default preference.
func unmarshalPreferences(data string) (map[models.ActivityKind]models.ChannelSelector, error) {
	prefs := make(map[models.ActivityKind]models.ChannelSelector, len(models.ActivityKinds))
	if data != "" {
		if err := json.Unmarshal([]byte(data), &prefs); err != nil {
			return nil, fmt.Errorf("unmarshal preferences: %w", err)
		}
	}
	for _, k := range models.ActivityKinds {
		if _, ok := prefs[k]; !ok {
			prefs[k] = models.DefaultPreference
		}
	}
	return prefs, nil
}
