package storage

import (
	"testing"

	"activitynotifier/internal/models"
)

func TestPreferencesRoundTrip(t *testing.T) {
	prefs := map[models.ActivityKind]models.ChannelSelector{
		models.ActivityLogin:  models.SelectSMS,
		models.ActivitySearch: models.SelectNone,
	}

	data, err := marshalPreferences(prefs)
	if err != nil {
		t.Fatalf("marshalPreferences: %v", err)
	}
	if data != `{"login":"sms","search":"none"}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	got, err := unmarshalPreferences(data)
	if err != nil {
		t.Fatalf("unmarshalPreferences: %v", err)
	}
	if got[models.ActivityLogin] != models.SelectSMS {
		t.Errorf("login: got %s", got[models.ActivityLogin])
	}
	if got[models.ActivityLike] != models.DefaultPreference {
		t.Errorf("missing kinds should get the default, got %s", got[models.ActivityLike])
	}
	if len(got) != len(models.ActivityKinds) {
		t.Errorf("expected every kind present, got %d", len(got))
	}
}

func TestUnmarshalPreferencesAcceptsCodes(t *testing.T) {
	got, err := unmarshalPreferences(`{"6":"4"}`)
	if err != nil {
		t.Fatalf("unmarshalPreferences: %v", err)
	}
	if got[models.ActivityLike] != models.SelectAll {
		t.Errorf("expected like=all, got %s", got[models.ActivityLike])
	}
}

func TestUnmarshalPreferencesInvalid(t *testing.T) {
	if _, err := unmarshalPreferences(`{"login":"pigeon"}`); err == nil {
		t.Error("expected error for unknown selector")
	}
	if _, err := unmarshalPreferences(`not json`); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
