package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"activitynotifier/internal/models"
)

// runStorageContract exercises the behavior every backend must share.
func runStorageContract(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.GetProfile(ctx, "0xmissing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		p := models.NewUserProfile("0x1234567890123456789012345678901234567890", "user1@example.com", "+1234567890")
		if err := p.SetPreference(models.ActivityLike, models.SelectAll); err != nil {
			t.Fatalf("SetPreference: %v", err)
		}
		if err := s.SaveProfile(ctx, p); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}

		got, err := s.GetProfile(ctx, p.Identity)
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if got.Email != "user1@example.com" || got.Phone != "+1234567890" {
			t.Errorf("unexpected contact: %+v", got)
		}
		if got.PreferenceFor(models.ActivityLike) != models.SelectAll {
			t.Errorf("expected like preference all, got %s", got.PreferenceFor(models.ActivityLike))
		}
		if got.PreferenceFor(models.ActivityLogin) != models.DefaultPreference {
			t.Errorf("expected default login preference, got %s", got.PreferenceFor(models.ActivityLogin))
		}
		if got.CreatedAt.Sub(p.CreatedAt).Abs() > time.Millisecond {
			t.Errorf("created_at mismatch: %v vs %v", got.CreatedAt, p.CreatedAt)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		p, err := s.GetProfile(ctx, "0x1234567890123456789012345678901234567890")
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if err := p.UpdateContact("new@example.com", ""); err != nil {
			t.Fatalf("UpdateContact: %v", err)
		}
		if err := s.SaveProfile(ctx, p); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}

		got, err := s.GetProfile(ctx, p.Identity)
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if got.Email != "new@example.com" || got.Phone != "" {
			t.Errorf("upsert did not replace contact: %+v", got)
		}
	})

	t.Run("ReturnedProfilesAreCopies", func(t *testing.T) {
		p, err := s.GetProfile(ctx, "0x1234567890123456789012345678901234567890")
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		p.Preferences[models.ActivityLike] = models.SelectNone

		again, _ := s.GetProfile(ctx, p.Identity)
		if again.PreferenceFor(models.ActivityLike) != models.SelectAll {
			t.Error("mutating a returned profile changed the stored one")
		}
	})

	t.Run("List", func(t *testing.T) {
		other := models.NewUserProfile("0x0987654321098765432109876543210987654321", "user2@example.com", "")
		if err := s.SaveProfile(ctx, other); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}

		all, err := s.Profiles(ctx)
		if err != nil {
			t.Fatalf("Profiles: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 profiles, got %d", len(all))
		}
		if all[0].Identity > all[1].Identity {
			t.Error("profiles should be ordered by identity")
		}
	})

	t.Run("SaveWithoutIdentity", func(t *testing.T) {
		if err := s.SaveProfile(ctx, &models.UserProfile{}); err == nil {
			t.Error("expected error for profile without identity")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		id := "0x0987654321098765432109876543210987654321"
		if err := s.DeleteProfile(ctx, id); err != nil {
			t.Fatalf("DeleteProfile: %v", err)
		}
		if _, err := s.GetProfile(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.DeleteProfile(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}
