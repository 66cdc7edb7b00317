package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"activitynotifier/internal/models"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// This provider is ideal for development, testing, and scenarios where data
// persistence is not required. Data is lost on restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	return &MemoryStorage{
		profiles: make(map[string]*models.UserProfile),
	}, nil
}

// Profiles returns all registered profiles
func (m *MemoryStorage) Profiles(ctx context.Context) ([]*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.UserProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		// Return a copy to prevent external modification
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

// GetProfile retrieves a profile by identity
func (m *MemoryStorage) GetProfile(ctx context.Context, identity string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.profiles[identity]
	if !exists {
		return nil, fmt.Errorf("profile %s: %w", identity, ErrNotFound)
	}
	return p.Clone(), nil
}

// SaveProfile stores or updates a profile
func (m *MemoryStorage) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil || profile.Identity == "" {
		return models.ErrMissingIdentity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[profile.Identity] = profile.Clone()
	return nil
}

// DeleteProfile removes a profile
func (m *MemoryStorage) DeleteProfile(ctx context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[identity]; !exists {
		return fmt.Errorf("profile %s: %w", identity, ErrNotFound)
	}
	delete(m.profiles, identity)
	return nil
}

// Ping verifies the storage backend is reachable and operational.
func (m *MemoryStorage) Ping(_ context.Context) error {
	return nil
}

// Close clears all data
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles = make(map[string]*models.UserProfile)
	return nil
}
