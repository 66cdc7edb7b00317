package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"activitynotifier/internal/models"
)

// JSONStorage implements the Storage interface using a JSON file for persistence.
// It provides an in-memory cache for performance and supports concurrent access.
type JSONStorage struct {
	filePath     string
	cacheTTL     time.Duration
	mu           sync.RWMutex
	data         *JSONData
	lastModified time.Time
	cacheExpiry  time.Time
}

// JSONData represents the structure of data stored in JSON format
type JSONData struct {
	Profiles    []*models.UserProfile `json:"profiles"`
	LastUpdated time.Time             `json:"last_updated"`
}

// NewJSONStorage creates a new JSON-based storage instance
func NewJSONStorage(config Config) (*JSONStorage, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("path is required for JSON storage")
	}

	cacheTTL := 5 * time.Minute
	if config.CacheTTL > 0 {
		cacheTTL = config.CacheTTL
	}

	storage := &JSONStorage{
		filePath: config.Path,
		cacheTTL: cacheTTL,
	}

	// Initialize with empty data if file doesn't exist
	if err := storage.ensureFileExists(); err != nil {
		return nil, fmt.Errorf("failed to ensure file exists: %w", err)
	}

	if err := storage.loadData(); err != nil {
		return nil, fmt.Errorf("failed to load initial data: %w", err)
	}

	return storage, nil
}

// ensureFileExists creates the JSON file with empty data if it doesn't exist
func (j *JSONStorage) ensureFileExists() error {
	if _, err := os.Stat(j.filePath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(j.filePath), 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return j.writeFile(&JSONData{Profiles: []*models.UserProfile{}})
	}
	return nil
}

// loadData loads data from the JSON file with caching.
// It uses double-checked locking: a fast read-lock path for cache hits,
// and a write-lock slow path with re-validation to prevent TOCTOU races.
func (j *JSONStorage) loadData() error {
	j.mu.RLock()
	if j.data != nil && time.Now().Before(j.cacheExpiry) {
		j.mu.RUnlock()
		return nil
	}
	j.mu.RUnlock()

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.reloadLocked()
}

// reloadLocked re-reads the file if the cache expired and the file changed.
// Caller must hold the write lock.
func (j *JSONStorage) reloadLocked() error {
	if j.data != nil && time.Now().Before(j.cacheExpiry) {
		return nil
	}

	info, err := os.Stat(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if j.data != nil && !info.ModTime().After(j.lastModified) {
		j.cacheExpiry = time.Now().Add(j.cacheTTL)
		return nil
	}

	fileData, err := os.ReadFile(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data JSONData
	if err := json.Unmarshal(fileData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	j.data = &data
	j.lastModified = info.ModTime()
	j.cacheExpiry = time.Now().Add(j.cacheTTL)
	return nil
}

// writeFile saves data through a temp file and rename so readers never see
// a partial document.
func (j *JSONStorage) writeFile(data *JSONData) error {
	data.LastUpdated = time.Now().UTC()

	fileData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmp := j.filePath + ".tmp"
	if err := os.WriteFile(tmp, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, j.filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// persistLocked writes the cached data and refreshes the cache markers.
// Caller must hold the write lock.
func (j *JSONStorage) persistLocked() error {
	if err := j.writeFile(j.data); err != nil {
		return err
	}
	if info, err := os.Stat(j.filePath); err == nil {
		j.lastModified = info.ModTime()
	}
	j.cacheExpiry = time.Now().Add(j.cacheTTL)
	return nil
}

// Profiles returns all registered profiles
func (j *JSONStorage) Profiles(ctx context.Context) ([]*models.UserProfile, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]*models.UserProfile, 0, len(j.data.Profiles))
	for _, p := range j.data.Profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Identity < out[b].Identity })
	return out, nil
}

// GetProfile retrieves a profile by identity
func (j *JSONStorage) GetProfile(ctx context.Context, identity string) (*models.UserProfile, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, p := range j.data.Profiles {
		if p.Identity == identity {
			return p.Clone(), nil
		}
	}
	return nil, fmt.Errorf("profile %s: %w", identity, ErrNotFound)
}

// SaveProfile stores or updates a profile
func (j *JSONStorage) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil || profile.Identity == "" {
		return models.ErrMissingIdentity
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.reloadLocked(); err != nil {
		return err
	}

	stored := profile.Clone()
	replaced := false
	for i, p := range j.data.Profiles {
		if p.Identity == profile.Identity {
			j.data.Profiles[i] = stored
			replaced = true
			break
		}
	}
	if !replaced {
		j.data.Profiles = append(j.data.Profiles, stored)
	}

	return j.persistLocked()
}

// DeleteProfile removes a profile
func (j *JSONStorage) DeleteProfile(ctx context.Context, identity string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.reloadLocked(); err != nil {
		return err
	}

	for i, p := range j.data.Profiles {
		if p.Identity == identity {
			j.data.Profiles = append(j.data.Profiles[:i], j.data.Profiles[i+1:]...)
			return j.persistLocked()
		}
	}
	return fmt.Errorf("profile %s: %w", identity, ErrNotFound)
}

// Ping verifies the backing file is still readable.
func (j *JSONStorage) Ping(_ context.Context) error {
	if _, err := os.Stat(j.filePath); err != nil {
		return fmt.Errorf("profile file unavailable: %w", err)
	}
	return nil
}

// Close closes the storage connection and cleans up resources
func (j *JSONStorage) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.data = nil
	j.cacheExpiry = time.Time{}
	return nil
}
