package storage

import (
	"context"
	"time"

	"activitynotifier/internal/models"
)

// Storage defines the interface for user profile persistence and retrieval.
// A profile holds a user's contact information and per-activity channel
// preferences. Implementations exist for JSON files, memory, SQLite and
// PostgreSQL.
type Storage interface {
	// Profiles returns all registered profiles ordered by identity
	Profiles(ctx context.Context) ([]*models.UserProfile, error)

	// GetProfile retrieves a profile by identity. Returns ErrNotFound if absent.
	GetProfile(ctx context.Context, identity string) (*models.UserProfile, error)

	// SaveProfile stores or updates a profile
	SaveProfile(ctx context.Context, profile *models.UserProfile) error

	// DeleteProfile removes a profile. Returns ErrNotFound if absent.
	DeleteProfile(ctx context.Context, identity string) error

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (json, memory, postgres, sqlite)
	Type string `json:"type" yaml:"type"`

	// Path is used for file-based storage backends
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	// CacheTTL specifies how long to cache file contents in memory
	CacheTTL time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`

	// Pool settings for database backends
	MaxOpenConns    int           `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`
}
