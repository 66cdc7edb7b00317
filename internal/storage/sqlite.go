package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"activitynotifier/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	identity    TEXT PRIMARY KEY,
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	preferences TEXT NOT NULL DEFAULT '{}',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
)`

// SQLiteStorage implements the Storage interface on a single SQLite file
// using the pure-Go modernc driver.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database and creates the schema if needed.
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Profiles returns all registered profiles
func (ss *SQLiteStorage) Profiles(ctx context.Context) ([]*models.UserProfile, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT identity, email, phone, preferences, created_at, updated_at
		 FROM user_profiles ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.UserProfile
	for rows.Next() {
		p, err := scanSQLiteProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	if out == nil {
		out = []*models.UserProfile{}
	}
	return out, nil
}

// GetProfile retrieves a profile by identity
func (ss *SQLiteStorage) GetProfile(ctx context.Context, identity string) (*models.UserProfile, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT identity, email, phone, preferences, created_at, updated_at
		 FROM user_profiles WHERE identity = ?`, identity)

	p, err := scanSQLiteProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", identity, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// SaveProfile stores or updates a profile (upsert)
func (ss *SQLiteStorage) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil || profile.Identity == "" {
		return models.ErrMissingIdentity
	}

	prefs, err := marshalPreferences(profile.Preferences)
	if err != nil {
		return err
	}

	_, err = ss.db.ExecContext(ctx,
		`INSERT INTO user_profiles (identity, email, phone, preferences, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identity) DO UPDATE SET
			email = excluded.email,
			phone = excluded.phone,
			preferences = excluded.preferences,
			updated_at = excluded.updated_at`,
		profile.Identity, profile.Email, profile.Phone, prefs,
		formatTimestamp(profile.CreatedAt), formatTimestamp(profile.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a profile
func (ss *SQLiteStorage) DeleteProfile(ctx context.Context, identity string) error {
	res, err := ss.db.ExecContext(ctx, `DELETE FROM user_profiles WHERE identity = ?`, identity)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("profile %s: %w", identity, ErrNotFound)
	}
	return nil
}

// Ping verifies the database connection
func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProfile(row rowScanner) (*models.UserProfile, error) {
	var (
		p                    models.UserProfile
		prefs                string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.Identity, &p.Email, &p.Phone, &prefs, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	var err error
	if p.Preferences, err = unmarshalPreferences(prefs); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
