package storage

import (
	"context"
	"errors"
	"fmt"

	"activitynotifier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	identity    TEXT PRIMARY KEY,
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

// PostgresStorage implements the Storage interface using PostgreSQL through a pgx pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a new PostgreSQL storage instance and ensures the schema exists.
func NewPostgresStorage(config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	poolCfg, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(min(config.MaxIdleConns, int(poolCfg.MaxConns)))
	}
	if config.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = config.ConnMaxLifetime
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// Profiles returns all registered profiles.
func (ps *PostgresStorage) Profiles(ctx context.Context) ([]*models.UserProfile, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT identity, email, phone, preferences::text, created_at, updated_at
		 FROM user_profiles ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	out := []*models.UserProfile{}
	for rows.Next() {
		p, err := scanPgProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return out, nil
}

// GetProfile retrieves a profile by identity.
func (ps *PostgresStorage) GetProfile(ctx context.Context, identity string) (*models.UserProfile, error) {
	row := ps.pool.QueryRow(ctx,
		`SELECT identity, email, phone, preferences::text, created_at, updated_at
		 FROM user_profiles WHERE identity = $1`, identity)

	p, err := scanPgProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", identity, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// SaveProfile stores or updates a profile (upsert pattern).
func (ps *PostgresStorage) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil || profile.Identity == "" {
		return models.ErrMissingIdentity
	}

	prefs, err := marshalPreferences(profile.Preferences)
	if err != nil {
		return err
	}

	_, err = ps.pool.Exec(ctx,
		`INSERT INTO user_profiles (identity, email, phone, preferences, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		 ON CONFLICT (identity) DO UPDATE SET
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			preferences = EXCLUDED.preferences,
			updated_at = EXCLUDED.updated_at`,
		profile.Identity, profile.Email, profile.Phone, prefs,
		profile.CreatedAt.UTC(), profile.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.Identity, err)
	}
	return nil
}

// DeleteProfile removes a profile by identity.
func (ps *PostgresStorage) DeleteProfile(ctx context.Context, identity string) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM user_profiles WHERE identity = $1`, identity)
	if err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", identity, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", identity, ErrNotFound)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the connection pool.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}

func scanPgProfile(row pgx.Row) (*models.UserProfile, error) {
	var (
		p     models.UserProfile
		prefs string
	)
	if err := row.Scan(&p.Identity, &p.Email, &p.Phone, &prefs, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	var err error
	if p.Preferences, err = unmarshalPreferences(prefs); err != nil {
		return nil, err
	}
	return &p, nil
}
