package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidfriends/feedclient/internal/db"
)

const createSessionTable = `
CREATE TABLE IF NOT EXISTS client_sessions (
    profile    TEXT NOT NULL,
    field      TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (profile, field)
)`

// PostgresBackend persists session fields in PostgreSQL, keyed by a profile
// name so several client installs can share one database.
type PostgresBackend struct {
	pool    db.Pool
	profile string
}

// NewPostgresBackend constructs a backend for the given profile.
func NewPostgresBackend(pool db.Pool, profile string) *PostgresBackend {
	if profile == "" {
		profile = "default"
	}
	return &PostgresBackend{pool: pool, profile: profile}
}

// EnsureSchema creates the backing table if it does not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if b.pool == nil {
		return ErrBackendUnavailable
	}
	return db.Retry(ctx, "ensure client_sessions", func(ctx context.Context) error {
		conn, err := b.pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire connection: %w", err)
		}
		defer conn.Release()

		if _, err := conn.Exec(ctx, createSessionTable); err != nil {
			return fmt.Errorf("ensure client_sessions table: %w", err)
		}
		return nil
	})
}

// Get implements Backend.
func (b *PostgresBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.pool == nil {
		return "", false, ErrBackendUnavailable
	}
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return "", false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var value string
	err = conn.QueryRow(ctx, `
        SELECT value
        FROM client_sessions
        WHERE profile = $1 AND field = $2
    `, b.profile, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select session field %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the field for this profile.
func (b *PostgresBackend) Set(ctx context.Context, key, value string) error {
	if b.pool == nil {
		return ErrBackendUnavailable
	}
	return db.Retry(ctx, "upsert session field", func(ctx context.Context) error {
		conn, err := b.pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire connection: %w", err)
		}
		defer conn.Release()

		_, err = conn.Exec(ctx, `
            INSERT INTO client_sessions (profile, field, value, updated_at)
            VALUES ($1, $2, $3, NOW())
            ON CONFLICT (profile, field)
            DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
        `, b.profile, key, value)
		if err != nil {
			return fmt.Errorf("upsert session field %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes the keys in one statement so token and user disappear together.
func (b *PostgresBackend) Delete(ctx context.Context, keys ...string) error {
	if b.pool == nil {
		return ErrBackendUnavailable
	}
	if len(keys) == 0 {
		return nil
	}
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM client_sessions
        WHERE profile = $1 AND field = ANY($2)
    `, b.profile, keys); err != nil {
		return fmt.Errorf("delete session fields: %w", err)
	}
	return nil
}
