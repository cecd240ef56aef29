// Package postgres implements the post and integration repositories on
// top of PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// Open connects to PostgreSQL and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := CreateSchema(ctx, db); err != nil {
		db.Close()

		return nil, err
	}

	return db, nil
}

// CreateSchema creates the tables used by this package if they are absent.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	const q = `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		content TEXT NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		result JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_posts_due
		ON posts (scheduled_at) WHERE status = 'scheduled';

	CREATE TABLE IF NOT EXISTS integrations (
		owner_id TEXT PRIMARY KEY,
		telegram JSONB,
		meta JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
