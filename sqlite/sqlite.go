// Package sqlite implements the post and integration repositories on a
// local SQLite database, used by the single-binary web mode.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/gosom/social-publisher/models"
)

// Open opens (creating if needed) the database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc sqlite allows a single writer; serialize access.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()

		return nil, err
	}

	return db, nil
}

func createSchema(db *sql.DB) error {
	const q = `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		content TEXT NOT NULL,
		scheduled_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		result TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS integrations (
		owner_id TEXT PRIMARY KEY,
		telegram TEXT,
		meta TEXT,
		updated_at TIMESTAMP NOT NULL
	);
	`

	if _, err := db.Exec(q); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}

	const q = `
		INSERT INTO posts (id, owner_id, platform, content, scheduled_at, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, q,
		post.ID,
		post.OwnerID,
		string(post.Platform),
		post.Content,
		post.ScheduledAt.UTC(),
		models.PostStatusScheduled,
		now,
		now,
	)

	return err
}

func (r *PostRepository) Get(ctx context.Context, id string) (models.Post, error) {
	const q = `
		SELECT id, owner_id, platform, content, scheduled_at, status, result, created_at, updated_at
		FROM posts
		WHERE id = ?
	`

	post, err := scanPost(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, models.ErrNotFound
		}

		return models.Post{}, err
	}

	return post, nil
}

// ClaimDue selects due candidates and claims each with a conditional
// update on status. A row already moved out of scheduled by a concurrent
// sweep affects zero rows and is skipped, so each post is claimed at most
// once.
func (r *PostRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.Post, error) {
	const selectQ = `
		SELECT id FROM posts
		WHERE status = ? AND scheduled_at <= ?
		ORDER BY scheduled_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, selectQ, models.PostStatusScheduled, now.UTC(), limit)
	if err != nil {
		return nil, err
	}

	var candidates []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()

			return nil, err
		}

		candidates = append(candidates, id)
	}

	if err := rows.Err(); err != nil {
		rows.Close()

		return nil, err
	}

	rows.Close()

	const claimQ = `
		UPDATE posts
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	var claimed []models.Post

	for _, id := range candidates {
		res, err := r.db.ExecContext(ctx, claimQ,
			models.PostStatusPublishing,
			now.UTC(),
			id,
			models.PostStatusScheduled,
		)
		if err != nil {
			return nil, err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}

		if affected == 0 {
			continue
		}

		post, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		claimed = append(claimed, post)
	}

	return claimed, nil
}

func (r *PostRepository) SetResult(ctx context.Context, id, status string, result *models.PublishResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal publish result: %w", err)
	}

	const q = `
		UPDATE posts
		SET status = ?, result = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, q, status, string(payload), time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var (
		post     models.Post
		platform string
		result   sql.NullString
	)

	err := row.Scan(
		&post.ID,
		&post.OwnerID,
		&platform,
		&post.Content,
		&post.ScheduledAt,
		&post.Status,
		&result,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return models.Post{}, err
	}

	post.Platform = models.Platform(platform)

	if result.Valid && result.String != "" {
		post.Result = &models.PublishResult{}
		if err := json.Unmarshal([]byte(result.String), post.Result); err != nil {
			return models.Post{}, fmt.Errorf("failed to unmarshal publish result: %w", err)
		}
	}

	return post, nil
}
