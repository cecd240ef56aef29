package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gosom/social-publisher/models"
)

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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, q,
		post.ID,
		post.OwnerID,
		post.Platform,
		post.Content,
		post.ScheduledAt,
		models.PostStatusScheduled,
		now,
	)

	return err
}

func (r *PostRepository) Get(ctx context.Context, id string) (models.Post, error) {
	const q = `
		SELECT id, owner_id, platform, content, scheduled_at, status, result, created_at, updated_at
		FROM posts
		WHERE id = $1
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

// ClaimDue moves due scheduled posts to publishing in a single conditional
// update. FOR UPDATE SKIP LOCKED makes the claim safe against overlapping
// sweeps: a row claimed by one sweep is never returned to another.
func (r *PostRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.Post, error) {
	const q = `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM posts
			WHERE status = $3 AND scheduled_at <= $4
			ORDER BY scheduled_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $5
		)
		RETURNING id, owner_id, platform, content, scheduled_at, status, result, created_at, updated_at
	`

	rows, err := r.db.QueryContext(ctx, q,
		models.PostStatusPublishing,
		now.UTC(),
		models.PostStatusScheduled,
		now.UTC(),
		limit,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var claimed []models.Post

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}

		claimed = append(claimed, post)
	}

	return claimed, rows.Err()
}

func (r *PostRepository) SetResult(ctx context.Context, id, status string, result *models.PublishResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal publish result: %w", err)
	}

	const q = `
		UPDATE posts
		SET status = $2, result = $3, updated_at = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, q, id, status, payload, time.Now().UTC())
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
		post   models.Post
		result []byte
	)

	err := row.Scan(
		&post.ID,
		&post.OwnerID,
		&post.Platform,
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

	if len(result) > 0 {
		post.Result = &models.PublishResult{}
		if err := json.Unmarshal(result, post.Result); err != nil {
			return models.Post{}, fmt.Errorf("failed to unmarshal publish result: %w", err)
		}
	}

	return post, nil
}
