package models

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Platform identifies a destination platform for a post.
type Platform string

const (
	PlatformTelegram  Platform = "telegram"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformTelegram, PlatformFacebook, PlatformInstagram:
		return true
	}

	return false
}

// Post status values. Transitions are monotonic:
// scheduled -> publishing -> published|failed. Published and failed are
// terminal; the pipeline never re-attempts a terminal post.
const (
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// PublishResult records the outcome of a publish attempt: either the
// platform-assigned post identifier or a failure reason, never both.
type PublishResult struct {
	PlatformPostID string `json:"platform_post_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Post is a unit of content plus scheduling metadata and publication status.
type Post struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Platform    Platform       `json:"platform"`
	Content     string         `json:"content"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Status      string         `json:"status"`
	Result      *PublishResult `json:"result,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (p *Post) Validate() error {
	if p.ID == "" {
		return errors.New("missing id")
	}

	if p.OwnerID == "" {
		return errors.New("missing owner id")
	}

	if !p.Platform.Valid() {
		return errors.New("invalid platform")
	}

	if p.Content == "" {
		return errors.New("missing content")
	}

	if p.ScheduledAt.IsZero() {
		return errors.New("missing scheduled time")
	}

	return nil
}

// PostRepository manages post persistence and status transitions.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	Get(ctx context.Context, id string) (Post, error)
	// ClaimDue atomically moves posts with status=scheduled and
	// scheduled_at <= now into publishing and returns the claimed rows.
	// A post claimed by one sweep is invisible to a concurrent one.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Post, error)
	// SetResult writes a terminal status together with the publish outcome.
	SetResult(ctx context.Context, id, status string, result *PublishResult) error
}
