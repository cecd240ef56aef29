// Package publisher drives claimed posts to a terminal status and runs
// the sweep that fans due posts out to their platform adapters.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/platform"
)

const defaultClaimLimit = 50

// Service is the publish orchestrator.
type Service struct {
	posts        models.PostRepository
	integrations models.IntegrationRepository
	adapters     platform.Registry
	lg           *zap.Logger
	claimLimit   int
}

type Option func(*Service)

// WithClaimLimit caps how many due posts a single sweep claims.
func WithClaimLimit(n int) Option {
	return func(s *Service) {
		s.claimLimit = n
	}
}

func New(
	posts models.PostRepository,
	integrations models.IntegrationRepository,
	adapters platform.Registry,
	lg *zap.Logger,
	opts ...Option,
) *Service {
	ans := Service{
		posts:        posts,
		integrations: integrations,
		adapters:     adapters,
		lg:           lg,
		claimLimit:   defaultClaimLimit,
	}

	for _, opt := range opts {
		opt(&ans)
	}

	return &ans
}

// RunSweep claims every post due at now and publishes them concurrently.
// It waits for all invocations to finish and returns the processed count.
// An error is returned only when the due-post query itself fails; outcomes
// of individual posts are recorded on the posts, never surfaced here.
func (s *Service) RunSweep(ctx context.Context, now time.Time) (int, error) {
	claimed, err := s.posts.ClaimDue(ctx, now, s.claimLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to claim due posts: %w", err)
	}

	if len(claimed) == 0 {
		return 0, nil
	}

	g, ctx := errgroup.WithContext(ctx)

	for i := range claimed {
		post := claimed[i]

		g.Go(func() error {
			s.Publish(ctx, &post)

			return nil
		})
	}

	_ = g.Wait()

	return len(claimed), nil
}

// Publish moves one claimed post to published or failed. The post must
// already be in publishing status. Every invocation ends in a terminal
// status write: panics and unexpected errors are converted into a failed
// transition at this boundary.
func (s *Service) Publish(ctx context.Context, post *models.Post) {
	defer func() {
		if r := recover(); r != nil {
			s.lg.Error("panic while publishing post",
				zap.String("post_id", post.ID),
				zap.Any("panic", r),
			)

			s.fail(ctx, post, fmt.Sprintf("internal error: %v", r))
		}
	}()

	integration, err := s.integrations.Get(ctx, post.OwnerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.fail(ctx, post, "account is not connected to any platform")

			return
		}

		s.fail(ctx, post, fmt.Sprintf("failed to load integration: %v", err))

		return
	}

	adapter, ok := s.adapters.For(post.Platform)
	if !ok {
		s.fail(ctx, post, fmt.Sprintf("unknown platform %q", post.Platform))

		return
	}

	result, err := adapter.Send(ctx, post, integration)
	if err != nil {
		s.fail(ctx, post, err.Error())

		return
	}

	if err := s.posts.SetResult(ctx, post.ID, models.PostStatusPublished, &models.PublishResult{
		PlatformPostID: result.PlatformPostID,
	}); err != nil {
		s.lg.Error("failed to write published status",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)

		return
	}

	s.lg.Info("post published",
		zap.String("post_id", post.ID),
		zap.String("platform", string(post.Platform)),
		zap.String("platform_post_id", result.PlatformPostID),
	)
}

func (s *Service) fail(ctx context.Context, post *models.Post, reason string) {
	if err := s.posts.SetResult(ctx, post.ID, models.PostStatusFailed, &models.PublishResult{
		Error: reason,
	}); err != nil {
		s.lg.Error("failed to write failed status",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)

		return
	}

	s.lg.Warn("post failed",
		zap.String("post_id", post.ID),
		zap.String("platform", string(post.Platform)),
		zap.String("reason", reason),
	)
}
