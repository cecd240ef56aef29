package meta

import (
	"context"
	"fmt"

	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/pkg/encryption"
	"github.com/gosom/social-publisher/platform"
)

// PageFeedAdapter publishes text posts to a Facebook page feed.
type PageFeedAdapter struct {
	client *Client
	codec  *encryption.Codec
}

func NewPageFeedAdapter(client *Client, codec *encryption.Codec) *PageFeedAdapter {
	return &PageFeedAdapter{
		client: client,
		codec:  codec,
	}
}

func (a *PageFeedAdapter) Send(ctx context.Context, post *models.Post, integration *models.Integration) (*platform.Result, error) {
	creds := integration.Meta
	if creds == nil || !creds.IsConnected || creds.PageID == "" || creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: facebook page", platform.ErrNotConnected)
	}

	token, err := a.codec.Decrypt(creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt page access token: %w", err)
	}

	postID, err := a.client.PublishPagePost(ctx, creds.PageID, token, post.Content)
	if err != nil {
		return nil, fmt.Errorf("facebook send failed: %w", err)
	}

	return &platform.Result{PlatformPostID: postID}, nil
}
