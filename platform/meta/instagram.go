package meta

import (
	"context"
	"fmt"

	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/platform"
)

// BusinessAccountAdapter targets an Instagram business account linked to a
// Facebook page. The content publishing API requires an attached media
// asset, and this pipeline produces text only, so every send fails with
// ErrMediaRequired. The credential checks still run first so that a
// disconnected account reports the more accurate reason.
type BusinessAccountAdapter struct{}

func NewBusinessAccountAdapter() *BusinessAccountAdapter {
	return &BusinessAccountAdapter{}
}

func (a *BusinessAccountAdapter) Send(_ context.Context, _ *models.Post, integration *models.Integration) (*platform.Result, error) {
	creds := integration.Meta
	if creds == nil || !creds.IsConnected || creds.InstagramBusinessAccountID == "" || creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: instagram business account", platform.ErrNotConnected)
	}

	return nil, platform.ErrMediaRequired
}
