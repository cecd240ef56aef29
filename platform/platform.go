// Package platform defines the capability shared by all destination
// platform adapters and the closed registry used to select one.
package platform

import (
	"context"
	"errors"

	"github.com/gosom/social-publisher/models"
)

var (
	// ErrNotConfigured indicates the integration lacks the channel
	// identifier the adapter needs.
	ErrNotConfigured = errors.New("channel not configured")
	// ErrNotConnected indicates the integration is missing or disconnected
	// for the adapter's platform.
	ErrNotConnected = errors.New("account not connected")
	// ErrMediaRequired indicates the platform rejects text-only content.
	// This pipeline does not produce media, so posts hitting this are
	// terminal failures by policy.
	ErrMediaRequired = errors.New("media required: text-only posts are not supported on this platform")
)

// Result is the normalized outcome of a successful delivery.
type Result struct {
	PlatformPostID string
}

// Adapter translates a generic post into one platform's delivery call.
// Implementations never let a transport error propagate raw: every failure
// comes back as a descriptive error the orchestrator can persist.
type Adapter interface {
	Send(ctx context.Context, post *models.Post, integration *models.Integration) (*Result, error)
}

// Registry maps each platform to its adapter.
type Registry map[models.Platform]Adapter

// For returns the adapter for p.
func (r Registry) For(p models.Platform) (Adapter, bool) {
	a, ok := r[p]

	return a, ok
}
