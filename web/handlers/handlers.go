// Package handlers contains the HTTP handlers for the publisher endpoints.
package handlers

import (
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/platform/meta"
	"github.com/gosom/social-publisher/platform/telegram"
	"github.com/gosom/social-publisher/publisher"
)

// Dependencies aggregates shared services used by handlers.
type Dependencies struct {
	Logger       *zap.Logger
	Publisher    *publisher.Service
	Exchange     *meta.ExchangeFlow
	OAuth        *oauth2.Config
	Telegram     *telegram.Client
	Integrations models.IntegrationRepository

	// RedirectURL is where the OAuth callback sends the user, with either
	// a connected flag or an error message appended.
	RedirectURL string
}

// Group groups all handler categories for routing setup.
type Group struct {
	Publish  *PublishHandler
	OAuth    *OAuthHandler
	Telegram *TelegramHandler
}

// NewGroup constructs a Group with initialized handlers.
func NewGroup(deps Dependencies) *Group {
	return &Group{
		Publish:  &PublishHandler{Deps: deps},
		OAuth:    &OAuthHandler{Deps: deps},
		Telegram: &TelegramHandler{Deps: deps},
	}
}
