package models

import (
	"context"
	"time"
)

// TelegramCredentials holds the channel-bot destination for one owner.
// The bot token itself is service configuration, not per-user state.
type TelegramCredentials struct {
	IsConnected bool   `json:"is_connected"`
	ChannelID   string `json:"channel_id"` // numeric chat id or @username
}

// MetaCredentials holds the page and optional linked business account
// obtained through the OAuth exchange. AccessToken is stored encrypted
// and is never serialized on read paths.
type MetaCredentials struct {
	IsConnected                bool   `json:"is_connected"`
	PageID                     string `json:"page_id"`
	InstagramBusinessAccountID string `json:"instagram_business_account_id,omitempty"`
	AccessToken                string `json:"-"`
}

// Integration is the per-owner record of platform credentials.
type Integration struct {
	OwnerID   string               `json:"owner_id"`
	Telegram  *TelegramCredentials `json:"telegram,omitempty"`
	Meta      *MetaCredentials     `json:"meta,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// IntegrationPatch is a partial update. Nil platform sections are left
// untouched by Merge.
type IntegrationPatch struct {
	Telegram *TelegramCredentials
	Meta     *MetaCredentials
}

// IntegrationRepository manages per-owner integration records.
// Merge must be non-destructive: credentials for platforms not present in
// the patch are preserved.
type IntegrationRepository interface {
	Get(ctx context.Context, ownerID string) (*Integration, error)
	Merge(ctx context.Context, ownerID string, patch IntegrationPatch) error
}
