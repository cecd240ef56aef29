// Package testutils provides helpers for building test fixtures.
package testutils

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosom/social-publisher/models"
)

// RandomID returns a prefixed unique identifier.
func RandomID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

// ScheduledPost builds a post due at the given time.
func ScheduledPost(ownerID string, p models.Platform, scheduledAt time.Time) models.Post {
	now := time.Now().UTC()

	return models.Post{
		ID:          RandomID("post"),
		OwnerID:     ownerID,
		Platform:    p,
		Content:     "Hello from " + ownerID,
		ScheduledAt: scheduledAt,
		Status:      models.PostStatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ConnectedIntegration builds an integration with both platforms connected.
func ConnectedIntegration(ownerID, channelID, pageID, token string) *models.Integration {
	return &models.Integration{
		OwnerID: ownerID,
		Telegram: &models.TelegramCredentials{
			IsConnected: true,
			ChannelID:   channelID,
		},
		Meta: &models.MetaCredentials{
			IsConnected: true,
			PageID:      pageID,
			AccessToken: token,
		},
		UpdatedAt: time.Now().UTC(),
	}
}
