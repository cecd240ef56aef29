package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosom/social-publisher/models"
)

func TestPlatformValid(t *testing.T) {
	assert.True(t, models.PlatformTelegram.Valid())
	assert.True(t, models.PlatformFacebook.Valid())
	assert.True(t, models.PlatformInstagram.Valid())
	assert.False(t, models.Platform("myspace").Valid())
	assert.False(t, models.Platform("").Valid())
}

func TestPostValidate(t *testing.T) {
	valid := models.Post{
		ID:          "post-1",
		OwnerID:     "owner-1",
		Platform:    models.PlatformTelegram,
		Content:     "hello",
		ScheduledAt: time.Now().UTC(),
	}

	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*models.Post)
	}{
		{"missing id", func(p *models.Post) { p.ID = "" }},
		{"missing owner", func(p *models.Post) { p.OwnerID = "" }},
		{"invalid platform", func(p *models.Post) { p.Platform = "myspace" }},
		{"missing content", func(p *models.Post) { p.Content = "" }},
		{"missing schedule", func(p *models.Post) { p.ScheduledAt = time.Time{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			post := valid
			tc.mutate(&post)
			assert.Error(t, post.Validate())
		})
	}
}

func TestMetaCredentialsAccessTokenIsNotSerialized(t *testing.T) {
	creds := models.MetaCredentials{
		IsConnected: true,
		PageID:      "p1",
		AccessToken: "super-secret",
	}

	data, err := json.Marshal(creds)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")
	assert.NotContains(t, string(data), "access_token")
}
