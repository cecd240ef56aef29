package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosom/social-publisher/redis/config"
)

func clearRedisEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"REDIS_URL", "REDIS_HOST", "REDIS_PORT",
		"REDIS_PASSWORD", "REDIS_DB", "REDIS_WORKERS", "SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestNewRedisConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearRedisEnv(t)

		cfg, err := config.NewRedisConfig()
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
		assert.Equal(t, 0, cfg.DB)
		assert.Equal(t, 10, cfg.Workers)
		assert.Equal(t, time.Minute, cfg.SweepInterval)
	})

	t.Run("individual variables", func(t *testing.T) {
		clearRedisEnv(t)
		t.Setenv("REDIS_HOST", "redis.internal")
		t.Setenv("REDIS_PORT", "6380")
		t.Setenv("REDIS_DB", "3")
		t.Setenv("REDIS_WORKERS", "5")
		t.Setenv("SWEEP_INTERVAL", "30s")

		cfg, err := config.NewRedisConfig()
		require.NoError(t, err)
		assert.Equal(t, "redis.internal:6380", cfg.GetRedisAddr())
		assert.Equal(t, 3, cfg.DB)
		assert.Equal(t, 5, cfg.Workers)
		assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	})

	t.Run("url takes precedence", func(t *testing.T) {
		clearRedisEnv(t)
		t.Setenv("REDIS_HOST", "ignored")
		t.Setenv("REDIS_URL", "redis://:s3cret@redis.example:6390/2")

		cfg, err := config.NewRedisConfig()
		require.NoError(t, err)
		assert.Equal(t, "redis.example:6390", cfg.GetRedisAddr())
		assert.Equal(t, "s3cret", cfg.Password)
		assert.Equal(t, 2, cfg.DB)
	})

	t.Run("invalid values", func(t *testing.T) {
		cases := []struct {
			name  string
			key   string
			value string
		}{
			{"bad port", "REDIS_PORT", "not-a-port"},
			{"port out of range", "REDIS_PORT", "70000"},
			{"bad db", "REDIS_DB", "abc"},
			{"db out of range", "REDIS_DB", "99"},
			{"bad workers", "REDIS_WORKERS", "0"},
			{"interval too short", "SWEEP_INTERVAL", "100ms"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				clearRedisEnv(t)
				t.Setenv(tc.key, tc.value)

				_, err := config.NewRedisConfig()
				require.Error(t, err)
			})
		}
	})
}
