// Package config provides Redis configuration for the asynq-backed
// publish trigger.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// RedisConfig holds Redis connection and worker parameters.
type RedisConfig struct {
	Host          string
	Port          int
	Password      string
	DB            int
	Workers       int
	SweepInterval time.Duration
}

const (
	defaultHost     = "localhost"
	defaultPort     = 6379
	defaultDB       = 0
	defaultWorkers  = 10
	defaultInterval = time.Minute

	minPort = 1
	maxPort = 65535
	minDB   = 0
	maxDB   = 15
)

// NewRedisConfig creates a Redis configuration from environment variables.
// REDIS_URL takes precedence over individual parameters.
func NewRedisConfig() (*RedisConfig, error) {
	cfg := &RedisConfig{
		Host:          getEnvOrDefault("REDIS_HOST", defaultHost),
		Port:          defaultPort,
		Password:      os.Getenv("REDIS_PASSWORD"),
		DB:            defaultDB,
		Workers:       defaultWorkers,
		SweepInterval: defaultInterval,
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		parsed, err := url.Parse(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}

		if host := parsed.Hostname(); host != "" {
			cfg.Host = host
		}

		if port := parsed.Port(); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return nil, fmt.Errorf("invalid port in Redis URL: %w", err)
			}

			cfg.Port = p
		}

		if password, ok := parsed.User.Password(); ok {
			cfg.Password = password
		}

		if path := strings.TrimPrefix(parsed.Path, "/"); path != "" {
			db, err := strconv.Atoi(path)
			if err != nil {
				return nil, fmt.Errorf("invalid database number in Redis URL: %w", err)
			}

			cfg.DB = db
		}
	} else {
		if port := os.Getenv("REDIS_PORT"); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
			}

			cfg.Port = p
		}

		if db := os.Getenv("REDIS_DB"); db != "" {
			d, err := strconv.Atoi(db)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
			}

			cfg.DB = d
		}
	}

	if workers := os.Getenv("REDIS_WORKERS"); workers != "" {
		w, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_WORKERS: %w", err)
		}

		cfg.Workers = w
	}

	if interval := os.Getenv("SWEEP_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
		}

		cfg.SweepInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration values are in range.
func (c *RedisConfig) Validate() error {
	if c.Port < minPort || c.Port > maxPort {
		return fmt.Errorf("port must be between %d and %d", minPort, maxPort)
	}

	if c.DB < minDB || c.DB > maxDB {
		return fmt.Errorf("db must be between %d and %d", minDB, maxDB)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}

	if c.SweepInterval < time.Second {
		return fmt.Errorf("sweep interval must be at least one second")
	}

	return nil
}

// GetRedisAddr returns the host:port address.
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
