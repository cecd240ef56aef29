// Package redis wraps the asynq client and server used to trigger sweeps.
package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/gosom/social-publisher/redis/config"
)

// Client wraps asynq client functionality.
type Client struct {
	client *asynq.Client
	cfg    *config.RedisConfig
	mu     sync.RWMutex
}

// NewClient creates a new Redis client with the provided configuration.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	return &Client{
		client: client,
		cfg:    cfg,
	}, nil
}

// EnqueueTask enqueues a task. Options such as asynq.ProcessAt or
// asynq.Unique pass through to asynq.
func (c *Client) EnqueueTask(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Close closes the Redis client connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	return nil
}

// IsHealthy checks whether the Redis connection accepts tasks.
func (c *Client) IsHealthy(ctx context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, err := c.client.EnqueueContext(ctx, asynq.NewTask("health:check", nil))

	return err == nil
}
