// Package redisrunner runs the publisher as an asynq worker consuming
// publish sweep tasks, with a local ticker enqueueing them on an interval.
package redisrunner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gosom/social-publisher/redis"
	"github.com/gosom/social-publisher/redis/config"
	"github.com/gosom/social-publisher/redis/tasks"
	"github.com/gosom/social-publisher/runner"
)

// RedisRunner implements runner.Runner for Redis-backed task processing.
type RedisRunner struct {
	app      *runner.App
	cfg      *config.RedisConfig
	server   *redis.Server
	client   *redis.Client
	mux      *asynq.ServeMux
	done     chan struct{}
}

// New creates a RedisRunner from the provided configuration.
func New(ctx context.Context, cfg *runner.Config) (*RedisRunner, error) {
	redisCfg, err := config.NewRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis config: %w", err)
	}

	app, err := runner.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := redis.NewClient(redisCfg)
	if err != nil {
		app.Close()

		return nil, err
	}

	server, err := redis.NewServer(redisCfg)
	if err != nil {
		client.Close()
		app.Close()

		return nil, err
	}

	handler := tasks.NewHandler(app.Publisher, app.Logger)

	ans := RedisRunner{
		app:    app,
		cfg:    redisCfg,
		server: server,
		client: client,
		mux:    tasks.NewMux(handler),
		done:   make(chan struct{}),
	}

	return &ans, nil
}

// Run starts the worker and the periodic sweep trigger, blocking until
// ctx is cancelled.
func (r *RedisRunner) Run(ctx context.Context) error {
	if err := r.server.Start(ctx, r.mux); err != nil {
		return err
	}

	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.done:
			return nil
		case <-ticker.C:
			task, err := tasks.CreateSweepTask(&tasks.SweepPayload{})
			if err != nil {
				log.Printf("failed to create sweep task: %v", err)

				continue
			}

			// Unique keeps overlapping triggers from piling up sweeps.
			if err := r.client.EnqueueTask(ctx, task, asynq.Unique(r.cfg.SweepInterval)); err != nil {
				log.Printf("failed to enqueue sweep task: %v", err)
			}
		}
	}
}

// Close shuts down the worker and releases resources.
func (r *RedisRunner) Close(ctx context.Context) error {
	close(r.done)

	_ = r.server.Shutdown(ctx)
	_ = r.client.Close()

	return r.app.Close()
}
