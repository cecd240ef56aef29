package redis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gosom/social-publisher/redis/config"
)

// Server wraps asynq server functionality.
type Server struct {
	server *asynq.Server
	cfg    *config.RedisConfig
	mu     sync.RWMutex
}

// NewServer creates a new Redis server with the provided configuration.
// Sweep tasks never retry, so the retry delay function rejects every
// attempt.
func NewServer(cfg *config.RedisConfig) (*Server, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Workers,
			RetryDelayFunc: func(_ int, err error, task *asynq.Task) time.Duration {
				log.Printf("task %s failed and will not retry: %v", task.Type(), err)

				return -1 * time.Second
			},
		},
	)

	return &Server{
		server: srv,
		cfg:    cfg,
	}, nil
}

// Start starts the server with the provided handler mux.
func (s *Server) Start(ctx context.Context, mux *asynq.ServeMux) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	go func() {
		<-ctx.Done()

		s.server.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.server.Shutdown()

	return nil
}
