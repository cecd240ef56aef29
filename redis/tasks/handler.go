// Package tasks provides the asynq task handlers for the publisher.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/gosom/social-publisher/publisher"
)

// TaskHandler handles processing of Redis tasks.
type TaskHandler interface {
	ProcessTask(ctx context.Context, task *asynq.Task) error
}

// Handler implements TaskHandler for the publish sweep task.
type Handler struct {
	publisher   *publisher.Service
	lg          *zap.Logger
	taskTimeout time.Duration
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTaskTimeout bounds the time one sweep may take.
func WithTaskTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.taskTimeout = timeout
	}
}

func NewHandler(svc *publisher.Service, lg *zap.Logger, opts ...HandlerOption) *Handler {
	ans := Handler{
		publisher:   svc,
		lg:          lg,
		taskTimeout: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(&ans)
	}

	return &ans
}

// ProcessTask dispatches a task to its processor.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	ctx, cancel := context.WithTimeout(ctx, h.taskTimeout)
	defer cancel()

	switch task.Type() {
	case TypePublishDue:
		return h.processSweepTask(ctx, task)
	case TypeHealthCheck:
		return nil
	default:
		return fmt.Errorf("unknown task type %q", task.Type())
	}
}

// NewMux builds the asynq routing mux for h.
func NewMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypePublishDue, h)
	mux.Handle(TypeHealthCheck, h)

	return mux
}
