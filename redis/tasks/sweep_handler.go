package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// CreateSweepTask creates a new publish sweep task with the given payload.
func CreateSweepTask(payload *SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sweep payload: %w", err)
	}

	// The pipeline has no retry policy: a failed post needs manual
	// re-scheduling, so the task itself must not retry either.
	return asynq.NewTask(TypePublishDue, data, asynq.MaxRetry(0)), nil
}

func (h *Handler) processSweepTask(ctx context.Context, task *asynq.Task) error {
	var payload SweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal sweep payload: %w", err)
		}
	}

	now := payload.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	processed, err := h.publisher.RunSweep(ctx, now)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	h.lg.Info("sweep task completed",
		zap.Time("now", now),
		zap.Int("processed", processed),
	)

	return nil
}
