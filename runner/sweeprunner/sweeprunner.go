// Package sweeprunner runs exactly one sweep and exits, for invocation
// from cron or any external time-based trigger.
package sweeprunner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gosom/social-publisher/runner"
)

type sweeprunner struct {
	app *runner.App
}

func New(ctx context.Context, cfg *runner.Config) (runner.Runner, error) {
	app, err := runner.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &sweeprunner{app: app}, nil
}

func (s *sweeprunner) Run(ctx context.Context) error {
	processed, err := s.app.Publisher.RunSweep(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	s.app.Logger.Info("sweep completed", zap.Int("processed", processed))

	return nil
}

func (s *sweeprunner) Close(context.Context) error {
	return s.app.Close()
}
