// Package webrunner runs the HTTP server together with a background loop
// that sweeps due posts on an interval.
package webrunner

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gosom/social-publisher/runner"
	"github.com/gosom/social-publisher/tlmt"
	"github.com/gosom/social-publisher/web"
	"github.com/gosom/social-publisher/web/handlers"
)

type webrunner struct {
	app *runner.App
	srv *web.Server
	cfg *runner.Config
}

func New(ctx context.Context, cfg *runner.Config) (runner.Runner, error) {
	app, err := runner.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	group := handlers.NewGroup(handlers.Dependencies{
		Logger:       app.Logger,
		Publisher:    app.Publisher,
		Exchange:     app.Exchange,
		OAuth:        app.OAuth,
		Telegram:     app.Telegram,
		Integrations: app.Integrations,
		RedirectURL:  cfg.OAuthSuccessURL,
	})

	srv := web.New(group, cfg.Addr, app.Logger)

	ans := webrunner{
		app: app,
		srv: srv,
		cfg: cfg,
	}

	return &ans, nil
}

func (w *webrunner) Run(ctx context.Context) error {
	egroup, ctx := errgroup.WithContext(ctx)

	egroup.Go(func() error {
		return w.work(ctx)
	})

	egroup.Go(func() error {
		return w.srv.Start(ctx)
	})

	return egroup.Wait()
}

func (w *webrunner) Close(context.Context) error {
	return w.app.Close()
}

func (w *webrunner) work(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t0 := time.Now().UTC()

			processed, err := w.app.Publisher.RunSweep(ctx, t0)
			if err != nil {
				w.app.Logger.Error("sweep failed", zap.Error(err))

				_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("sweep", map[string]any{
					"error":    err.Error(),
					"duration": time.Now().UTC().Sub(t0).String(),
				}))

				continue
			}

			if processed > 0 {
				w.app.Logger.Info("sweep completed",
					zap.Int("processed", processed),
					zap.Duration("duration", time.Since(t0)),
				)
			}

			_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("sweep", map[string]any{
				"processed": processed,
				"duration":  time.Now().UTC().Sub(t0).String(),
			}))
		}
	}
}
