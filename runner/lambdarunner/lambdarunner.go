// Package lambdarunner runs one sweep per AWS Lambda invocation, for
// EventBridge-style scheduled triggers.
package lambdarunner

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/gosom/social-publisher/runner"
)

var _ runner.Runner = (*lambdaRunner)(nil)

type lambdaRunner struct {
	app *runner.App
}

type output struct {
	Processed int `json:"processed"`
}

func New(ctx context.Context, cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeLambda {
		return nil, runner.ErrInvalidRunMode
	}

	app, err := runner.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &lambdaRunner{app: app}, nil
}

func (l *lambdaRunner) Run(context.Context) error {
	lambda.Start(l.handler)

	return nil
}

func (l *lambdaRunner) Close(context.Context) error {
	return l.app.Close()
}

func (l *lambdaRunner) handler(ctx context.Context) (output, error) {
	processed, err := l.app.Publisher.RunSweep(ctx, time.Now().UTC())
	if err != nil {
		return output{}, err
	}

	l.app.Logger.Info("sweep completed", zap.Int("processed", processed))

	return output{Processed: processed}, nil
}
