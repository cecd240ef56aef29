// Package runner holds the configuration and run-mode selection for the
// publisher binary.
package runner

import (
	"context"
	"errors"
	"flag"
	"os"
	"sync"
	"time"

	"github.com/gosom/social-publisher/tlmt"
	"github.com/gosom/social-publisher/tlmt/gonoop"
	"github.com/gosom/social-publisher/tlmt/goposthog"
)

const (
	RunModeWeb = iota + 1
	RunModeSweep
	RunModeRedis
	RunModeLambda
)

var ErrInvalidRunMode = errors.New("invalid run mode")

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type Config struct {
	Addr             string
	Dsn              string
	DataFolder       string
	ClaimLimit       int
	SweepInterval    time.Duration
	RunMode          int
	Debug            bool
	DisableTelemetry bool

	// Platform credentials come from the environment so they never show
	// up in process listings.
	TelegramBotToken string
	MetaAppID        string
	MetaAppSecret    string
	MetaRedirectURL  string
	OAuthSuccessURL  string
}

func ParseConfig() *Config {
	cfg := Config{}

	var (
		sweepOnce  bool
		redisMode  bool
		lambdaMode bool
	)

	flag.StringVar(&cfg.Addr, "addr", ":8080", "address to listen on for the web server")
	flag.StringVar(&cfg.Dsn, "dsn", "", "postgres connection string [default: local sqlite]")
	flag.StringVar(&cfg.DataFolder, "data-folder", "data", "data folder for the local sqlite database")
	flag.IntVar(&cfg.ClaimLimit, "claim-limit", 50, "maximum number of due posts one sweep claims")
	flag.DurationVar(&cfg.SweepInterval, "sweep-interval", time.Minute, "interval between sweeps in web mode")
	flag.BoolVar(&sweepOnce, "sweep", false, "run one sweep and exit (cron friendly)")
	flag.BoolVar(&redisMode, "redis", false, "run as an asynq worker consuming publish tasks")
	flag.BoolVar(&lambdaMode, "lambda", false, "run as an AWS Lambda handler")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	flag.BoolVar(&cfg.DisableTelemetry, "disable-telemetry", false, "disable anonymous usage telemetry")

	flag.Parse()

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.MetaAppID = os.Getenv("META_APP_ID")
	cfg.MetaAppSecret = os.Getenv("META_APP_SECRET")
	cfg.MetaRedirectURL = os.Getenv("META_REDIRECT_URL")
	cfg.OAuthSuccessURL = os.Getenv("OAUTH_SUCCESS_URL")

	if cfg.OAuthSuccessURL == "" {
		cfg.OAuthSuccessURL = "/integrations"
	}

	if cfg.ClaimLimit < 1 {
		panic("claim limit must be greater than 0")
	}

	if cfg.SweepInterval < time.Second {
		panic("sweep interval must be at least one second")
	}

	switch {
	case lambdaMode:
		cfg.RunMode = RunModeLambda
	case redisMode:
		cfg.RunMode = RunModeRedis
	case sweepOnce:
		cfg.RunMode = RunModeSweep
	default:
		cfg.RunMode = RunModeWeb
	}

	return &cfg
}

var (
	telemetryOnce sync.Once
	telemetry     tlmt.Telemetry
)

// Telemetry returns the process-wide telemetry sink. It is a noop unless
// a PostHog key is configured.
func Telemetry() tlmt.Telemetry {
	telemetryOnce.Do(func() {
		if os.Getenv("DISABLE_TELEMETRY") == "1" {
			telemetry = gonoop.New()

			return
		}

		apiKey := os.Getenv("POSTHOG_API_KEY")
		if apiKey == "" {
			telemetry = gonoop.New()

			return
		}

		endpoint := os.Getenv("POSTHOG_ENDPOINT")
		if endpoint == "" {
			endpoint = "https://eu.i.posthog.com"
		}

		val, err := goposthog.New(apiKey, endpoint)
		if err != nil || val == nil {
			telemetry = gonoop.New()

			return
		}

		telemetry = val
	})

	return telemetry
}
