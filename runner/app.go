package runner

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/pkg/encryption"
	"github.com/gosom/social-publisher/platform"
	"github.com/gosom/social-publisher/platform/meta"
	"github.com/gosom/social-publisher/platform/telegram"
	"github.com/gosom/social-publisher/postgres"
	"github.com/gosom/social-publisher/publisher"
	"github.com/gosom/social-publisher/sqlite"
)

// App bundles the wired services every run mode needs.
type App struct {
	DB           *sql.DB
	Posts        models.PostRepository
	Integrations models.IntegrationRepository
	Publisher    *publisher.Service
	Telegram     *telegram.Client
	Exchange     *meta.ExchangeFlow
	OAuth        *oauth2.Config
	Logger       *zap.Logger
}

// NewApp wires storage, adapters and the orchestrator from cfg. With an
// empty DSN it falls back to a local sqlite database in the data folder.
func NewApp(ctx context.Context, cfg *Config) (*App, error) {
	lg, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}

	db, posts, integrations, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	codec, err := encryption.FromEnv()
	if err != nil {
		db.Close()

		return nil, err
	}

	telegramClient := telegram.NewClient(cfg.TelegramBotToken)
	graphClient := meta.NewClient()

	adapters := platform.Registry{
		models.PlatformTelegram:  telegram.NewAdapter(telegramClient),
		models.PlatformFacebook:  meta.NewPageFeedAdapter(graphClient, codec),
		models.PlatformInstagram: meta.NewBusinessAccountAdapter(),
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.MetaAppID,
		ClientSecret: cfg.MetaAppSecret,
		RedirectURL:  cfg.MetaRedirectURL,
		Scopes: []string{
			"pages_show_list",
			"pages_manage_posts",
			"pages_read_engagement",
			"instagram_basic",
		},
		Endpoint: facebook.Endpoint,
	}

	svc := publisher.New(posts, integrations, adapters, lg,
		publisher.WithClaimLimit(cfg.ClaimLimit),
	)

	exchange := meta.NewExchangeFlow(oauthCfg, graphClient, integrations, codec, lg)

	return &App{
		DB:           db,
		Posts:        posts,
		Integrations: integrations,
		Publisher:    svc,
		Telegram:     telegramClient,
		Exchange:     exchange,
		OAuth:        oauthCfg,
		Logger:       lg,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	_ = a.Logger.Sync()

	return a.DB.Close()
}

func openStore(ctx context.Context, cfg *Config) (*sql.DB, models.PostRepository, models.IntegrationRepository, error) {
	if cfg.Dsn != "" {
		db, err := postgres.Open(ctx, cfg.Dsn)
		if err != nil {
			return nil, nil, nil, err
		}

		return db, postgres.NewPostRepository(db), postgres.NewIntegrationRepository(db), nil
	}

	if err := os.MkdirAll(cfg.DataFolder, os.ModePerm); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create data folder: %w", err)
	}

	db, err := sqlite.Open(filepath.Join(cfg.DataFolder, "publisher.db"))
	if err != nil {
		return nil, nil, nil, err
	}

	return db, sqlite.NewPostRepository(db), sqlite.NewIntegrationRepository(db), nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
