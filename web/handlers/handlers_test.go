package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/gosom/social-publisher/internal/testutils"
	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/pkg/encryption"
	"github.com/gosom/social-publisher/platform"
	"github.com/gosom/social-publisher/platform/meta"
	"github.com/gosom/social-publisher/platform/telegram"
	"github.com/gosom/social-publisher/publisher"
	"github.com/gosom/social-publisher/web/handlers"
)

type memPosts struct {
	mu      sync.Mutex
	posts   map[string]*models.Post
	failAll bool
}

func newMemPosts(posts ...models.Post) *memPosts {
	m := memPosts{posts: make(map[string]*models.Post)}

	for i := range posts {
		p := posts[i]
		m.posts[p.ID] = &p
	}

	return &m
}

func (m *memPosts) Create(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := *post
	m.posts[p.ID] = &p

	return nil
}

func (m *memPosts) Get(_ context.Context, id string) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return models.Post{}, models.ErrNotFound
	}

	return *p, nil
}

func (m *memPosts) ClaimDue(_ context.Context, now time.Time, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		return nil, errors.New("store unavailable")
	}

	var claimed []models.Post

	for _, p := range m.posts {
		if len(claimed) >= limit {
			break
		}

		if p.Status == models.PostStatusScheduled && !p.ScheduledAt.After(now) {
			p.Status = models.PostStatusPublishing
			claimed = append(claimed, *p)
		}
	}

	return claimed, nil
}

func (m *memPosts) SetResult(_ context.Context, id, status string, result *models.PublishResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return models.ErrNotFound
	}

	p.Status = status
	p.Result = result

	return nil
}

type memIntegrations struct {
	mu      sync.Mutex
	records map[string]*models.Integration
}

func newMemIntegrations(records ...*models.Integration) *memIntegrations {
	m := memIntegrations{records: make(map[string]*models.Integration)}

	for _, r := range records {
		m.records[r.OwnerID] = r
	}

	return &m
}

func (m *memIntegrations) Get(_ context.Context, ownerID string) (*models.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[ownerID]
	if !ok {
		return nil, models.ErrNotFound
	}

	return r, nil
}

func (m *memIntegrations) Merge(_ context.Context, ownerID string, patch models.IntegrationPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[ownerID]
	if !ok {
		r = &models.Integration{OwnerID: ownerID}
		m.records[ownerID] = r
	}

	if patch.Telegram != nil {
		r.Telegram = patch.Telegram
	}

	if patch.Meta != nil {
		r.Meta = patch.Meta
	}

	return nil
}

type okAdapter struct{}

func (okAdapter) Send(context.Context, *models.Post, *models.Integration) (*platform.Result, error) {
	return &platform.Result{PlatformPostID: "1"}, nil
}

func TestHandlePublishDue(t *testing.T) {
	owner := testutils.RandomID("owner")

	t.Run("reports processed count", func(t *testing.T) {
		due := testutils.ScheduledPost(owner, models.PlatformTelegram, time.Now().UTC().Add(-time.Minute))
		posts := newMemPosts(due)
		integrations := newMemIntegrations(testutils.ConnectedIntegration(owner, "@mychan", "", ""))

		svc := publisher.New(posts, integrations, platform.Registry{
			models.PlatformTelegram: okAdapter{},
		}, zap.NewNop())

		h := handlers.NewGroup(handlers.Dependencies{
			Logger:    zap.NewNop(),
			Publisher: svc,
		})

		w := httptest.NewRecorder()
		h.Publish.HandlePublishDue(w, httptest.NewRequest(http.MethodPost, "/publish-due", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"processed":1}`, w.Body.String())
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		posts := newMemPosts()
		posts.failAll = true

		svc := publisher.New(posts, newMemIntegrations(), platform.Registry{}, zap.NewNop())

		h := handlers.NewGroup(handlers.Dependencies{
			Logger:    zap.NewNop(),
			Publisher: svc,
		})

		w := httptest.NewRecorder()
		h.Publish.HandlePublishDue(w, httptest.NewRequest(http.MethodPost, "/publish-due", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandleOAuthStart(t *testing.T) {
	oauthCfg := &oauth2.Config{
		ClientID: "app-id",
		Endpoint: oauth2.Endpoint{
			AuthURL: "https://provider.example/auth",
		},
		RedirectURL: "https://app.example/oauth/callback",
	}

	h := handlers.NewGroup(handlers.Dependencies{
		Logger: zap.NewNop(),
		OAuth:  oauthCfg,
	})

	t.Run("missing uid is unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.OAuth.HandleStart(w, httptest.NewRequest(http.MethodGet, "/oauth/start", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("redirects with uid as state", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.OAuth.HandleStart(w, httptest.NewRequest(http.MethodGet, "/oauth/start?uid=owner-1", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "provider.example", loc.Host)
		assert.Equal(t, "owner-1", loc.Query().Get("state"))
		assert.Equal(t, "app-id", loc.Query().Get("client_id"))
	})
}

func TestHandleOAuthCallback(t *testing.T) {
	const testKey = "0123456789abcdef0123456789abcdef"

	newDeps := func(t *testing.T, integrations models.IntegrationRepository) handlers.Dependencies {
		t.Helper()

		graphSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/me/accounts":
				_, _ = w.Write([]byte(`{"data":[{"id":"p1","name":"Main","access_token":"page-token"}]}`))
			default:
				_, _ = w.Write([]byte(`{"id":"p1"}`))
			}
		}))
		t.Cleanup(graphSrv.Close)

		tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"user-token","token_type":"bearer"}`))
		}))
		t.Cleanup(tokenSrv.Close)

		oauthCfg := &oauth2.Config{
			ClientID:     "app-id",
			ClientSecret: "app-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:  tokenSrv.URL + "/auth",
				TokenURL: tokenSrv.URL + "/token",
			},
		}

		codec, err := encryption.New(testKey)
		require.NoError(t, err)

		return handlers.Dependencies{
			Logger: zap.NewNop(),
			Exchange: meta.NewExchangeFlow(
				oauthCfg,
				meta.NewClient(meta.WithBaseURL(graphSrv.URL)),
				integrations,
				codec,
				zap.NewNop(),
			),
			OAuth:       oauthCfg,
			RedirectURL: "/integrations",
		}
	}

	t.Run("success redirects with connected flag", func(t *testing.T) {
		integrations := newMemIntegrations()
		h := handlers.NewGroup(newDeps(t, integrations))

		w := httptest.NewRecorder()
		h.OAuth.HandleCallback(w, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=auth-code&state=owner-1", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "/integrations?connected=true", w.Header().Get("Location"))

		stored, err := integrations.Get(context.Background(), "owner-1")
		require.NoError(t, err)
		require.NotNil(t, stored.Meta)
		assert.Equal(t, "p1", stored.Meta.PageID)
	})

	t.Run("failure redirects with error message", func(t *testing.T) {
		h := handlers.NewGroup(newDeps(t, newMemIntegrations()))

		w := httptest.NewRecorder()
		h.OAuth.HandleCallback(w, httptest.NewRequest(http.MethodGet, "/oauth/callback?state=owner-1", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

		loc := w.Header().Get("Location")
		assert.True(t, strings.HasPrefix(loc, "/integrations?error="), loc)
	})
}

func TestHandleTelegramVerify(t *testing.T) {
	newDeps := func(t *testing.T, botHandler http.HandlerFunc, integrations models.IntegrationRepository) handlers.Dependencies {
		t.Helper()

		srv := httptest.NewServer(botHandler)
		t.Cleanup(srv.Close)

		return handlers.Dependencies{
			Logger:       zap.NewNop(),
			Telegram:     telegram.NewClient("TOKEN", telegram.WithBaseURL(srv.URL)),
			Integrations: integrations,
		}
	}

	t.Run("verified channel is stored", func(t *testing.T) {
		integrations := newMemIntegrations()
		deps := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":-100777,"type":"channel","title":"News"}}`))
		}, integrations)

		h := handlers.NewGroup(deps)

		body := strings.NewReader(`{"uid":"owner-1","channel":"@news"}`)
		w := httptest.NewRecorder()
		h.Telegram.HandleVerify(w, httptest.NewRequest(http.MethodPost, "/telegram/verify", body))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"chat_id":-100777,"title":"News"}`, w.Body.String())

		stored, err := integrations.Get(context.Background(), "owner-1")
		require.NoError(t, err)
		require.NotNil(t, stored.Telegram)
		assert.True(t, stored.Telegram.IsConnected)
		assert.Equal(t, "@news", stored.Telegram.ChannelID)
	})

	t.Run("bot api refusal is a 400", func(t *testing.T) {
		integrations := newMemIntegrations()
		deps := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot is not a member of the channel chat"}`))
		}, integrations)

		h := handlers.NewGroup(deps)

		body := strings.NewReader(`{"uid":"owner-1","channel":"@news"}`)
		w := httptest.NewRecorder()
		h.Telegram.HandleVerify(w, httptest.NewRequest(http.MethodPost, "/telegram/verify", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "not a member")

		_, err := integrations.Get(context.Background(), "owner-1")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("missing fields", func(t *testing.T) {
		h := handlers.NewGroup(newDeps(t, func(http.ResponseWriter, *http.Request) {}, newMemIntegrations()))

		body := strings.NewReader(`{"uid":"owner-1"}`)
		w := httptest.NewRecorder()
		h.Telegram.HandleVerify(w, httptest.NewRequest(http.MethodPost, "/telegram/verify", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		h := handlers.NewGroup(newDeps(t, func(http.ResponseWriter, *http.Request) {}, newMemIntegrations()))

		w := httptest.NewRecorder()
		h.Telegram.HandleVerify(w, httptest.NewRequest(http.MethodPost, "/telegram/verify", strings.NewReader("{")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
