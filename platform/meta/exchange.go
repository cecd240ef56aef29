package meta

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/gosom/social-publisher/models"
	"github.com/gosom/social-publisher/pkg/encryption"
)

// ErrNoChannelsFound is returned when the authorizing user manages no pages.
var ErrNoChannelsFound = errors.New("no manageable pages found for this account")

// SelectPage resolves one destination when several pages exist. The policy
// is deterministic first-page selection; it lives behind a name so a
// disambiguation step can replace it later.
func SelectPage(pages []Page) (Page, error) {
	if len(pages) == 0 {
		return Page{}, ErrNoChannelsFound
	}

	return pages[0], nil
}

// ExchangeFlow turns an authorization code into stored page credentials.
// The flow is all-or-nothing: the single Merge write happens only after
// every remote read succeeded.
type ExchangeFlow struct {
	oauth        *oauth2.Config
	graph        *Client
	integrations models.IntegrationRepository
	codec        *encryption.Codec
	lg           *zap.Logger
}

func NewExchangeFlow(
	oauthCfg *oauth2.Config,
	graph *Client,
	integrations models.IntegrationRepository,
	codec *encryption.Codec,
	lg *zap.Logger,
) *ExchangeFlow {
	return &ExchangeFlow{
		oauth:        oauthCfg,
		graph:        graph,
		integrations: integrations,
		codec:        codec,
		lg:           lg,
	}
}

// Exchange runs the full flow for the owner identified by the opaque state
// parameter. Any step failing aborts the flow before persistence.
func (f *ExchangeFlow) Exchange(ctx context.Context, code, ownerID string) error {
	if ownerID == "" {
		return errors.New("missing owner id in state parameter")
	}

	if code == "" {
		return errors.New("missing authorization code")
	}

	token, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	pages, err := f.graph.ListManagedPages(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	page, err := SelectPage(pages)
	if err != nil {
		return err
	}

	igAccountID, err := f.graph.InstagramBusinessAccount(ctx, page.ID, page.AccessToken)
	if err != nil {
		return err
	}

	encToken, err := f.codec.Encrypt(page.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt page access token: %w", err)
	}

	patch := models.IntegrationPatch{
		Meta: &models.MetaCredentials{
			IsConnected:                true,
			PageID:                     page.ID,
			InstagramBusinessAccountID: igAccountID,
			AccessToken:                encToken,
		},
	}

	if err := f.integrations.Merge(ctx, ownerID, patch); err != nil {
		return fmt.Errorf("failed to store integration: %w", err)
	}

	f.lg.Info("meta integration connected",
		zap.String("owner_id", ownerID),
		zap.String("page_id", page.ID),
		zap.Bool("has_business_account", igAccountID != ""),
	)

	return nil
}
