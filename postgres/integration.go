package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gosom/social-publisher/models"
)

type IntegrationRepository struct {
	db *sql.DB
}

func NewIntegrationRepository(db *sql.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) Get(ctx context.Context, ownerID string) (*models.Integration, error) {
	const q = `
		SELECT owner_id, telegram, meta, updated_at
		FROM integrations
		WHERE owner_id = $1
	`

	var (
		integration models.Integration
		telegram    []byte
		meta        []byte
	)

	err := r.db.QueryRowContext(ctx, q, ownerID).Scan(
		&integration.OwnerID,
		&telegram,
		&meta,
		&integration.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}

		return nil, err
	}

	if len(telegram) > 0 {
		integration.Telegram = &models.TelegramCredentials{}
		if err := json.Unmarshal(telegram, integration.Telegram); err != nil {
			return nil, fmt.Errorf("failed to unmarshal telegram credentials: %w", err)
		}
	}

	if len(meta) > 0 {
		integration.Meta = &models.MetaCredentials{}
		if err := unmarshalMeta(meta, integration.Meta); err != nil {
			return nil, err
		}
	}

	return &integration, nil
}

// Merge upserts the owner's record, touching only the platform sections
// present in the patch. COALESCE keeps the stored value when the incoming
// column is NULL, which is what makes the merge non-destructive.
func (r *IntegrationRepository) Merge(ctx context.Context, ownerID string, patch models.IntegrationPatch) error {
	telegram, err := marshalSection(patch.Telegram)
	if err != nil {
		return err
	}

	meta, err := marshalMetaSection(patch.Meta)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO integrations (owner_id, telegram, meta, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id) DO UPDATE SET
			telegram = COALESCE(EXCLUDED.telegram, integrations.telegram),
			meta = COALESCE(EXCLUDED.meta, integrations.meta),
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, q, ownerID, telegram, meta, time.Now().UTC())

	return err
}

func marshalSection(v *models.TelegramCredentials) (any, error) {
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal telegram credentials: %w", err)
	}

	return data, nil
}

// storedMeta carries the encrypted token through the json boundary; the
// public MetaCredentials type deliberately refuses to serialize it.
type storedMeta struct {
	IsConnected                bool   `json:"is_connected"`
	PageID                     string `json:"page_id"`
	InstagramBusinessAccountID string `json:"instagram_business_account_id,omitempty"`
	AccessToken                string `json:"access_token,omitempty"`
}

func marshalMetaSection(v *models.MetaCredentials) (any, error) {
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(storedMeta{
		IsConnected:                v.IsConnected,
		PageID:                     v.PageID,
		InstagramBusinessAccountID: v.InstagramBusinessAccountID,
		AccessToken:                v.AccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meta credentials: %w", err)
	}

	return data, nil
}

func unmarshalMeta(data []byte, out *models.MetaCredentials) error {
	var stored storedMeta
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal meta credentials: %w", err)
	}

	out.IsConnected = stored.IsConnected
	out.PageID = stored.PageID
	out.InstagramBusinessAccountID = stored.InstagramBusinessAccountID
	out.AccessToken = stored.AccessToken

	return nil
}
