package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/domain"
)

// WebhookRepository implements repository.WebhookStore.
type WebhookRepository struct {
	db *pgxpool.Pool
}

func NewWebhookRepository(db *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, wh *domain.Webhook) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO webhooks (id, account_id, url, event, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		wh.ID, wh.AccountID, wh.URL, wh.Event, wh.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert webhook: %w", err)
	}
	return nil
}

func (r *WebhookRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Webhook, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, account_id, url, event, created_at FROM webhooks WHERE account_id = $1 ORDER BY created_at`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var out []*domain.Webhook
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (r *WebhookRepository) DeleteByID(ctx context.Context, id, accountID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM webhooks WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrWebhookNotFound
	}
	return nil
}

func scanWebhook(row rowScanner) (*domain.Webhook, error) {
	var (
		wh    domain.Webhook
		event string
	)
	err := row.Scan(&wh.ID, &wh.AccountID, &wh.URL, &event, &wh.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("scan webhook: %w", err)
	}
	return domain.RehydrateWebhook(wh.ID, wh.AccountID, wh.URL, domain.WebhookEvent(event), wh.CreatedAt)
}
