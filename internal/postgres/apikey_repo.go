package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/domain"
)

// ApiKeyRepository implements repository.ApiKeyStore.
type ApiKeyRepository struct {
	db *pgxpool.Pool
}

func NewApiKeyRepository(db *pgxpool.Pool) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

func (r *ApiKeyRepository) Create(ctx context.Context, key *domain.ApiKey) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO api_keys (id, key_hash, account_id, rate_limit_per_hour, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		key.ID, key.KeyHash, key.AccountID, key.RateLimitPerHour, key.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.KindConstraintViolation, "key_hash collision")
		}
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

func (r *ApiKeyRepository) FindByHash(ctx context.Context, keyHash string) (*domain.ApiKey, error) {
	var (
		key        domain.ApiKey
		lastUsedAt *time.Time
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, account_id, key_hash, rate_limit_per_hour, created_at, last_used_at
		 FROM api_keys WHERE key_hash = $1`, keyHash,
	).Scan(&key.ID, &key.AccountID, &key.KeyHash, &key.RateLimitPerHour, &key.CreatedAt, &lastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("find api key: %w", err)
	}
	key.LastUsedAt = lastUsedAt
	return &key, nil
}

func (r *ApiKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, when time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, when, id)
	if err != nil {
		return fmt.Errorf("update api key last_used_at: %w", err)
	}
	return nil
}

func (r *ApiKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return nil
}

func (r *ApiKeyRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM api_keys WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
