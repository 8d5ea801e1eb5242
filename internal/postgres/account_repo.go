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
	"github.com/dodopay/ledgerengine/internal/money"
)

// AccountRepository implements repository.AccountStore against a
// pgxpool.Pool. Every query filters on deleted_at IS NULL so tombstoned
// accounts stay invisible.
type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, acc *domain.Account) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (id, business_name, balance, webhook_secret, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		acc.ID, acc.BusinessName, acc.Balance.String(), acc.WebhookSecret, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, business_name, balance, webhook_secret, created_at, updated_at, deleted_at
		 FROM accounts WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanAccount(row)
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, newBalance money.Money) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		newBalance.String(), id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateBusinessName(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET business_name = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		name, id)
	if err != nil {
		return fmt.Errorf("update account business_name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1 AND deleted_at IS NULL)`, id,
	).Scan(&exists)
	return exists, err
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, business_name, balance, webhook_secret, created_at, updated_at, deleted_at
		 FROM accounts WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (r *AccountRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		acc        domain.Account
		balanceStr string
		deletedAt  *time.Time
	)
	err := row.Scan(&acc.ID, &acc.BusinessName, &balanceStr, &acc.WebhookSecret, &acc.CreatedAt, &acc.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	bal, err := money.New(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("stored balance violates invariant: %w", err)
	}
	acc.Balance = bal
	acc.DeletedAt = deletedAt
	return &acc, nil
}
