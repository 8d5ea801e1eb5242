// Package repository defines the capability sets the engine depends on
// for persistence: small, focused interfaces rather than one inheritance
// hierarchy. SQL implementations live in internal/postgres; test doubles
// for the service layer implement these same signatures directly rather
// than through a mocking framework.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/domain"
	"github.com/dodopay/ledgerengine/internal/money"
)

// AccountStore is the persistence contract for Account.
type AccountStore interface {
	Create(ctx context.Context, acc *domain.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, newBalance money.Money) error
	UpdateBusinessName(ctx context.Context, id uuid.UUID, name string) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// TransactionStore is the persistence contract for Transaction, including
// the three atomic mutation operations that are the heart of the engine.
type TransactionStore interface {
	// Create inserts a ledger row without any accompanying balance
	// mutation. Non-atomic; used only for replay and test fixtures, never
	// on the synchronous mutation path.
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	IdempotencyKeyExists(ctx context.Context, key string) (bool, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error)

	// ExecuteCredit atomically increases to's balance and inserts the
	// ledger row, in one database transaction.
	ExecuteCredit(ctx context.Context, to uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error)
	// ExecuteDebit atomically checks and decreases from's balance and
	// inserts the ledger row, in one database transaction.
	ExecuteDebit(ctx context.Context, from uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error)
	// ExecuteTransfer atomically moves amount from "from" to "to" using
	// deadlock-free deterministic lock ordering, in one database
	// transaction.
	ExecuteTransfer(ctx context.Context, from, to uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error)
}

// WebhookStore is the persistence contract for Webhook registrations.
type WebhookStore interface {
	Create(ctx context.Context, wh *domain.Webhook) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Webhook, error)
	DeleteByID(ctx context.Context, id, accountID uuid.UUID) error
}

// ApiKeyStore is the persistence contract for ApiKey credentials.
type ApiKeyStore interface {
	Create(ctx context.Context, key *domain.ApiKey) error
	FindByHash(ctx context.Context, keyHash string) (*domain.ApiKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID, when time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
