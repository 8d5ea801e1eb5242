// Package domain holds the engine's pure data types: Account,
// Transaction, Webhook, and ApiKey. Constructors enforce every
// structural invariant; violations are hard errors, never silently
// coerced, whether the value is being built fresh or reconstructed from
// storage.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/money"
)

const maxBusinessNameBytes = 255

// Account is a business entity holding a balance; the root of ownership
// for its Transactions, Webhooks, and ApiKeys.
type Account struct {
	ID            uuid.UUID
	BusinessName  string
	Balance       money.Money
	WebhookSecret []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// NewAccount constructs a fresh Account with a zero balance and a
// server-generated id and webhook secret. businessName is trimmed before
// validation.
func NewAccount(businessName string, secret []byte) (*Account, error) {
	name := strings.TrimSpace(businessName)
	if name == "" {
		return nil, apperrors.New(apperrors.KindInvalidAccountState, "business_name must not be empty")
	}
	if len(name) > maxBusinessNameBytes {
		return nil, apperrors.New(apperrors.KindInvalidAccountState, "business_name exceeds 255 bytes")
	}
	if len(secret) == 0 {
		return nil, apperrors.New(apperrors.KindInvalidAccountState, "webhook_secret must not be empty")
	}

	now := time.Now().UTC()
	return &Account{
		ID:            uuid.New(),
		BusinessName:  name,
		Balance:       money.Zero,
		WebhookSecret: secret,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// RehydrateAccount reconstructs an Account from storage, re-validating
// every invariant a fresh construction would enforce.
func RehydrateAccount(id uuid.UUID, businessName string, balance money.Money, secret []byte, createdAt, updatedAt time.Time, deletedAt *time.Time) (*Account, error) {
	name := strings.TrimSpace(businessName)
	if name == "" || len(name) > maxBusinessNameBytes {
		return nil, apperrors.New(apperrors.KindInvalidAccountState, "stored business_name violates invariant")
	}
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.KindInvalidAccountState, "account id must not be nil")
	}
	if len(secret) == 0 {
		return nil, apperrors.New(apperrors.KindInvalidAccountState, "stored webhook_secret must not be empty")
	}
	return &Account{
		ID:            id,
		BusinessName:  name,
		Balance:       balance,
		WebhookSecret: secret,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
	}, nil
}

// IsTombstoned reports whether the account has been soft-deleted.
func (a *Account) IsTombstoned() bool { return a.DeletedAt != nil }

// RenameBusinessName validates and applies a new business name,
// advancing UpdatedAt. Only the structural invariants are checked here
// (non-empty, ≤255 bytes after trimming); any richer naming policy
// belongs to the caller.
func (a *Account) RenameBusinessName(newName string) error {
	name := strings.TrimSpace(newName)
	if name == "" {
		return apperrors.New(apperrors.KindInvalidAccountState, "business_name must not be empty")
	}
	if len(name) > maxBusinessNameBytes {
		return apperrors.New(apperrors.KindInvalidAccountState, "business_name exceeds 255 bytes")
	}
	a.BusinessName = name
	a.UpdatedAt = time.Now().UTC()
	return nil
}
