package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
)

// DefaultRateLimitPerHour is the per-key request budget applied when a
// caller does not override it at creation time.
const DefaultRateLimitPerHour = 1000

// ApiKey is a credential bound to one account. The raw secret is never
// stored, only its SHA-256 hex digest.
type ApiKey struct {
	ID               uuid.UUID
	AccountID        uuid.UUID
	KeyHash          string
	RateLimitPerHour int
	CreatedAt        time.Time
	LastUsedAt       *time.Time
}

// NewApiKey constructs an ApiKey record around an already-hashed secret.
// Hashing itself is the auth service's responsibility so that the raw
// secret never has to pass through the domain layer more than once.
func NewApiKey(accountID uuid.UUID, keyHash string, rateLimitPerHour int) (*ApiKey, error) {
	if accountID == uuid.Nil {
		return nil, apperrors.New(apperrors.KindInvalidAccountState, "account_id must not be nil")
	}
	if len(keyHash) != 64 {
		return nil, apperrors.New(apperrors.KindInvalidAccountState, "key_hash must be a 64-character SHA-256 hex digest")
	}
	if rateLimitPerHour <= 0 {
		rateLimitPerHour = DefaultRateLimitPerHour
	}

	return &ApiKey{
		ID:               uuid.New(),
		AccountID:        accountID,
		KeyHash:          keyHash,
		RateLimitPerHour: rateLimitPerHour,
		CreatedAt:        time.Now().UTC(),
	}, nil
}
