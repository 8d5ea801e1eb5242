// Package service orchestrates mutations across domain entities and
// repository contracts: building domain objects, invoking atomic
// repository operations, handling idempotency replay, and enqueuing
// webhook notifications.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/repository"
)

// Principal is the authenticated identity carried through a request.
type Principal struct {
	AccountID string
	// RateLimitPerHour is the per-key budget from the caller's api_keys
	// row. The rate limiter middleware does not read it: buckets are keyed
	// by remote IP and sized from the global RATE_LIMIT_PER_HOUR setting.
	RateLimitPerHour int
}

// AuthService resolves raw API keys to the Principal they belong to.
type AuthService struct {
	keys repository.ApiKeyStore
}

func NewAuthService(keys repository.ApiKeyStore) *AuthService {
	return &AuthService{keys: keys}
}

// Verify hashes rawKey, looks it up, and best-effort records last-used
// time. A failure in the last-used update is logged but never fails
// authentication; the principal has already been proven valid.
func (s *AuthService) Verify(ctx context.Context, rawKey string) (*Principal, error) {
	if rawKey == "" {
		return nil, apperrors.ErrInvalidAPIKey
	}
	hash := hashKey(rawKey)

	key, err := s.keys.FindByHash(ctx, hash)
	if err != nil {
		return nil, apperrors.ErrInvalidAPIKey
	}

	if err := s.keys.UpdateLastUsed(ctx, key.ID, time.Now().UTC()); err != nil {
		log.Printf("auth: best-effort last-used update failed for key %s: %v", key.ID, err)
	}

	return &Principal{
		AccountID:        key.AccountID.String(),
		RateLimitPerHour: key.RateLimitPerHour,
	}, nil
}

// HashRawKey exposes the hashing primitive so callers that mint keys
// can compute the stored digest without re-deriving the SHA-256
// convention.
func HashRawKey(rawKey string) string { return hashKey(rawKey) }

func hashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}
