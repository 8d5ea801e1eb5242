package service

import (
	"context"
	"crypto/rand"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/domain"
	"github.com/dodopay/ledgerengine/internal/repository"
)

// AccountService owns account lifecycle operations: creation, lookup,
// listing, and soft deletion.
type AccountService struct {
	accounts repository.AccountStore
}

func NewAccountService(accounts repository.AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

// Create builds a fresh Account with a server-generated webhook secret
// and persists it.
func (s *AccountService) Create(ctx context.Context, businessName string) (*domain.Account, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	acc, err := domain.NewAccount(businessName, secret)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Get looks up an account by id. Tombstoned accounts are invisible.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

// List returns a page of non-tombstoned accounts.
func (s *AccountService) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return s.accounts.List(ctx, limit, offset)
}

// SoftDelete tombstones an account. This is a one-way transition; there
// is no undelete.
func (s *AccountService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.accounts.SoftDelete(ctx, id)
}
