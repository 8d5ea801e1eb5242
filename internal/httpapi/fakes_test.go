package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/domain"
	"github.com/dodopay/ledgerengine/internal/money"
	"github.com/dodopay/ledgerengine/internal/webhook"
)

// testAccountStore is a minimal in-memory AccountStore for handler tests,
// independent of internal/service's own unexported fakes.
type testAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newTestAccountStore() *testAccountStore {
	return &testAccountStore{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (s *testAccountStore) Create(_ context.Context, acc *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = acc
	return nil
}

func (s *testAccountStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok || acc.IsTombstoned() {
		return nil, apperrors.ErrAccountNotFound
	}
	return acc, nil
}

func (s *testAccountStore) UpdateBalance(_ context.Context, id uuid.UUID, newBalance money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	acc.Balance = newBalance
	return nil
}

func (s *testAccountStore) UpdateBusinessName(_ context.Context, id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	return acc.RenameBusinessName(name)
}

func (s *testAccountStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[id]
	return ok, nil
}

func (s *testAccountStore) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Account
	for _, acc := range s.accounts {
		if !acc.IsTombstoned() {
			out = append(out, acc)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) || limit <= 0 {
		end = len(out)
	}
	return out[offset:end], nil
}

func (s *testAccountStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	now := time.Now().UTC()
	acc.DeletedAt = &now
	return nil
}

// testTransactionStore is a minimal in-memory TransactionStore mirroring
// the postgres repository's atomic-operation semantics closely enough to
// drive handler tests without a database.
type testTransactionStore struct {
	mu           sync.Mutex
	byID         map[uuid.UUID]*domain.Transaction
	byIdempotent map[string]*domain.Transaction
	accounts     *testAccountStore
}

func newTestTransactionStore(accounts *testAccountStore) *testTransactionStore {
	return &testTransactionStore{
		byID:         make(map[uuid.UUID]*domain.Transaction),
		byIdempotent: make(map[string]*domain.Transaction),
		accounts:     accounts,
	}
}

func (s *testTransactionStore) insertLocked(tx *domain.Transaction) error {
	if tx.IdempotencyKey != nil {
		if _, exists := s.byIdempotent[*tx.IdempotencyKey]; exists {
			return apperrors.ErrDuplicateIdempotencyKey
		}
	}
	s.byID[tx.ID] = tx
	if tx.IdempotencyKey != nil {
		s.byIdempotent[*tx.IdempotencyKey] = tx
	}
	return nil
}

func (s *testTransactionStore) Create(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(tx)
}

func (s *testTransactionStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byID[id]
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *testTransactionStore) FindByIdempotencyKey(_ context.Context, key string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byIdempotent[key]
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *testTransactionStore) IdempotencyKeyExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byIdempotent[key]
	return ok, nil
}

func (s *testTransactionStore) ListByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range s.byID {
		if (tx.FromAccountID != nil && *tx.FromAccountID == accountID) ||
			(tx.ToAccountID != nil && *tx.ToAccountID == accountID) {
			out = append(out, tx)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) || limit <= 0 {
		end = len(out)
	}
	return out[offset:end], nil
}

func (s *testTransactionStore) ExecuteCredit(ctx context.Context, to uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.IdempotencyKey != nil {
		if _, exists := s.byIdempotent[*tx.IdempotencyKey]; exists {
			return nil, apperrors.ErrDuplicateIdempotencyKey
		}
	}
	acc, err := s.accounts.FindByID(ctx, to)
	if err != nil {
		return nil, err
	}
	newBalance, err := acc.Balance.Add(amount)
	if err != nil {
		return nil, err
	}
	acc.Balance = newBalance
	if err := s.insertLocked(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *testTransactionStore) ExecuteDebit(ctx context.Context, from uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.IdempotencyKey != nil {
		if _, exists := s.byIdempotent[*tx.IdempotencyKey]; exists {
			return nil, apperrors.ErrDuplicateIdempotencyKey
		}
	}
	acc, err := s.accounts.FindByID(ctx, from)
	if err != nil {
		return nil, err
	}
	newBalance, err := acc.Balance.Subtract(amount)
	if err != nil {
		return nil, apperrors.InsufficientBalance(acc.Balance.String(), amount.String())
	}
	acc.Balance = newBalance
	if err := s.insertLocked(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *testTransactionStore) ExecuteTransfer(ctx context.Context, from, to uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.IdempotencyKey != nil {
		if _, exists := s.byIdempotent[*tx.IdempotencyKey]; exists {
			return nil, apperrors.ErrDuplicateIdempotencyKey
		}
	}
	fromAcc, err := s.accounts.FindByID(ctx, from)
	if err != nil {
		return nil, err
	}
	toAcc, err := s.accounts.FindByID(ctx, to)
	if err != nil {
		return nil, err
	}
	newFromBalance, err := fromAcc.Balance.Subtract(amount)
	if err != nil {
		return nil, apperrors.InsufficientBalance(fromAcc.Balance.String(), amount.String())
	}
	newToBalance, err := toAcc.Balance.Add(amount)
	if err != nil {
		return nil, err
	}
	fromAcc.Balance = newFromBalance
	toAcc.Balance = newToBalance
	if err := s.insertLocked(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// testWebhookStore is a minimal in-memory WebhookStore for handler tests.
type testWebhookStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Webhook
}

func newTestWebhookStore() *testWebhookStore {
	return &testWebhookStore{byID: make(map[uuid.UUID]*domain.Webhook)}
}

func (s *testWebhookStore) Create(_ context.Context, wh *domain.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[wh.ID] = wh
	return nil
}

func (s *testWebhookStore) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*domain.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Webhook
	for _, wh := range s.byID {
		if wh.AccountID == accountID {
			out = append(out, wh)
		}
	}
	return out, nil
}

func (s *testWebhookStore) DeleteByID(_ context.Context, id, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wh, ok := s.byID[id]
	if !ok || wh.AccountID != accountID {
		return apperrors.ErrWebhookNotFound
	}
	delete(s.byID, id)
	return nil
}

// noopDispatcher discards every delivery; handler tests only need to
// confirm the request/response cycle, not the async fan-out.
type noopDispatcher struct{}

func (noopDispatcher) Enqueue(webhook.Delivery) {}
