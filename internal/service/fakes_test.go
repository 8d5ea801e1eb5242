package service

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

// fakeAccountStore is an in-memory AccountStore; hand-written fakes
// substitute for the SQL backends instead of a mocking framework.
type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (f *fakeAccountStore) Create(_ context.Context, acc *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[acc.ID] = acc
	return nil
}

func (f *fakeAccountStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok || acc.IsTombstoned() {
		return nil, apperrors.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeAccountStore) UpdateBalance(_ context.Context, id uuid.UUID, newBalance money.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	acc.Balance = newBalance
	return nil
}

func (f *fakeAccountStore) UpdateBusinessName(_ context.Context, id uuid.UUID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	return acc.RenameBusinessName(name)
}

func (f *fakeAccountStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.accounts[id]
	return ok, nil
}

func (f *fakeAccountStore) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Account
	for _, acc := range f.accounts {
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

func (f *fakeAccountStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	now := time.Now().UTC()
	acc.DeletedAt = &now
	return nil
}

// fakeTransactionStore is an in-memory TransactionStore that mimics the
// postgres repository's atomicity and idempotency semantics closely
// enough to exercise the service layer without a database. One mutex
// serializes every operation in place of row locks and lock ordering.
type fakeTransactionStore struct {
	mu           sync.Mutex
	byID         map[uuid.UUID]*domain.Transaction
	byIdempotent map[string]*domain.Transaction
	accounts     *fakeAccountStore
}

func newFakeTransactionStore(accounts *fakeAccountStore) *fakeTransactionStore {
	return &fakeTransactionStore{
		byID:         make(map[uuid.UUID]*domain.Transaction),
		byIdempotent: make(map[string]*domain.Transaction),
		accounts:     accounts,
	}
}

func (f *fakeTransactionStore) Create(_ context.Context, tx *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(tx)
}

func (f *fakeTransactionStore) insertLocked(tx *domain.Transaction) error {
	if tx.IdempotencyKey != nil {
		if _, exists := f.byIdempotent[*tx.IdempotencyKey]; exists {
			return apperrors.ErrDuplicateIdempotencyKey
		}
	}
	f.byID[tx.ID] = tx
	if tx.IdempotencyKey != nil {
		f.byIdempotent[*tx.IdempotencyKey] = tx
	}
	return nil
}

func (f *fakeTransactionStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (f *fakeTransactionStore) FindByIdempotencyKey(_ context.Context, key string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.byIdempotent[key]
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (f *fakeTransactionStore) IdempotencyKeyExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byIdempotent[key]
	return ok, nil
}

func (f *fakeTransactionStore) ListByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range f.byID {
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

func (f *fakeTransactionStore) ExecuteCredit(ctx context.Context, to uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tx.IdempotencyKey != nil {
		if _, exists := f.byIdempotent[*tx.IdempotencyKey]; exists {
			return nil, apperrors.ErrDuplicateIdempotencyKey
		}
	}

	acc, err := f.accounts.FindByID(ctx, to)
	if err != nil {
		return nil, err
	}
	newBalance, err := acc.Balance.Add(amount)
	if err != nil {
		return nil, err
	}
	acc.Balance = newBalance
	if err := f.insertLocked(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (f *fakeTransactionStore) ExecuteDebit(ctx context.Context, from uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tx.IdempotencyKey != nil {
		if _, exists := f.byIdempotent[*tx.IdempotencyKey]; exists {
			return nil, apperrors.ErrDuplicateIdempotencyKey
		}
	}

	acc, err := f.accounts.FindByID(ctx, from)
	if err != nil {
		return nil, err
	}
	newBalance, err := acc.Balance.Subtract(amount)
	if err != nil {
		return nil, apperrors.InsufficientBalance(acc.Balance.String(), amount.String())
	}
	acc.Balance = newBalance
	if err := f.insertLocked(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (f *fakeTransactionStore) ExecuteTransfer(ctx context.Context, from, to uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tx.IdempotencyKey != nil {
		if _, exists := f.byIdempotent[*tx.IdempotencyKey]; exists {
			return nil, apperrors.ErrDuplicateIdempotencyKey
		}
	}

	fromAcc, err := f.accounts.FindByID(ctx, from)
	if err != nil {
		return nil, err
	}
	toAcc, err := f.accounts.FindByID(ctx, to)
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
	if err := f.insertLocked(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// fakeWebhookStore is an in-memory WebhookStore.
type fakeWebhookStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Webhook
}

func newFakeWebhookStore() *fakeWebhookStore {
	return &fakeWebhookStore{byID: make(map[uuid.UUID]*domain.Webhook)}
}

func (f *fakeWebhookStore) Create(_ context.Context, wh *domain.Webhook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[wh.ID] = wh
	return nil
}

func (f *fakeWebhookStore) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*domain.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Webhook
	for _, wh := range f.byID {
		if wh.AccountID == accountID {
			out = append(out, wh)
		}
	}
	return out, nil
}

func (f *fakeWebhookStore) DeleteByID(_ context.Context, id, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	wh, ok := f.byID[id]
	if !ok || wh.AccountID != accountID {
		return apperrors.ErrWebhookNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeDispatcher records enqueued deliveries instead of sending them over
// the network.
type fakeDispatcher struct {
	mu         sync.Mutex
	deliveries []webhook.Delivery
}

func (f *fakeDispatcher) Enqueue(d webhook.Delivery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, d)
}

func (f *fakeDispatcher) snapshot() []webhook.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]webhook.Delivery, len(f.deliveries))
	copy(out, f.deliveries)
	return out
}

// fakeApiKeyStore is an in-memory ApiKeyStore.
type fakeApiKeyStore struct {
	mu     sync.Mutex
	byHash map[string]*domain.ApiKey
	byID   map[uuid.UUID]*domain.ApiKey
}

func newFakeApiKeyStore() *fakeApiKeyStore {
	return &fakeApiKeyStore{byHash: make(map[string]*domain.ApiKey), byID: make(map[uuid.UUID]*domain.ApiKey)}
}

func (f *fakeApiKeyStore) Create(_ context.Context, key *domain.ApiKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byHash[key.KeyHash]; exists {
		return apperrors.New(apperrors.KindConstraintViolation, "duplicate api key hash")
	}
	f.byHash[key.KeyHash] = key
	f.byID[key.ID] = key
	return nil
}

func (f *fakeApiKeyStore) FindByHash(_ context.Context, keyHash string) (*domain.ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.byHash[keyHash]
	if !ok {
		return nil, apperrors.ErrInvalidAPIKey
	}
	return key, nil
}

func (f *fakeApiKeyStore) UpdateLastUsed(_ context.Context, id uuid.UUID, when time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.byID[id]
	if !ok {
		return apperrors.New(apperrors.KindInvalidAPIKey, "api key not found")
	}
	key.LastUsedAt = &when
	return nil
}

func (f *fakeApiKeyStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.byID[id]
	if !ok {
		return apperrors.New(apperrors.KindInvalidAPIKey, "api key not found")
	}
	delete(f.byHash, key.KeyHash)
	delete(f.byID, id)
	return nil
}

func (f *fakeApiKeyStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}
