package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/domain"
	"github.com/dodopay/ledgerengine/internal/money"
	"github.com/dodopay/ledgerengine/internal/repository"
)

// notifier is the subset of WebhookService the transaction service
// depends on, named narrowly to keep unit tests free of the real
// dispatcher.
type notifier interface {
	NotifyTransactionCompleted(ctx context.Context, payload TransactionPayload)
}

// TransactionService orchestrates a single mutation: build the domain
// object, invoke the atomic repository operation, resolve idempotency
// replay, and enqueue the webhook notification.
type TransactionService struct {
	transactions repository.TransactionStore
	webhooks     notifier
}

func NewTransactionService(transactions repository.TransactionStore, webhooks notifier) *TransactionService {
	return &TransactionService{transactions: transactions, webhooks: webhooks}
}

// Deposit credits amount into to's balance.
func (s *TransactionService) Deposit(ctx context.Context, to uuid.UUID, amount money.Money, idempotencyKey *string) (*domain.Transaction, error) {
	tx, err := domain.NewCredit(to, amount, idempotencyKey)
	if err != nil {
		return nil, err
	}

	result, err := s.transactions.ExecuteCredit(ctx, to, amount, tx)
	if err != nil {
		return s.resolve(ctx, err, idempotencyKey)
	}

	s.notifyAsync(result)
	return result, nil
}

// Withdraw debits amount from from's balance.
func (s *TransactionService) Withdraw(ctx context.Context, from uuid.UUID, amount money.Money, idempotencyKey *string) (*domain.Transaction, error) {
	tx, err := domain.NewDebit(from, amount, idempotencyKey)
	if err != nil {
		return nil, err
	}

	result, err := s.transactions.ExecuteDebit(ctx, from, amount, tx)
	if err != nil {
		return s.resolve(ctx, err, idempotencyKey)
	}

	s.notifyAsync(result)
	return result, nil
}

// Transfer atomically moves amount from "from" to "to".
func (s *TransactionService) Transfer(ctx context.Context, from, to uuid.UUID, amount money.Money, idempotencyKey *string) (*domain.Transaction, error) {
	tx, err := domain.NewTransfer(from, to, amount, idempotencyKey)
	if err != nil {
		return nil, err
	}

	result, err := s.transactions.ExecuteTransfer(ctx, from, to, amount, tx)
	if err != nil {
		return s.resolve(ctx, err, idempotencyKey)
	}

	s.notifyAsync(result)
	return result, nil
}

// History lists transactions touching accountID.
func (s *TransactionService) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	return s.transactions.ListByAccount(ctx, accountID, limit, offset)
}

// resolve handles idempotent replay: on DuplicateIdempotencyKey with a
// caller-supplied key, fetch and return the original transaction
// verbatim. Any other error is surfaced unchanged.
func (s *TransactionService) resolve(ctx context.Context, execErr error, idempotencyKey *string) (*domain.Transaction, error) {
	if apperrors.Is(execErr, apperrors.KindDuplicateIdempotencyKey) && idempotencyKey != nil {
		original, findErr := s.transactions.FindByIdempotencyKey(ctx, *idempotencyKey)
		if findErr != nil {
			return nil, execErr
		}
		return original, nil
	}
	return nil, execErr
}

// notifyAsync schedules the webhook notification on a background
// goroutine so the synchronous path returns immediately after commit.
// The goroutine is intentionally not tied to the request context:
// background webhook tasks are not cancelled by client disconnect.
func (s *TransactionService) notifyAsync(tx *domain.Transaction) {
	if s.webhooks == nil {
		return
	}
	payload := NewTransactionPayload(tx.OriginatingAccount(), transactionResponseOf(tx))
	go s.webhooks.NotifyTransactionCompleted(context.Background(), payload)
}

// transactionResponseOf is a minimal mirror of httpapi's TransactionResponse
// DTO, kept here so the service layer does not import the transport
// layer. httpapi constructs the wire-identical struct independently for
// the synchronous HTTP response.
func transactionResponseOf(tx *domain.Transaction) map[string]any {
	resp := map[string]any{
		"id":               tx.ID.String(),
		"transaction_type": string(tx.Kind),
		"amount":           tx.Amount.String(),
		"created_at":       tx.CreatedAt,
	}
	if tx.FromAccountID != nil {
		resp["from_account_id"] = tx.FromAccountID.String()
	}
	if tx.ToAccountID != nil {
		resp["to_account_id"] = tx.ToAccountID.String()
	}
	if tx.IdempotencyKey != nil {
		resp["idempotency_key"] = *tx.IdempotencyKey
	}
	return resp
}
