package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/money"
)

const maxIdempotencyKeyBytes = 255

// TransactionKind is a closed tag for the three ledger operation shapes.
type TransactionKind string

const (
	KindCredit   TransactionKind = "credit"
	KindDebit    TransactionKind = "debit"
	KindTransfer TransactionKind = "transfer"
)

func (k TransactionKind) valid() bool {
	switch k {
	case KindCredit, KindDebit, KindTransfer:
		return true
	default:
		return false
	}
}

// Transaction is an append-only ledger entry. Once constructed and
// committed it is immutable; there is no lifecycle state to transition.
type Transaction struct {
	ID             uuid.UUID
	Kind           TransactionKind
	FromAccountID  *uuid.UUID
	ToAccountID    *uuid.UUID
	Amount         money.Money
	IdempotencyKey *string
	CreatedAt      time.Time
}

// NewCredit constructs a Credit ledger entry: increases to's balance.
func NewCredit(to uuid.UUID, amount money.Money, idempotencyKey *string) (*Transaction, error) {
	return newTransaction(KindCredit, nil, &to, amount, idempotencyKey)
}

// NewDebit constructs a Debit ledger entry: decreases from's balance.
func NewDebit(from uuid.UUID, amount money.Money, idempotencyKey *string) (*Transaction, error) {
	return newTransaction(KindDebit, &from, nil, amount, idempotencyKey)
}

// NewTransfer constructs a Transfer ledger entry: moves amount from one
// account to another atomically. from and to must differ.
func NewTransfer(from, to uuid.UUID, amount money.Money, idempotencyKey *string) (*Transaction, error) {
	if from == to {
		return nil, apperrors.ErrSelfTransferNotAllowed
	}
	return newTransaction(KindTransfer, &from, &to, amount, idempotencyKey)
}

func newTransaction(kind TransactionKind, from, to *uuid.UUID, amount money.Money, idempotencyKey *string) (*Transaction, error) {
	if !kind.valid() {
		return nil, apperrors.New(apperrors.KindInvalidTransactionType, "unrecognized transaction kind")
	}
	if !amount.IsPositive() {
		return nil, apperrors.New(apperrors.KindInvalidAmount, "amount must be strictly positive")
	}
	if idempotencyKey != nil {
		key := *idempotencyKey
		if key == "" {
			return nil, apperrors.New(apperrors.KindInvalidTransactionType, "idempotency_key must not be empty when present")
		}
		if len(key) > maxIdempotencyKeyBytes {
			return nil, apperrors.New(apperrors.KindInvalidTransactionType, "idempotency_key exceeds 255 bytes")
		}
	}

	switch kind {
	case KindCredit:
		if from != nil || to == nil {
			return nil, apperrors.New(apperrors.KindInvalidTransactionType, "credit requires to_account_id only")
		}
	case KindDebit:
		if to != nil || from == nil {
			return nil, apperrors.New(apperrors.KindInvalidTransactionType, "debit requires from_account_id only")
		}
	case KindTransfer:
		if from == nil || to == nil {
			return nil, apperrors.New(apperrors.KindInvalidTransactionType, "transfer requires both from_account_id and to_account_id")
		}
		if *from == *to {
			return nil, apperrors.ErrSelfTransferNotAllowed
		}
	}

	return &Transaction{
		ID:             uuid.New(),
		Kind:           kind,
		FromAccountID:  from,
		ToAccountID:    to,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// RehydrateTransaction reconstructs a Transaction from storage,
// re-validating the same invariants NewCredit/NewDebit/NewTransfer
// enforce.
func RehydrateTransaction(id uuid.UUID, kind TransactionKind, from, to *uuid.UUID, amount money.Money, idempotencyKey *string, createdAt time.Time) (*Transaction, error) {
	tx, err := newTransaction(kind, from, to, amount, idempotencyKey)
	if err != nil {
		return nil, err
	}
	tx.ID = id
	tx.CreatedAt = createdAt
	return tx, nil
}

// OriginatingAccount returns the account that should receive a webhook
// notification for this transaction: the "from" for Debit/Transfer, the
// "to" for Credit.
func (t *Transaction) OriginatingAccount() uuid.UUID {
	if t.Kind == KindCredit {
		return *t.ToAccountID
	}
	return *t.FromAccountID
}
