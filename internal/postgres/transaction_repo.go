package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/domain"
	"github.com/dodopay/ledgerengine/internal/money"
)

// uniqueViolation is the Postgres error code for a unique-constraint
// violation; the idempotency_key unique index reports collisions with it.
const uniqueViolation = "23505"

// TransactionRepository implements repository.TransactionStore. The
// three Execute operations each run inside one database transaction,
// and transfers acquire their two row locks in a deterministic order so
// opposing transfers never deadlock.
type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO transactions (id, transaction_type, from_account_id, to_account_id, amount, idempotency_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tx.ID, tx.Kind, tx.FromAccountID, tx.ToAccountID, tx.Amount.String(), tx.IdempotencyKey, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, transaction_type, from_account_id, to_account_id, amount, idempotency_key, created_at
		 FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, transaction_type, from_account_id, to_account_id, amount, idempotency_key, created_at
		 FROM transactions WHERE idempotency_key = $1`, key)
	return scanTransaction(row)
}

func (r *TransactionRepository) IdempotencyKeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE idempotency_key = $1)`, key,
	).Scan(&exists)
	return exists, err
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, transaction_type, from_account_id, to_account_id, amount, idempotency_key, created_at
		 FROM transactions
		 WHERE from_account_id = $1 OR to_account_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ExecuteCredit updates to's balance, fails NotFound if the row didn't
// exist, inserts the ledger row, fails DuplicateIdempotencyKey on a
// unique-constraint collision, and commits.
func (r *TransactionRepository) ExecuteCredit(ctx context.Context, to uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	var currentBalance string
	err = dbTx.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, to,
	).Scan(&currentBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}

	bal, err := money.New(currentBalance)
	if err != nil {
		return nil, fmt.Errorf("stored balance violates invariant: %w", err)
	}
	newBal, err := bal.Add(amount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidAmount, "resulting balance exceeds maximum", err)
	}

	tag, err := dbTx.Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		newBal.String(), to)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrAccountNotFound
	}

	if err := insertLedgerRow(ctx, dbTx, tx); err != nil {
		return nil, err
	}

	// Once commit begins, client disconnect no longer aborts it.
	if err := dbTx.Commit(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return tx, nil
}

// ExecuteDebit mirrors ExecuteCredit for the opposite direction,
// rejecting the operation if it would drive the balance negative.
func (r *TransactionRepository) ExecuteDebit(ctx context.Context, from uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	var currentBalance string
	err = dbTx.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, from,
	).Scan(&currentBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}

	bal, err := money.New(currentBalance)
	if err != nil {
		return nil, fmt.Errorf("stored balance violates invariant: %w", err)
	}
	newBal, err := bal.Subtract(amount)
	if err != nil {
		return nil, apperrors.InsufficientBalance(bal.String(), amount.String())
	}

	tag, err := dbTx.Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		newBal.String(), from)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrAccountNotFound
	}

	if err := insertLedgerRow(ctx, dbTx, tx); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return tx, nil
}

// ExecuteTransfer moves funds between two accounts atomically. A total
// ordering on account ids (compared as raw bytes) gives every concurrent
// transfer the same lock acquisition sequence, ruling out deadlock.
func (r *TransactionRepository) ExecuteTransfer(ctx context.Context, from, to uuid.UUID, amount money.Money, tx *domain.Transaction) (*domain.Transaction, error) {
	if from == to {
		return nil, apperrors.ErrSelfTransferNotAllowed
	}

	first, second := from, to
	if bytes.Compare(from[:], to[:]) > 0 {
		first, second = to, from
	}

	dbTx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	balances := make(map[uuid.UUID]money.Money, 2)
	for _, id := range []uuid.UUID{first, second} {
		var balStr string
		err = dbTx.QueryRow(ctx,
			`SELECT balance FROM accounts WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id,
		).Scan(&balStr)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.ErrAccountNotFound
			}
			return nil, fmt.Errorf("lock account %s: %w", id, err)
		}
		bal, err := money.New(balStr)
		if err != nil {
			return nil, fmt.Errorf("stored balance violates invariant: %w", err)
		}
		balances[id] = bal
	}

	fromBalance := balances[from]
	toBalance := balances[to]

	newFromBalance, err := fromBalance.Subtract(amount)
	if err != nil {
		return nil, apperrors.InsufficientBalance(fromBalance.String(), amount.String())
	}
	newToBalance, err := toBalance.Add(amount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidAmount, "resulting balance exceeds maximum", err)
	}

	tagFrom, err := dbTx.Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		newFromBalance.String(), from)
	if err != nil {
		return nil, fmt.Errorf("update from balance: %w", err)
	}
	if tagFrom.RowsAffected() != 1 {
		return nil, apperrors.ErrAccountNotFound
	}

	tagTo, err := dbTx.Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		newToBalance.String(), to)
	if err != nil {
		return nil, fmt.Errorf("update to balance: %w", err)
	}
	if tagTo.RowsAffected() != 1 {
		return nil, apperrors.ErrAccountNotFound
	}

	if err := insertLedgerRow(ctx, dbTx, tx); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return tx, nil
}

func insertLedgerRow(ctx context.Context, dbTx pgx.Tx, tx *domain.Transaction) error {
	_, err := dbTx.Exec(ctx,
		`INSERT INTO transactions (id, transaction_type, from_account_id, to_account_id, amount, idempotency_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tx.ID, tx.Kind, tx.FromAccountID, tx.ToAccountID, tx.Amount.String(), tx.IdempotencyKey, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert ledger row: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t              domain.Transaction
		kind           string
		from, to       *uuid.UUID
		amountStr      string
		idempotencyKey *string
	)
	err := row.Scan(&t.ID, &kind, &from, &to, &amountStr, &idempotencyKey, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	amt, err := money.New(amountStr)
	if err != nil {
		return nil, fmt.Errorf("stored amount violates invariant: %w", err)
	}
	return domain.RehydrateTransaction(t.ID, domain.TransactionKind(kind), from, to, amt, idempotencyKey, t.CreatedAt)
}
