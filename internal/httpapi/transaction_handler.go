package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/money"
	"github.com/dodopay/ledgerengine/internal/service"
)

// TransactionHandler serves the /transactions routes.
type TransactionHandler struct {
	transactions *service.TransactionService
}

func NewTransactionHandler(transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// Deposit handles POST /transactions/deposit.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperrors.New(apperrors.KindInvalidAmount, "malformed JSON body"))
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		writeError(w, apperrors.ErrAccountNotFound)
		return
	}
	amount, err := money.New(req.Amount)
	if err != nil {
		writeError(w, apperrors.New(apperrors.KindInvalidAmount, "amount must be a valid decimal string"))
		return
	}

	tx, err := h.transactions.Deposit(r.Context(), accountID, amount, req.IdempotencyKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponseOf(tx))
}

// Withdraw handles POST /transactions/withdraw.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperrors.New(apperrors.KindInvalidAmount, "malformed JSON body"))
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		writeError(w, apperrors.ErrAccountNotFound)
		return
	}
	amount, err := money.New(req.Amount)
	if err != nil {
		writeError(w, apperrors.New(apperrors.KindInvalidAmount, "amount must be a valid decimal string"))
		return
	}

	tx, err := h.transactions.Withdraw(r.Context(), accountID, amount, req.IdempotencyKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponseOf(tx))
}

// Transfer handles POST /transactions/transfer.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperrors.New(apperrors.KindInvalidAmount, "malformed JSON body"))
		return
	}

	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		writeError(w, apperrors.ErrAccountNotFound)
		return
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		writeError(w, apperrors.ErrAccountNotFound)
		return
	}
	amount, err := money.New(req.Amount)
	if err != nil {
		writeError(w, apperrors.New(apperrors.KindInvalidAmount, "amount must be a valid decimal string"))
		return
	}

	tx, err := h.transactions.Transfer(r.Context(), fromID, toID, amount, req.IdempotencyKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponseOf(tx))
}

// History handles GET /transactions/history?account_id=&limit=&offset=.
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.URL.Query().Get("account_id"))
	if err != nil {
		writeError(w, apperrors.ErrAccountNotFound)
		return
	}
	limit, offset := pageParams(r)

	txs, err := h.transactions.History(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponseOf(tx))
	}
	writeJSON(w, http.StatusOK, out)
}
