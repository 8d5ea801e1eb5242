// Package httpapi wires the engine's services onto gorilla/mux routes
// and defines the external JSON interface.
package httpapi

import (
	"time"

	"github.com/dodopay/ledgerengine/internal/domain"
)

// AccountResponse is the wire shape of an Account.
type AccountResponse struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"business_name"`
	Balance      string    `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

func accountResponseOf(acc *domain.Account) AccountResponse {
	return AccountResponse{
		ID:           acc.ID.String(),
		BusinessName: acc.BusinessName,
		Balance:      acc.Balance.String(),
		CreatedAt:    acc.CreatedAt,
	}
}

// TransactionResponse is the wire shape of a Transaction. It is also the
// JSON body delivered to webhook receivers.
type TransactionResponse struct {
	ID              string    `json:"id"`
	TransactionType string    `json:"transaction_type"`
	FromAccountID   *string   `json:"from_account_id,omitempty"`
	ToAccountID     *string   `json:"to_account_id,omitempty"`
	Amount          string    `json:"amount"`
	IdempotencyKey  *string   `json:"idempotency_key,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func transactionResponseOf(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              tx.ID.String(),
		TransactionType: string(tx.Kind),
		Amount:          tx.Amount.String(),
		IdempotencyKey:  tx.IdempotencyKey,
		CreatedAt:       tx.CreatedAt,
	}
	if tx.FromAccountID != nil {
		s := tx.FromAccountID.String()
		resp.FromAccountID = &s
	}
	if tx.ToAccountID != nil {
		s := tx.ToAccountID.String()
		resp.ToAccountID = &s
	}
	return resp
}

// WebhookResponse is the wire shape of a Webhook registration.
type WebhookResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Event     string    `json:"event"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

func webhookResponseOf(wh *domain.Webhook) WebhookResponse {
	return WebhookResponse{
		ID:        wh.ID.String(),
		URL:       wh.URL,
		Event:     string(wh.Event),
		AccountID: wh.AccountID.String(),
		CreatedAt: wh.CreatedAt,
	}
}

type createAccountRequest struct {
	BusinessName string `json:"business_name"`
}

type depositRequest struct {
	AccountID      string  `json:"account_id"`
	Amount         string  `json:"amount"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

type withdrawRequest struct {
	AccountID      string  `json:"account_id"`
	Amount         string  `json:"amount"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

type transferRequest struct {
	FromAccountID  string  `json:"from_account_id"`
	ToAccountID    string  `json:"to_account_id"`
	Amount         string  `json:"amount"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

type registerWebhookRequest struct {
	URL   string `json:"url"`
	Event string `json:"event"`
}
