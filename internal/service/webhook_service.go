package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/domain"
	"github.com/dodopay/ledgerengine/internal/repository"
	"github.com/dodopay/ledgerengine/internal/webhook"
)

// dispatcher is the subset of webhook.Dispatcher the service needs,
// named narrowly so fakes don't have to implement the whole background
// worker pool.
type dispatcher interface {
	Enqueue(d webhook.Delivery)
}

// WebhookService owns webhook registrations and the notify-on-completion
// pipeline.
type WebhookService struct {
	webhooks   repository.WebhookStore
	accounts   repository.AccountStore
	dispatcher dispatcher
}

func NewWebhookService(webhooks repository.WebhookStore, accounts repository.AccountStore, d dispatcher) *WebhookService {
	return &WebhookService{webhooks: webhooks, accounts: accounts, dispatcher: d}
}

// Register validates and persists a new webhook for accountID.
func (s *WebhookService) Register(ctx context.Context, accountID uuid.UUID, url string, event domain.WebhookEvent) (*domain.Webhook, error) {
	wh, err := domain.NewWebhook(accountID, url, event)
	if err != nil {
		return nil, err
	}
	if err := s.webhooks.Create(ctx, wh); err != nil {
		return nil, err
	}
	return wh, nil
}

// List returns every webhook registered for accountID.
func (s *WebhookService) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Webhook, error) {
	return s.webhooks.ListByAccount(ctx, accountID)
}

// Delete removes webhook id, scoped to accountID so one account cannot
// delete another's registration.
func (s *WebhookService) Delete(ctx context.Context, id, accountID uuid.UUID) error {
	return s.webhooks.DeleteByID(ctx, id, accountID)
}

// NotifyTransactionCompleted looks up the account for its
// webhook_secret, lists the webhooks registered for the completed
// event, and enqueues a signed delivery for each. Called from a
// goroutine the transaction service spawns after commit; it never
// blocks the HTTP response.
func (s *WebhookService) NotifyTransactionCompleted(ctx context.Context, payload TransactionPayload) {
	accountID, err := uuid.Parse(payload.originatingAccountID)
	if err != nil {
		log.Printf("webhook notify: invalid account id %q: %v", payload.originatingAccountID, err)
		return
	}

	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		log.Printf("webhook notify: account %s lookup failed, aborting notification: %v", accountID, err)
		return
	}

	hooks, err := s.webhooks.ListByAccount(ctx, accountID)
	if err != nil {
		log.Printf("webhook notify: listing webhooks for account %s failed: %v", accountID, err)
		return
	}

	body, err := json.Marshal(payload.response)
	if err != nil {
		log.Printf("webhook notify: marshal payload failed: %v", err)
		return
	}

	for _, hook := range hooks {
		if hook.Event != domain.EventTransactionCompleted {
			continue
		}
		s.dispatcher.Enqueue(webhook.Delivery{
			URL:     hook.URL,
			Payload: body,
			Secret:  acc.WebhookSecret,
		})
	}
}

// TransactionPayload wraps the outbound wire body with the originating
// account id the notify pipeline needs but that never appears on the
// wire itself.
type TransactionPayload struct {
	originatingAccountID string
	response             any
}

// NewTransactionPayload constructs the payload the transaction service
// hands to NotifyTransactionCompleted.
func NewTransactionPayload(originatingAccountID uuid.UUID, response any) TransactionPayload {
	return TransactionPayload{originatingAccountID: originatingAccountID.String(), response: response}
}
