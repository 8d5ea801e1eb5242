package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
)

// WebhookEvent is a closed tag for the outbound notification kinds the
// engine can fire.
type WebhookEvent string

const (
	EventTransactionCompleted WebhookEvent = "transaction.completed"
	EventAccountCreated       WebhookEvent = "account.created"
)

func (e WebhookEvent) valid() bool {
	switch e {
	case EventTransactionCompleted, EventAccountCreated:
		return true
	default:
		return false
	}
}

// Webhook registers one URL for one event kind on behalf of an account.
type Webhook struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	URL       string
	Event     WebhookEvent
	CreatedAt time.Time
}

// NewWebhook constructs a Webhook registration, validating the URL
// scheme and event enum.
func NewWebhook(accountID uuid.UUID, url string, event WebhookEvent) (*Webhook, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, apperrors.New(apperrors.KindInvalidWebhookURL, "url must begin with http:// or https://")
	}
	if !event.valid() {
		return nil, apperrors.New(apperrors.KindInvalidWebhookURL, "unrecognized webhook event")
	}
	if accountID == uuid.Nil {
		return nil, apperrors.New(apperrors.KindInvalidWebhookURL, "account_id must not be nil")
	}

	return &Webhook{
		ID:        uuid.New(),
		AccountID: accountID,
		URL:       url,
		Event:     event,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RehydrateWebhook reconstructs a Webhook from storage.
func RehydrateWebhook(id, accountID uuid.UUID, url string, event WebhookEvent, createdAt time.Time) (*Webhook, error) {
	wh, err := NewWebhook(accountID, url, event)
	if err != nil {
		return nil, err
	}
	wh.ID = id
	wh.CreatedAt = createdAt
	return wh, nil
}
