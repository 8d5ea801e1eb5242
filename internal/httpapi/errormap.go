package httpapi

import (
	"errors"
	"net/http"

	"github.com/dodopay/ledgerengine/internal/apperrors"
)

// errorResponse is the stable error body shape returned on every failure.
type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// statusFor is a closed, total mapping from error kind to HTTP status.
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidAmount,
		apperrors.KindInvalidAccountState,
		apperrors.KindInvalidTransactionType,
		apperrors.KindSelfTransferNotAllowed,
		apperrors.KindInvalidWebhookURL,
		apperrors.KindInsufficientBalance:
		return http.StatusBadRequest
	case apperrors.KindAccountNotFound,
		apperrors.KindTransactionNotFound,
		apperrors.KindWebhookNotFound:
		return http.StatusNotFound
	case apperrors.KindDuplicateIdempotencyKey:
		return http.StatusConflict
	case apperrors.KindInvalidAPIKey:
		return http.StatusUnauthorized
	case apperrors.KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case apperrors.KindConstraintViolation:
		return http.StatusInternalServerError
	case apperrors.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// kindName returns the stable string code surfaced in the response body
// alongside the HTTP status.
func kindName(kind apperrors.Kind) string {
	switch kind {
	case apperrors.KindInvalidAmount:
		return "INVALID_AMOUNT"
	case apperrors.KindInvalidAccountState:
		return "INVALID_ACCOUNT_STATE"
	case apperrors.KindInvalidTransactionType:
		return "INVALID_TRANSACTION_TYPE"
	case apperrors.KindSelfTransferNotAllowed:
		return "SELF_TRANSFER_NOT_ALLOWED"
	case apperrors.KindInvalidWebhookURL:
		return "INVALID_WEBHOOK_URL"
	case apperrors.KindInsufficientBalance:
		return "INSUFFICIENT_BALANCE"
	case apperrors.KindAccountNotFound:
		return "ACCOUNT_NOT_FOUND"
	case apperrors.KindTransactionNotFound:
		return "TRANSACTION_NOT_FOUND"
	case apperrors.KindWebhookNotFound:
		return "WEBHOOK_NOT_FOUND"
	case apperrors.KindDuplicateIdempotencyKey:
		return "DUPLICATE_IDEMPOTENCY_KEY"
	case apperrors.KindInvalidAPIKey:
		return "INVALID_API_KEY"
	case apperrors.KindRateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	case apperrors.KindConstraintViolation:
		return "CONSTRAINT_VIOLATION"
	case apperrors.KindStorageUnavailable:
		return "STORAGE_UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// writeError converts any error into the HTTP boundary's stable
// {error, code} JSON body. Errors that are not *apperrors.Error surface
// as an opaque 500; the engine never leaks internal error text for
// unrecognized failures.
func writeError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)

	body := errorResponse{
		Error: err.Error(),
		Code:  kindName(kind),
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body.Details = appErr.Details
	}
	if kind == apperrors.KindUnknown {
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}
