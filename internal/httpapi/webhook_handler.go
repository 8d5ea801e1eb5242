package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/domain"
	"github.com/dodopay/ledgerengine/internal/httpapi/middleware"
	"github.com/dodopay/ledgerengine/internal/service"
)

// WebhookHandler serves the /webhooks routes.
type WebhookHandler struct {
	webhooks *service.WebhookService
}

func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Register handles POST /webhooks.
func (h *WebhookHandler) Register(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	accountID, err := uuid.Parse(principal.AccountID)
	if err != nil {
		writeError(w, apperrors.ErrInvalidAPIKey)
		return
	}

	var req registerWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperrors.New(apperrors.KindInvalidWebhookURL, "malformed JSON body"))
		return
	}

	wh, err := h.webhooks.Register(r.Context(), accountID, req.URL, domain.WebhookEvent(req.Event))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, webhookResponseOf(wh))
}

// List handles GET /webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	accountID, err := uuid.Parse(principal.AccountID)
	if err != nil {
		writeError(w, apperrors.ErrInvalidAPIKey)
		return
	}

	hooks, err := h.webhooks.List(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]WebhookResponse, 0, len(hooks))
	for _, wh := range hooks {
		out = append(out, webhookResponseOf(wh))
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /webhooks/{id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	accountID, err := uuid.Parse(principal.AccountID)
	if err != nil {
		writeError(w, apperrors.ErrInvalidAPIKey)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrWebhookNotFound)
		return
	}

	if err := h.webhooks.Delete(r.Context(), id, accountID); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}
