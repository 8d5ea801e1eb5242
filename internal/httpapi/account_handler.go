package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/google/uuid"

	"github.com/dodopay/ledgerengine/internal/apperrors"
	"github.com/dodopay/ledgerengine/internal/service"
)

// AccountHandler serves the /accounts routes.
type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create handles POST /accounts.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperrors.New(apperrors.KindInvalidAccountState, "malformed JSON body"))
		return
	}

	acc, err := h.accounts.Create(r.Context(), req.BusinessName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponseOf(acc))
}

// List handles GET /accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	accounts, err := h.accounts.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, accountResponseOf(acc))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /accounts/{id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.ErrAccountNotFound)
		return
	}

	acc, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponseOf(acc))
}

// pageParams parses the limit/offset query parameters shared by every
// paginated listing endpoint.
func pageParams(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
