package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dodopay/ledgerengine/internal/service"
)

// Auth reads the x-api-key header, verifies it, and attaches the
// resulting Principal to the request context.
func Auth(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get("x-api-key")
			if rawKey == "" {
				writeUnauthorized(w, "missing x-api-key header")
				return
			}

			principal, err := auth.Verify(r.Context(), rawKey)
			if err != nil {
				writeUnauthorized(w, "Invalid API key")
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": "INVALID_API_KEY"})
}
