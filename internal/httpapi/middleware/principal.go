// Package middleware holds the engine's HTTP middleware chain: panic
// recovery, metrics, rate limiting, and x-api-key authentication, each
// a standard func(http.Handler) http.Handler.
package middleware

import (
	"context"

	"github.com/dodopay/ledgerengine/internal/service"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal attaches an authenticated Principal to ctx.
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the Principal the auth middleware
// attached, or nil if the request was never authenticated.
func PrincipalFromContext(ctx context.Context) *service.Principal {
	p, _ := ctx.Value(principalKey).(*service.Principal)
	return p
}
