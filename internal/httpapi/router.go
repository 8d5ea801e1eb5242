package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dodopay/ledgerengine/internal/httpapi/middleware"
	"github.com/dodopay/ledgerengine/internal/ratelimit"
	"github.com/dodopay/ledgerengine/internal/service"
)

// Services bundles the service-layer dependencies the router wires onto
// handlers.
type Services struct {
	Accounts     *service.AccountService
	Transactions *service.TransactionService
	Webhooks     *service.WebhookService
	Auth         *service.AuthService
}

// NewRouter builds the full gorilla/mux route table. Every route is
// wrapped in panic recovery; /health gets metrics only; POST /accounts
// gets metrics + rate limiting; the authenticated routes get metrics +
// rate limiting + x-api-key auth; /metrics itself is served unwrapped.
func NewRouter(svcs Services, pool *pgxpool.Pool, limiter *ratelimit.Limiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recovery())

	accountH := NewAccountHandler(svcs.Accounts)
	txH := NewTransactionHandler(svcs.Transactions)
	webhookH := NewWebhookHandler(svcs.Webhooks)
	healthH := NewHealthHandler(pool)

	authChain := func(route string, h http.HandlerFunc) http.Handler {
		return middleware.Metrics(route)(
			middleware.RateLimit(limiter)(
				middleware.Auth(svcs.Auth)(h),
			),
		)
	}
	publicChain := func(route string, h http.HandlerFunc) http.Handler {
		return middleware.Metrics(route)(middleware.RateLimit(limiter)(h))
	}

	r.Handle("/health", middleware.Metrics("/health")(http.HandlerFunc(healthH.Check))).Methods(http.MethodGet)

	r.Handle("/accounts", publicChain("/accounts", accountH.Create)).Methods(http.MethodPost)
	r.Handle("/accounts", authChain("/accounts", accountH.List)).Methods(http.MethodGet)
	r.Handle("/accounts/{id}", authChain("/accounts/{id}", accountH.Get)).Methods(http.MethodGet)

	r.Handle("/transactions/deposit", authChain("/transactions/deposit", txH.Deposit)).Methods(http.MethodPost)
	r.Handle("/transactions/withdraw", authChain("/transactions/withdraw", txH.Withdraw)).Methods(http.MethodPost)
	r.Handle("/transactions/transfer", authChain("/transactions/transfer", txH.Transfer)).Methods(http.MethodPost)
	r.Handle("/transactions/history", authChain("/transactions/history", txH.History)).Methods(http.MethodGet)

	r.Handle("/webhooks", authChain("/webhooks", webhookH.Register)).Methods(http.MethodPost)
	r.Handle("/webhooks", authChain("/webhooks", webhookH.List)).Methods(http.MethodGet)
	r.Handle("/webhooks/{id}", authChain("/webhooks/{id}", webhookH.Delete)).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
