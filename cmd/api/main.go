package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dodopay/ledgerengine/internal/config"
	"github.com/dodopay/ledgerengine/internal/httpapi"
	"github.com/dodopay/ledgerengine/internal/postgres"
	"github.com/dodopay/ledgerengine/internal/ratelimit"
	"github.com/dodopay/ledgerengine/internal/service"
	"github.com/dodopay/ledgerengine/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:            cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConnections,
		MinConns:       cfg.DatabaseMinConnections,
		AcquireTimeout: cfg.AcquireTimeout(),
	})
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	accounts := postgres.NewAccountRepository(pool)
	transactions := postgres.NewTransactionRepository(pool)
	webhooks := postgres.NewWebhookRepository(pool)
	apiKeys := postgres.NewApiKeyRepository(pool)

	dispatcher := webhook.NewDispatcher(webhook.Config{
		Timeout:        cfg.WebhookTimeout(),
		MaxRetries:     cfg.WebhookMaxRetries,
		InitialBackoff: cfg.WebhookInitialBackoff(),
	})
	defer dispatcher.Shutdown()

	accountSvc := service.NewAccountService(accounts)
	webhookSvc := service.NewWebhookService(webhooks, accounts, dispatcher)
	transactionSvc := service.NewTransactionService(transactions, webhookSvc)
	authSvc := service.NewAuthService(apiKeys)

	limiter := ratelimit.New(cfg.RateLimitPerHour)

	router := httpapi.NewRouter(httpapi.Services{
		Accounts:     accountSvc,
		Transactions: transactionSvc,
		Webhooks:     webhookSvc,
		Auth:         authSvc,
	}, pool, limiter)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Printf("ledgerengine listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
