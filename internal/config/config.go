// Package config loads the engine's runtime configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every environment-sourced setting the engine needs to
// start.
type Config struct {
	DatabaseURL                   string `env:"DATABASE_URL,required"`
	DatabaseMaxConnections        int32  `env:"DATABASE_MAX_CONNECTIONS" envDefault:"10"`
	DatabaseMinConnections        int32  `env:"DATABASE_MIN_CONNECTIONS" envDefault:"2"`
	DatabaseAcquireTimeoutSeconds int    `env:"DATABASE_ACQUIRE_TIMEOUT_SECONDS" envDefault:"30"`

	ServerHost string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`

	RateLimitPerHour int `env:"RATE_LIMIT_PER_HOUR" envDefault:"1000"`

	WebhookTimeoutSeconds   int `env:"WEBHOOK_TIMEOUT_SECONDS" envDefault:"30"`
	WebhookMaxRetries       int `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookInitialBackoffMs int `env:"WEBHOOK_INITIAL_BACKOFF_MS" envDefault:"500"`
}

// Load parses the process environment into a Config, applying defaults
// for every optional setting.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// AcquireTimeout converts the configured seconds into a time.Duration for
// pool construction.
func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.DatabaseAcquireTimeoutSeconds) * time.Second
}

// WebhookTimeout converts the configured seconds into a time.Duration for
// the outbound HTTP client the dispatcher uses.
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutSeconds) * time.Second
}

// WebhookInitialBackoff converts the configured milliseconds into a
// time.Duration for the dispatcher's backoff policy.
func (c *Config) WebhookInitialBackoff() time.Duration {
	return time.Duration(c.WebhookInitialBackoffMs) * time.Millisecond
}

// Addr returns the host:port pair http.Server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
