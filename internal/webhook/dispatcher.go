// Package webhook implements an asynchronous, at-least-once HMAC-signed
// outbound notification pipeline: a bounded worker pool drains a queue
// of deliveries, each signed sha256=<hex> over the raw body and retried
// with exponential backoff until the receiver answers 2xx or the retry
// budget is spent.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const signatureHeader = "X-Dodo-Signature"

// Config controls per-request timeout and retry policy, sourced from the
// WEBHOOK_* environment variables.
type Config struct {
	Timeout             time.Duration
	MaxRetries          int
	InitialBackoff      time.Duration
	WorkerCount         int
	ShutdownGracePeriod time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 8
	}
	if c.ShutdownGracePeriod <= 0 {
		c.ShutdownGracePeriod = 5 * time.Second
	}
	return c
}

// Delivery is one queued outbound notification.
type Delivery struct {
	URL     string
	Payload []byte
	Secret  []byte
}

// Dispatcher runs a bounded worker pool that delivers queued webhooks
// in the background, decoupled from the synchronous request path: the
// notification is scheduled on a background task and the HTTP response
// returns immediately after commit.
type Dispatcher struct {
	cfg     Config
	client  *http.Client
	queue   chan Delivery
	wg      sync.WaitGroup
	closeCh chan struct{}
	once    sync.Once
}

// NewDispatcher starts cfg.WorkerCount background goroutines draining a
// bounded queue of deliveries.
func NewDispatcher(cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		queue:   make(chan Delivery, 1024),
		closeCh: make(chan struct{}),
	}
	for i := 0; i < cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue schedules a delivery without blocking the caller's request
// path. If the queue is full the delivery is dropped and logged; a
// durable outbox (persisted alongside the ledger write) would remove
// this possibility, and is left as future work.
func (d *Dispatcher) Enqueue(delivery Delivery) {
	select {
	case d.queue <- delivery:
	default:
		log.Printf("webhook dispatcher: queue full, dropping delivery to %s", delivery.URL)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case delivery := <-d.queue:
			d.deliver(delivery)
		case <-d.closeCh:
			// Drain what was already queued before exiting; Shutdown's
			// grace period bounds how long this runs.
			for {
				select {
				case delivery := <-d.queue:
					d.deliver(delivery)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(delivery Delivery) {
	signature := sign(delivery.Secret, delivery.Payload)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.cfg.InitialBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0 // jitter is applied explicitly in notify, not via the library's own
	bounded := backoff.WithMaxRetries(policy, uint64(d.cfg.MaxRetries))

	attempt := 0
	operation := func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL, bytes.NewReader(delivery.Payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(signatureHeader, signature)

		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("webhook delivery to %s returned status %d", delivery.URL, resp.StatusCode)
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		jitter := time.Duration(rand.Intn(100)) * time.Millisecond
		time.Sleep(jitter)
		log.Printf("webhook dispatcher: attempt failed for %s: %v (retrying in %s + jitter)", delivery.URL, err, wait)
	}

	if err := backoff.RetryNotify(operation, bounded, notify); err != nil {
		log.Printf("webhook dispatcher: giving up on %s after %d attempts: %v", delivery.URL, attempt, err)
	}
}

// Shutdown waits up to the configured grace period for in-flight and
// already-queued deliveries to finish, then returns regardless:
// background tasks must not outlive process shutdown without warning,
// but are not guaranteed to fully drain.
func (d *Dispatcher) Shutdown() {
	d.once.Do(func() {
		close(d.closeCh)
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d.cfg.ShutdownGracePeriod):
		log.Printf("webhook dispatcher: shutdown grace period elapsed, abandoning remaining retries")
	}
}

func sign(secret, payload []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
