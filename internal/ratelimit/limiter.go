// Package ratelimit implements a per-remote-IP token bucket with a
// configurable requests-per-hour budget, built on golang.org/x/time/rate.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per key (remote IP), created lazily on
// first use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	perHour int
}

// New builds a Limiter whose buckets refill at requestsPerHour tokens per
// hour, with a burst equal to the full hourly allowance, so a caller
// that has been idle can use its entire budget in a single burst, then
// must wait for the steady per-second refill, matching a classic
// token-bucket's semantics.
func New(requestsPerHour int) *Limiter {
	if requestsPerHour <= 0 {
		requestsPerHour = 1000
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		perHour: requestsPerHour,
	}
}

// Allow reports whether the bucket for key has a token available, and
// consumes one token if so.
func (l *Limiter) Allow(key string) bool {
	return l.bucketFor(key).Allow()
}

func (l *Limiter) bucketFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		return b
	}
	perSecond := rate.Limit(float64(l.perHour) / 3600.0)
	b := rate.NewLimiter(perSecond, l.perHour)
	l.buckets[key] = b
	return b
}
