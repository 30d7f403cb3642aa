// Package ratelimit throttles expensive endpoints per client network
// identity. State is process-wide and safe for concurrent use.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Budget describes one bucket: Limit events replenished over Window
// seconds, with a burst of Limit.
type Budget struct {
	Limit  int
	Window float64 // seconds
}

// PerMinute builds a budget of n events per minute.
func PerMinute(n int) Budget { return Budget{Limit: n, Window: 60} }

// PerHour builds a budget of n events per hour.
func PerHour(n int) Budget { return Budget{Limit: n, Window: 3600} }

// Limiter holds one token bucket per (client, bucket-name) pair,
// created lazily. It is injected into the router, never a package
// global.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]Budget
	clients map[string]*rate.Limiter
}

// New builds a Limiter from named budgets.
func New(buckets map[string]Budget) *Limiter {
	return &Limiter{
		buckets: buckets,
		clients: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether clientKey may perform one event in bucket.
// Unknown buckets are never limited.
func (l *Limiter) Allow(clientKey, bucket string) bool {
	budget, ok := l.buckets[bucket]
	if !ok || budget.Limit <= 0 {
		return true
	}

	key := bucket + "|" + clientKey

	l.mu.Lock()
	lim, ok := l.clients[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(budget.Limit)/budget.Window), budget.Limit)
		l.clients[key] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
