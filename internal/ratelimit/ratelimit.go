// Package ratelimit provides a per-client HTTP rate limiter used to slow
// down credential guessing on the auth endpoints.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// bucket tracks remaining tokens for one client.
type bucket struct {
	tokens   int
	lastFill time.Time
}

// Limiter is a token-bucket rate limiter keyed by client IP. Unlike the
// completion limiter it never queues; requests over the budget are
// rejected immediately with 429.
type Limiter struct {
	rpm int

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// New creates a Limiter allowing at most rpm requests per minute per
// client.
func New(rpm int) *Limiter {
	return &Limiter{
		rpm:     rpm,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether the client may proceed, consuming one token.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{tokens: l.rpm, lastFill: now}
		l.buckets[client] = b
	}

	elapsed := now.Sub(b.lastFill)
	refill := int(elapsed.Seconds() * float64(l.rpm) / 60.0)
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.rpm {
			b.tokens = l.rpm
		}
		b.lastFill = now
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Middleware rejects requests over the per-client budget with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller by IP, ignoring the ephemeral port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
