package llm

import (
	"context"
	"sync"
	"time"
)

// Throttled caps how many completions per minute reach the wrapped
// provider. The API quota is shared by every conversation, so one busy
// session must not be able to burn through it alone.
type Throttled struct {
	inner Provider
	rpm   int

	mu     sync.Mutex
	free   int
	refill time.Time
}

// Throttle wraps a provider with a requests-per-minute cap. An rpm of
// zero or less disables throttling and returns the provider unchanged.
func Throttle(inner Provider, rpm int) Provider {
	if rpm <= 0 {
		return inner
	}
	return &Throttled{inner: inner, rpm: rpm, free: rpm, refill: time.Now()}
}

func (t *Throttled) Name() string { return t.inner.Name() }

// Complete blocks until a slot frees up or ctx is done, then delegates.
func (t *Throttled) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	for !t.takeSlot() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return t.inner.Complete(ctx, req)
}

// takeSlot credits slots earned since the last refill, then claims one
// if any are free.
func (t *Throttled) takeSlot() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if earned := int(now.Sub(t.refill).Seconds() * float64(t.rpm) / 60); earned > 0 {
		t.free = min(t.free+earned, t.rpm)
		t.refill = now
	}
	if t.free == 0 {
		return false
	}
	t.free--
	return true
}
