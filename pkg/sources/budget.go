package sources

import (
	"context"
	"sync"
	"time"
)

// RequestBudget enforces a client-side request quota per rolling window
// against an upstream provider. Wait blocks until a slot frees up instead of
// failing, since the sync pipeline would rather run slow than drop a source.
type RequestBudget struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	sent   []time.Time
	now    func() time.Time
}

// NewRequestBudget creates a budget of limit requests per window
func NewRequestBudget(limit int, window time.Duration) *RequestBudget {
	return &RequestBudget{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Wait blocks until a request slot is available or the context is done. On
// success the slot is consumed.
func (b *RequestBudget) Wait(ctx context.Context) error {
	for {
		wait := b.tryAcquire()
		if wait == 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire consumes a slot if one is free, otherwise returns how long to
// wait before the oldest tracked request leaves the window.
func (b *RequestBudget) tryAcquire() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	cutoff := now.Add(-b.window)

	kept := b.sent[:0]
	for _, t := range b.sent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.sent = kept

	if len(b.sent) < b.limit {
		b.sent = append(b.sent, now)
		return 0
	}

	return b.sent[0].Sub(cutoff)
}

// Remaining returns the unused slots in the current window
func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.window)
	used := 0
	for _, t := range b.sent {
		if t.After(cutoff) {
			used++
		}
	}

	remaining := b.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
