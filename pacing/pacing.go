// Package pacing provides request-pacing strategies for the API clients.
//
// Both Nuclino and Notion rate-limit per account, and neither documents the
// limits precisely, so every client call waits on a Strategy before touching
// the network.  The fixed-interval strategy is deliberately dumb; anything
// smarter (token bucket, Retry-After-driven) can be swapped in behind the
// same interface without touching the clients.
package pacing

import (
	"context"
	"sync"
	"time"
)

// Strategy is consulted before every outbound API request.
type Strategy interface {
	// Wait blocks until the next request may be issued, or until ctx is
	// cancelled, in which case it returns the context's error.
	Wait(ctx context.Context) error
}

// FixedInterval spaces requests at least Interval apart.  The first call
// returns immediately.
type FixedInterval struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewFixedInterval returns a FixedInterval strategy.  A non-positive interval
// means no pacing at all.
func NewFixedInterval(interval time.Duration) *FixedInterval {
	return &FixedInterval{Interval: interval}
}

func (f *FixedInterval) Wait(ctx context.Context) error {
	f.mu.Lock()
	now := time.Now()
	next := f.last.Add(f.Interval)
	if next.Before(now) {
		next = now
	}
	f.last = next
	f.mu.Unlock()

	pause := time.Until(next)
	if pause <= 0 {
		return nil
	}

	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// None is a no-op strategy, handy in tests.
type None struct{}

func (None) Wait(ctx context.Context) error {
	return ctx.Err()
}
