// Package ratelimit provides the single process-wide gate for outbound
// Letterboxd requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Gate enforces a minimum spacing between grants across all callers. Every
// outbound request to the scraped site goes through the same Gate instance,
// regardless of which analysis or extraction operation asked for it.
type Gate struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
}

// NewGate creates a gate with the given minimum spacing between grants.
func NewGate(delay time.Duration) *Gate {
	return &Gate{delay: delay}
}

// Acquire blocks until at least the configured delay has elapsed since the
// previous grant to any caller, then stamps the grant time and returns.
// Waiting and stamping happen under the same lock, so concurrent callers
// cannot observe the window between reading the last grant time and writing
// the new one. The only error is context cancellation.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	wait := g.delay - time.Since(g.last)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	g.last = time.Now()
	return nil
}
