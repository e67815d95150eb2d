// SPDX-License-Identifier: MIT

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Gate enforces a minimum interval between successive operations against a
// single remote host. It is the storage client's single-token gate: unlike
// Limiter (limiter.go), it protects one backend from being hammered by one client,
// not an HTTP front door from many clients. A zero interval makes the gate a
// no-op.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewGate creates a gate enforcing at least interval between calls to Wait.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval}
}

// Wait blocks until the minimum interval has elapsed since the previous call
// returned, or until ctx is done. A zero-interval gate never blocks.
func (g *Gate) Wait(ctx context.Context) error {
	if g.interval <= 0 {
		return nil
	}

	g.mu.Lock()
	now := time.Now()
	wait := g.interval - now.Sub(g.last)
	if wait < 0 {
		wait = 0
	}
	g.last = now.Add(wait)
	g.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetInterval updates the minimum interval, e.g. when user preferences change
// mid-session via set_user_config.
func (g *Gate) SetInterval(interval time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.interval = interval
}
