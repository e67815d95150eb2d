// SPDX-License-Identifier: MIT

package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestGate_ZeroIntervalNeverBlocks(t *testing.T) {
	g := NewGate(0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := g.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Fatal("zero-interval gate should not block")
	}
}

func TestGate_EnforcesMinimumInterval(t *testing.T) {
	g := NewGate(30 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := g.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("expected at least 60ms for 3 calls at 30ms interval, got %v", elapsed)
	}
}

func TestGate_RespectsCancellation(t *testing.T) {
	g := NewGate(time.Hour)
	_ = g.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := g.Wait(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}
