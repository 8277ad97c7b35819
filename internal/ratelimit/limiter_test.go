package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/tetrabit/cardcache/internal/ratelimit"
)

func TestTryAcquireRespectsBurst(t *testing.T) {
	l := ratelimit.New(2)

	if !l.TryAcquire() {
		t.Fatal("expected first acquire to succeed")
	}
	if !l.TryAcquire() {
		t.Fatal("expected second acquire to succeed within burst")
	}
	if l.TryAcquire() {
		t.Fatal("expected third immediate acquire to be throttled")
	}
}

func TestAcquireUnblocksAsTokensRefill(t *testing.T) {
	l := ratelimit.New(100)
	for i := 0; i < 100; i++ {
		if !l.TryAcquire() {
			t.Fatalf("expected burst token %d to be available", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	l := ratelimit.New(1)
	l.TryAcquire()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Acquire(ctx); err == nil {
		t.Fatal("expected Acquire to return an error for a cancelled context")
	}
}

func TestSetRateAdjustsBurst(t *testing.T) {
	l := ratelimit.New(1)
	l.TryAcquire()
	if l.TryAcquire() {
		t.Fatal("expected burst of 1 to be exhausted")
	}

	l.SetRate(5)
	acquired := 0
	for i := 0; i < 5; i++ {
		if l.TryAcquire() {
			acquired++
		}
	}
	if acquired == 0 {
		t.Fatal("expected increased burst to allow at least one more acquire")
	}
}
