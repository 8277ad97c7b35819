package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tetrabit/cardcache/internal/retry"
)

func TestDoReturnsNilOnEventualSuccess(t *testing.T) {
	calls := 0
	p := retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDoReturnsLastErrorAfterExhaustingAttempts(t *testing.T) {
	calls := 0
	p := retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("persistent failure")
	})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond, Multiplier: 2}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("expected an error from cancellation")
	}
	if calls >= 5 {
		t.Fatalf("expected cancellation to cut attempts short, got %d calls", calls)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := retry.Default()
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
	if p.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", p.InitialDelay)
	}
}
