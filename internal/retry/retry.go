// Package retry implements the exponential backoff used around upstream
// calls (SPEC_FULL.md §4.9/§7): a fixed small number of attempts with
// doubling delay, matching original_source's bulk load retry behavior.
package retry

import (
	"context"
	"time"
)

// Policy configures a retry loop.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// Default is 3 attempts starting at 1s and doubling: waits of 1s, then 2s,
// between them.
func Default() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: time.Second, Multiplier: 2}
}

// Do calls fn until it succeeds, ctx is done, or MaxAttempts is exhausted,
// sleeping between attempts per the policy's backoff schedule. It returns
// the last error seen.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * mult)
	}
	return lastErr
}
