// Package ratelimit throttles outbound upstream traffic with a token-bucket
// limiter, the same strategy original_source's upstream client enforces by
// hand, implemented here on top of golang.org/x/time/rate rather than
// reinventing a bucket.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with the narrower surface the upstream client
// needs: a blocking Acquire and a non-blocking TryAcquire.
type Limiter struct {
	rl *rate.Limiter
}

// New builds a Limiter allowing ratePerSecond requests per second, with a
// burst capacity equal to the rate (one second's worth of headroom).
func New(ratePerSecond int) *Limiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond)}
}

// Acquire blocks until a token is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// TryAcquire reports whether a token was available immediately, consuming
// one if so.
func (l *Limiter) TryAcquire() bool {
	return l.rl.Allow()
}

// SetRate adjusts the limiter's rate and burst in place, used when
// configuration is reloaded without restarting the process.
func (l *Limiter) SetRate(ratePerSecond int) {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	l.rl.SetLimit(rate.Limit(ratePerSecond))
	l.rl.SetBurst(ratePerSecond)
}
