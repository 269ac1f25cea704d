package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"
)

// Waiter blocks until the caller may proceed or ctx is done.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Limiter paces operations to a fixed rate with optional positive jitter.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 to 1.0
	interval time.Duration
}

// NewLimiter creates a limiter allowing rps operations per second. jitter
// is clamped to [0, 1]. A non-positive rps yields a limiter that never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	jitter = min(max(jitter, 0), 1)
	if rps <= 0 {
		return &Limiter{jitter: jitter}
	}

	interval := time.Duration(float64(time.Second) / rps)
	return &Limiter{
		ticker:   time.NewTicker(interval),
		jitter:   jitter,
		interval: interval,
	}
}

// Wait blocks until the next tick, then sleeps an extra random fraction of
// the interval when jitter is configured.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ticker == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
	}

	if l.jitter > 0 {
		// A ticker cannot fire early, so only the positive half of the jitter range applies.
		extra := time.Duration(float64(l.interval) * l.jitter * (rand.Float64()*2 - 1))
		if extra > 0 {
			return sleep(ctx, extra)
		}
	}
	return nil
}

// Stop releases any resources associated with the limiter.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}

// Pause waits a uniformly random duration in [Min, Max] on every call. It
// spaces out calls to external tools that have no rate contract of their own.
type Pause struct {
	Min time.Duration
	Max time.Duration
}

// NewPause returns a Pause, swapping the bounds if they are reversed.
func NewPause(lo, hi time.Duration) Pause {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Pause{Min: max(lo, 0), Max: max(hi, 0)}
}

// Next draws the next delay without sleeping.
func (p Pause) Next() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + rand.N(p.Max-p.Min+1)
}

// Wait sleeps for Next() or until ctx is done.
func (p Pause) Wait(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
