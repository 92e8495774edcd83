package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/timmy/ticketpulse/internal/clock"
	"golang.org/x/time/rate"
)

// DefaultMinDelay is the minimum gap between two marketplace requests.
const DefaultMinDelay = 2000 * time.Millisecond

var errReservation = errors.New("rate limiter cannot grant reservation")

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Limiter enforces a minimum delay between permitted calls.
// The time of the last call is the moment Wait granted it, not when the call finished.
type Limiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	minDelay time.Duration
	clock    clock.Clock
	sleep    SleepFunc
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock sets the time source used for reservations.
func WithClock(c clock.Clock) Option {
	return func(l *Limiter) {
		l.clock = c
	}
}

// WithSleep replaces the blocking sleep. Tests use it to record delays.
func WithSleep(fn SleepFunc) Option {
	return func(l *Limiter) {
		l.sleep = fn
	}
}

// New creates a limiter allowing one call per minDelay.
// A non-positive minDelay falls back to DefaultMinDelay.
func New(minDelay time.Duration, opts ...Option) *Limiter {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	l := &Limiter{
		limiter:  rate.NewLimiter(rate.Every(minDelay), 1),
		minDelay: minDelay,
		clock:    clock.NewSystem(),
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MinDelay returns the configured gap.
func (l *Limiter) MinDelay() time.Duration {
	return l.minDelay
}

// Wait blocks until the next call is permitted.
// Callers are served one at a time. If ctx is done first the reservation
// is returned and ctx.Err() is reported.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	r := l.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errReservation
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := l.sleep(ctx, delay); err != nil {
		r.CancelAt(l.clock.Now())
		return err
	}
	return nil
}

// Sleep waits for d using a timer, returning early with ctx.Err() when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
