package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/timmy/ticketpulse/internal/clock"
)

// recorder is a SleepFunc that advances a manual clock instead of blocking.
type recorder struct {
	mu     sync.Mutex
	clk    *clock.Manual
	sleeps []time.Duration
	err    error
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	if r.err != nil {
		return r.err
	}
	r.clk.Advance(d)
	return nil
}

func newTestLimiter(minDelay time.Duration) (*Limiter, *clock.Manual, *recorder) {
	clk := clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	rec := &recorder{clk: clk}
	return New(minDelay, WithClock(clk), WithSleep(rec.sleep)), clk, rec
}

func TestLimiter_Wait(t *testing.T) {
	tests := []struct {
		name      string
		gaps      []time.Duration // clock advance before each Wait
		wantSleep []time.Duration
	}{
		{
			name:      "first call is immediate",
			gaps:      []time.Duration{0},
			wantSleep: nil,
		},
		{
			name:      "back to back calls wait the full delay",
			gaps:      []time.Duration{0, 0},
			wantSleep: []time.Duration{2 * time.Second},
		},
		{
			name:      "partial elapsed waits the remainder",
			gaps:      []time.Duration{0, 500 * time.Millisecond},
			wantSleep: []time.Duration{1500 * time.Millisecond},
		},
		{
			name:      "enough elapsed does not wait",
			gaps:      []time.Duration{0, 3 * time.Second, 2 * time.Second},
			wantSleep: nil,
		},
		{
			name:      "delay counts from the granted time",
			gaps:      []time.Duration{0, 0, 0},
			wantSleep: []time.Duration{2 * time.Second, 2 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, clk, rec := newTestLimiter(2 * time.Second)
			for i, gap := range tt.gaps {
				clk.Advance(gap)
				if err := l.Wait(context.Background()); err != nil {
					t.Fatalf("Wait() #%d error = %v", i, err)
				}
			}
			if len(rec.sleeps) != len(tt.wantSleep) {
				t.Fatalf("sleeps = %v, want %v", rec.sleeps, tt.wantSleep)
			}
			for i := range tt.wantSleep {
				if rec.sleeps[i] != tt.wantSleep[i] {
					t.Errorf("sleep[%d] = %v, want %v", i, rec.sleeps[i], tt.wantSleep[i])
				}
			}
		})
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l, _, rec := newTestLimiter(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
	if len(rec.sleeps) != 0 {
		t.Errorf("sleeps = %v, want none", rec.sleeps)
	}
}

func TestLimiter_SleepErrorIsReturned(t *testing.T) {
	l, _, rec := newTestLimiter(2 * time.Second)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	rec.err = context.DeadlineExceeded
	if err := l.Wait(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestLimiter_DefaultDelay(t *testing.T) {
	l := New(0)
	if l.MinDelay() != DefaultMinDelay {
		t.Errorf("MinDelay() = %v, want %v", l.MinDelay(), DefaultMinDelay)
	}
}

func TestLimiter_ConcurrentCallersAreSpaced(t *testing.T) {
	const delay = 20 * time.Millisecond
	l := New(delay)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error = %v", err)
			}
		}()
	}
	wg.Wait()

	// Three callers: one immediate, two spaced by delay.
	if elapsed := time.Since(start); elapsed < 2*delay-5*time.Millisecond {
		t.Errorf("elapsed = %v, want at least %v", elapsed, 2*delay)
	}
}

func TestSleep_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
}
