package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/runguard"
)

func at(h, m, s int) time.Time {
	return time.Date(2025, 3, 1, h, m, s, 0, time.UTC)
}

func TestNextFuncs(t *testing.T) {
	testCases := []struct {
		name string
		next NextFunc
		now  time.Time
		want time.Time
	}{
		{"every 15m mid interval", Every(15 * time.Minute), at(10, 7, 30), at(10, 15, 0)},
		{"every 15m on boundary", Every(15 * time.Minute), at(10, 15, 0), at(10, 30, 0)},
		{"every 15m end of hour", Every(15 * time.Minute), at(10, 59, 59), at(11, 0, 0)},
		{"hourly before minute", HourlyAt(0), at(10, 0, 0).Add(-time.Second), at(10, 0, 0)},
		{"hourly on minute", HourlyAt(0), at(10, 0, 0), at(11, 0, 0)},
		{"hourly mid hour", HourlyAt(0), at(10, 30, 0), at(11, 0, 0)},
		{"daily before hour", DailyAt(1, 0), at(0, 30, 0), at(1, 0, 0)},
		{"daily after hour", DailyAt(1, 0), at(1, 0, 1), at(1, 0, 0).AddDate(0, 0, 1)},
		{"daily on hour", DailyAt(1, 0), at(1, 0, 0), at(1, 0, 0).AddDate(0, 0, 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.next(tc.now))
		})
	}
}

func everyFewMillis(now time.Time) time.Time {
	return now.Add(5 * time.Millisecond)
}

func TestScheduler_RunsTasksUntilCancelled(t *testing.T) {
	s := New(nil, nil, logger.Discard())
	var runs int32
	s.Add(Task{Name: "tick", Next: everyFewMillis, Run: func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}})
	s.Add(Task{Name: "failing", Next: everyFewMillis, Run: func(ctx context.Context) error {
		return errors.New("boom")
	}})
	assert.Equal(t, []string{"tick", "failing"}, s.Tasks())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}

func TestScheduler_SkipsWhileGuardHeld(t *testing.T) {
	guard := runguard.NewLocalGuard()
	release, err := guard.TryAcquire(context.Background(), runguard.KeyScrapeAll)
	require.NoError(t, err)

	s := New(guard, nil, logger.Discard())
	var runs int32
	s.Add(Task{Name: runguard.KeyScrapeAll, Next: everyFewMillis, Run: func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs), "task must not run while another run holds the guard")

	release()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, time.Second, time.Millisecond)
}

func TestScheduler_RunningTaskSeesCancellation(t *testing.T) {
	s := New(nil, nil, logger.Discard())
	started := make(chan struct{})
	var sawCancel int32
	s.Add(Task{Name: "long", Next: everyFewMillis, Run: func(ctx context.Context) error {
		select {
		case <-started:
		default:
			close(started)
		}
		<-ctx.Done()
		atomic.StoreInt32(&sawCancel, 1)
		return ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	<-started
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sawCancel))
}
