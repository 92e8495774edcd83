package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/runguard"
	"golang.org/x/sync/errgroup"
)

// Task is one independently scheduled entry point.
type Task struct {
	Name string // also the run guard key
	Next NextFunc
	Run  func(ctx context.Context) error
}

// Scheduler fires tasks on their schedules. A fire is skipped when the
// previous run of the same task still holds its guard.
type Scheduler struct {
	tasks  []Task
	guard  runguard.Guard
	clock  clock.Clock
	logger *logger.Logger
}

// New creates a scheduler. guard defaults to an in-process guard.
func New(guard runguard.Guard, clk clock.Clock, log *logger.Logger) *Scheduler {
	if guard == nil {
		guard = runguard.NewLocalGuard()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Scheduler{guard: guard, clock: clk, logger: log}
}

// Add registers a task. Call before Start.
func (s *Scheduler) Add(task Task) {
	s.tasks = append(s.tasks, task)
}

// Tasks returns the registered task names.
func (s *Scheduler) Tasks() []string {
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.Name
	}
	return names
}

// Start runs until ctx is cancelled, then waits for in-flight runs.
// In-flight runs observe the cancelled ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range s.tasks {
		task := task
		g.Go(func() error {
			s.loop(ctx, g, task)
			return nil
		})
	}
	s.logger.WithField(logger.FieldCount, len(s.tasks)).Info("Scheduler started")
	err := g.Wait()
	s.logger.Info("Scheduler stopped")
	return err
}

func (s *Scheduler) loop(ctx context.Context, g *errgroup.Group, task Task) {
	log := s.logger.WithField(logger.FieldTask, task.Name)
	for {
		now := s.clock.Now()
		next := task.Next(now)
		log.WithField("next_run", next.Format(time.RFC3339)).Debug("Scheduled next run")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		g.Go(func() error {
			s.fire(ctx, task)
			return nil
		})
	}
}

func (s *Scheduler) fire(ctx context.Context, task Task) {
	log := s.logger.WithField(logger.FieldTask, task.Name)
	ctx = log.WithContext(ctx)
	start := time.Now()

	err := runguard.Run(ctx, s.guard, task.Name, task.Run)
	switch {
	case errors.Is(err, runguard.ErrHeld):
		log.Warn("Skipped run, previous run still in progress")
	case err != nil:
		log.WithError(err).WithField(logger.FieldDurationMs, time.Since(start).Milliseconds()).Error("Scheduled run failed")
	default:
		log.WithField(logger.FieldDurationMs, time.Since(start).Milliseconds()).Info("Scheduled run finished")
	}
}
