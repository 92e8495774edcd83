package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
)

// JobStore persists scrape job records.
type JobStore interface {
	Create(ctx context.Context, job *domain.ScrapeJob) error
	MarkCompleted(ctx context.Context, id string, ticketsScraped int, at time.Time) error
	MarkFailed(ctx context.Context, id, kind, message string, at time.Time) error
}

// JobTracker records the lifecycle of scrape jobs.
type JobTracker struct {
	store  JobStore
	clock  clock.Clock
	newID  func() string
	logger *logger.Logger
}

// NewJobTracker creates a new JobTracker.
func NewJobTracker(store JobStore, clk clock.Clock, log *logger.Logger) *JobTracker {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &JobTracker{
		store:  store,
		clock:  clk,
		newID:  func() string { return uuid.New().String() },
		logger: log,
	}
}

func (t *JobTracker) log(ctx context.Context) *logger.Logger {
	if logger.HasLogger(ctx) || t.logger == nil {
		return logger.FromContext(ctx)
	}
	return t.logger
}

// CreateJob stores a running job for eventID and returns its id.
func (t *JobTracker) CreateJob(ctx context.Context, eventID string) (string, error) {
	job := &domain.ScrapeJob{
		ID:        t.newID(),
		EventID:   eventID,
		Status:    domain.JobStatusRunning,
		StartedAt: t.clock.Now(),
	}
	if err := t.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create scrape job for event %s: %w", eventID, err)
	}
	return job.ID, nil
}

// CompleteJob marks a job completed. Failures are logged, not returned.
func (t *JobTracker) CompleteJob(ctx context.Context, jobID string, ticketsScraped int) {
	err := t.store.MarkCompleted(ctx, jobID, ticketsScraped, t.clock.Now())
	t.report(ctx, jobID, domain.JobStatusCompleted, err)
}

// FailJob marks a job failed with cause. Failures are logged, not returned.
func (t *JobTracker) FailJob(ctx context.Context, jobID string, cause error) {
	kind, message := "", "unknown error"
	if cause != nil {
		message = cause.Error()
		var scrapeErr *ScrapeError
		if errors.As(cause, &scrapeErr) {
			kind = string(scrapeErr.Kind)
		}
	}
	err := t.store.MarkFailed(ctx, jobID, kind, message, t.clock.Now())
	t.report(ctx, jobID, domain.JobStatusFailed, err)
}

func (t *JobTracker) report(ctx context.Context, jobID string, status domain.JobStatus, err error) {
	if err == nil {
		return
	}
	log := t.log(ctx).WithFields(logger.Fields{
		logger.FieldJobID:  jobID,
		logger.FieldStatus: status,
	}).WithError(err)
	if errors.Is(err, domain.ErrJobTerminal) {
		log.Warn("Ignored transition of finished scrape job")
		return
	}
	log.Error("Failed to update scrape job")
}
