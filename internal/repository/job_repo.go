package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/ticketpulse/internal/domain"
	"gorm.io/gorm"
)

// JobRepository persists scrape job records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.ScrapeJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// MarkCompleted moves a running job to completed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - ticketsScraped: total snapshots written by the job.
//   - at: completion time.
//
// Returns:
//   - error: domain.ErrJobTerminal if the job already finished,
//     domain.ErrJobNotFound if it does not exist.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string, ticketsScraped int, at time.Time) error {
	return r.finish(ctx, id, map[string]interface{}{
		"status":          domain.JobStatusCompleted,
		"completed_at":    at,
		"tickets_scraped": ticketsScraped,
	})
}

// MarkFailed moves a running job to failed with the error kind and message.
func (r *JobRepository) MarkFailed(ctx context.Context, id, kind, message string, at time.Time) error {
	return r.finish(ctx, id, map[string]interface{}{
		"status":        domain.JobStatusFailed,
		"completed_at":  at,
		"error_kind":    kind,
		"error_message": message,
	})
}

// finish applies a terminal update only while the job is still running.
func (r *JobRepository) finish(ctx context.Context, id string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ScrapeJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusRunning).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update job %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrJobTerminal
}

// GetByID returns a job or domain.ErrJobNotFound.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the most recently started jobs, optionally for one event.
func (r *JobRepository) ListRecent(ctx context.Context, eventID string, limit int) ([]domain.ScrapeJob, error) {
	var jobs []domain.ScrapeJob
	query := r.db.WithContext(ctx)
	if eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}
	if err := query.
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}
