package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/ratelimit"
)

// Fetcher returns listings for one production and quantity filter. It never fails.
type Fetcher interface {
	Fetch(ctx context.Context, productionID string, quantity int) *domain.EventData
}

// EventLister reads the events to scrape.
type EventLister interface {
	ListUpcoming(ctx context.Context, now time.Time) ([]domain.Event, error)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
}

// ScrapeConfig holds pacing and persistence settings.
type ScrapeConfig struct {
	QuantityFilters []int
	QuantityDelay   time.Duration
	EventDelay      time.Duration
	PersistMock     bool
}

// DefaultScrapeConfig returns the production pacing: filters 1, 2 and 4,
// 500ms between filters, 1s between events, mock batches stored.
func DefaultScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		QuantityFilters: []int{1, 2, 4},
		QuantityDelay:   500 * time.Millisecond,
		EventDelay:      time.Second,
		PersistMock:     true,
	}
}

// ScrapeResult summarises one event scrape.
type ScrapeResult struct {
	Success     bool   `json:"success"`
	TicketCount int    `json:"ticket_count"`
	JobID       string `json:"job_id"`
}

// BatchResult summarises one scrape-all run.
type BatchResult struct {
	Events       int       `json:"events"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Skipped      int       `json:"skipped"`
	TicketsSaved int       `json:"tickets_saved"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// ScrapeService drives the fetch, save and job-tracking cycle.
type ScrapeService struct {
	events  EventLister
	fetcher Fetcher
	tracker *JobTracker
	writer  *SnapshotWriter
	cfg     ScrapeConfig
	clock   clock.Clock
	sleep   ratelimit.SleepFunc
	logger  *logger.Logger
}

// NewScrapeService creates a new ScrapeService.
func NewScrapeService(
	events EventLister,
	fetcher Fetcher,
	tracker *JobTracker,
	writer *SnapshotWriter,
	cfg ScrapeConfig,
	clk clock.Clock,
	log *logger.Logger,
) *ScrapeService {
	if len(cfg.QuantityFilters) == 0 {
		cfg.QuantityFilters = DefaultScrapeConfig().QuantityFilters
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ScrapeService{
		events:  events,
		fetcher: fetcher,
		tracker: tracker,
		writer:  writer,
		cfg:     cfg,
		clock:   clk,
		sleep:   ratelimit.Sleep,
		logger:  log,
	}
}

// SetSleep replaces the pause function. Tests use it to skip real delays.
func (s *ScrapeService) SetSleep(fn ratelimit.SleepFunc) {
	s.sleep = fn
}

func (s *ScrapeService) log(ctx context.Context) *logger.Logger {
	if logger.HasLogger(ctx) || s.logger == nil {
		return logger.FromContext(ctx)
	}
	return s.logger
}

// ScrapeEvent fetches and stores every quantity filter of one event under one job.
// Fetch problems become mock data and never fail the job. A snapshot write
// failure or cancellation marks the job failed and is returned as *ScrapeError.
// Cancellation is checked before and after each fetch; a save already started runs to completion.
func (s *ScrapeService) ScrapeEvent(ctx context.Context, event domain.Event) (*ScrapeResult, error) {
	jobID, err := s.tracker.CreateJob(ctx, event.ID)
	if err != nil {
		return nil, &ScrapeError{Kind: ErrKindJobCreate, EventID: event.ID, Err: err}
	}

	if !logger.HasLogger(ctx) && s.logger != nil {
		ctx = s.logger.WithContext(ctx)
	}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldJobID:   jobID,
		logger.FieldEventID: event.ID,
	})
	start := time.Now()
	logger.CtxInfo(ctx, "Starting scrape job for production %s", event.EventID)

	total := 0
	for _, quantity := range s.cfg.QuantityFilters {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(ctx, &ScrapeError{Kind: ErrKindCancelled, EventID: event.ID, JobID: jobID, QuantityFilter: quantity, Err: err})
		}

		data := s.fetcher.Fetch(ctx, event.EventID, quantity)
		// A fetch cut short by cancellation comes back as mock data; drop it.
		if err := ctx.Err(); err != nil {
			return nil, s.fail(ctx, &ScrapeError{Kind: ErrKindCancelled, EventID: event.ID, JobID: jobID, QuantityFilter: quantity, Err: err})
		}
		if data.Source.IsMock() && !s.cfg.PersistMock {
			logger.FromContext(ctx).WithField(logger.FieldQuantityFilter, quantity).
				Warn("Skipped storing mock tickets")
		} else {
			saved, err := s.writer.SaveTickets(context.WithoutCancel(ctx), event.ID, data.Tickets, quantity, data.Source)
			if err != nil {
				return nil, s.fail(ctx, &ScrapeError{Kind: ErrKindSnapshotWrite, EventID: event.ID, JobID: jobID, QuantityFilter: quantity, Err: err})
			}
			total += saved
			logger.With(logger.Fields{
				logger.FieldQuantityFilter: quantity,
				logger.FieldDataSource:     data.Source,
			}).WithCount(saved).Info(ctx, "Saved ticket snapshots")
		}

		// An interrupted pause is picked up by the next cancellation check.
		_ = s.sleep(ctx, s.cfg.QuantityDelay)
	}

	s.tracker.CompleteJob(context.WithoutCancel(ctx), jobID, total)
	logger.With(logger.Fields{logger.FieldStatus: domain.JobStatusCompleted}).
		WithCount(total).
		WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "Completed scrape job")

	return &ScrapeResult{Success: true, TicketCount: total, JobID: jobID}, nil
}

func (s *ScrapeService) fail(ctx context.Context, scrapeErr *ScrapeError) error {
	s.tracker.FailJob(context.WithoutCancel(ctx), scrapeErr.JobID, scrapeErr)
	logger.FromContext(ctx).WithError(scrapeErr).WithField(logger.FieldStatus, domain.JobStatusFailed).
		Error("Scrape job failed")
	return scrapeErr
}

// ScrapeEventByID loads an event and scrapes it.
func (s *ScrapeService) ScrapeEventByID(ctx context.Context, eventID string) (*ScrapeResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.ScrapeEvent(ctx, *event)
}

// ScrapeAllEvents scrapes every event dated now or later, one at a time.
// A failing event is logged and the run continues with the next one.
// Only a failure to list events is returned.
func (s *ScrapeService) ScrapeAllEvents(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{StartedAt: s.clock.Now()}

	events, err := s.events.ListUpcoming(ctx, result.StartedAt)
	if err != nil {
		s.log(ctx).WithError(err).Error("Failed to list events")
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	result.Events = len(events)
	s.log(ctx).WithField(logger.FieldCount, len(events)).Info("Starting scrape for all active events")

	for i, event := range events {
		if i > 0 {
			_ = s.sleep(ctx, s.cfg.EventDelay)
		}
		if ctx.Err() != nil {
			result.Skipped = len(events) - i
			s.log(ctx).WithField("skipped", result.Skipped).Warn("Scrape run cancelled")
			break
		}

		res, err := s.ScrapeEvent(ctx, event)
		if err != nil {
			result.Failed++
			s.log(ctx).WithField(logger.FieldEventID, event.ID).WithError(err).Error("Error scraping event")
			continue
		}
		result.Succeeded++
		result.TicketsSaved += res.TicketCount
	}

	result.FinishedAt = s.clock.Now()
	s.log(ctx).WithFields(logger.Fields{
		"succeeded":     result.Succeeded,
		"failed":        result.Failed,
		"tickets_saved": result.TicketsSaved,
	}).Info("Completed scraping all events")
	return result, nil
}

// RunScrapeCycle is the trigger entry point for a full scrape run.
func (s *ScrapeService) RunScrapeCycle(ctx context.Context) error {
	_, err := s.ScrapeAllEvents(ctx)
	return err
}
