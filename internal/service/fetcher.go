package service

import (
	"context"
	"time"

	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/source"
)

const (
	fallbackEventName = "Sample Event"
	fallbackVenueName = "Sample Venue"
)

// Waiter blocks until the next outbound request is allowed.
type Waiter interface {
	Wait(ctx context.Context) error
}

// PayloadArchiver stores raw marketplace responses.
type PayloadArchiver interface {
	Save(ctx context.Context, productionID string, quantity int, body []byte) (string, error)
}

// EventFetcher fetches one production at one quantity filter and never fails:
// every error is absorbed into mock data.
type EventFetcher struct {
	source     source.ListingSource
	limiter    Waiter
	normalizer *Normalizer
	mock       *MockGenerator
	archive    PayloadArchiver // optional
	clock      clock.Clock
	logger     *logger.Logger
}

// NewEventFetcher creates a new EventFetcher. archive may be nil.
func NewEventFetcher(
	src source.ListingSource,
	limiter Waiter,
	normalizer *Normalizer,
	mock *MockGenerator,
	archive PayloadArchiver,
	clk clock.Clock,
	log *logger.Logger,
) *EventFetcher {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &EventFetcher{
		source:     src,
		limiter:    limiter,
		normalizer: normalizer,
		mock:       mock,
		archive:    archive,
		clock:      clk,
		logger:     log,
	}
}

func (f *EventFetcher) log(ctx context.Context) *logger.Logger {
	if logger.HasLogger(ctx) || f.logger == nil {
		return logger.FromContext(ctx)
	}
	return f.logger
}

// Fetch returns the listings of productionID for quantity.
// Parameters:
//   - ctx: context for cancellation; a cancelled wait also yields mock data.
//   - productionID: marketplace production identifier.
//   - quantity: requested group size.
//
// Returns:
//   - *domain.EventData: live data, or a Sample Event tagged as mock.
func (f *EventFetcher) Fetch(ctx context.Context, productionID string, quantity int) *domain.EventData {
	log := f.log(ctx).WithFields(logger.Fields{
		logger.FieldProductionID:   productionID,
		logger.FieldQuantityFilter: quantity,
	})

	if err := f.limiter.Wait(ctx); err != nil {
		log.WithError(err).Warn("Rate limiter wait aborted, using mock data")
		return f.fallback(productionID)
	}

	start := time.Now()
	log.Info("Fetching listings")
	payload, err := f.source.FetchListings(ctx, productionID, quantity)
	if err != nil {
		log.WithError(err).WithField(logger.FieldDurationMs, time.Since(start).Milliseconds()).
			Error("Failed to fetch listings, using mock data")
		return f.fallback(productionID)
	}

	if f.archive != nil && len(payload.Body) > 0 {
		if url, err := f.archive.Save(ctx, productionID, quantity, payload.Body); err != nil {
			log.WithError(err).Warn("Failed to archive raw payload")
		} else {
			log.WithField("archive_url", url).Debug("Archived raw payload")
		}
	}

	data := f.normalizer.Normalize(ctx, payload, productionID)
	log.WithFields(logger.Fields{
		logger.FieldCount:      len(data.Tickets),
		logger.FieldDataSource: data.Source,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Fetched listings")
	return data
}

func (f *EventFetcher) fallback(productionID string) *domain.EventData {
	return &domain.EventData{
		ProductionID: productionID,
		Name:         fallbackEventName,
		Venue:        fallbackVenueName,
		Date:         f.clock.Now(),
		Tickets:      f.mock.Generate(),
		Source:       domain.DataSourceMock,
	}
}
