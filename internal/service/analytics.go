package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/repository"
)

// AnalyticsService answers the read-side queries over rollups and snapshots.
type AnalyticsService struct {
	analytics   *repository.AnalyticsRepository
	snapshots   *repository.SnapshotRepository
	events      *repository.EventRepository
	clock       clock.Clock
	excludeMock bool
	logger      *logger.Logger
}

// AnalyticsConfig holds options for the analytics service.
type AnalyticsConfig struct {
	ExcludeMock bool // ignore mock snapshots in zone pricing
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	analyticsRepo *repository.AnalyticsRepository,
	snapshotRepo *repository.SnapshotRepository,
	eventRepo *repository.EventRepository,
	clk clock.Clock,
	log *logger.Logger,
	cfg *AnalyticsConfig,
) *AnalyticsService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if cfg == nil {
		cfg = &AnalyticsConfig{}
	}
	return &AnalyticsService{
		analytics:   analyticsRepo,
		snapshots:   snapshotRepo,
		events:      eventRepo,
		clock:       clk,
		excludeMock: cfg.ExcludeMock,
		logger:      log,
	}
}

func (s *AnalyticsService) log(ctx context.Context) *logger.Logger {
	if logger.HasLogger(ctx) || s.logger == nil {
		return logger.FromContext(ctx)
	}
	return s.logger
}

func hourlyRange(eventID, zone string, start, end time.Time) (repository.HourlyRange, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return repository.HourlyRange{}, domain.ErrInvalidDateRange
	}
	return repository.HourlyRange{EventID: eventID, Zone: zone, Start: start, End: end}, nil
}

// LowestPriceOverTime returns hourly lowest prices. An empty zone means all zones.
func (s *AnalyticsService) LowestPriceOverTime(ctx context.Context, eventID, zone string, start, end time.Time) ([]domain.PricePoint, error) {
	rng, err := hourlyRange(eventID, zone, start, end)
	if err != nil {
		return nil, err
	}
	points, err := s.analytics.LowestPrices(ctx, rng)
	if err != nil {
		s.log(ctx).WithField(logger.FieldEventID, eventID).WithError(err).Error("Error fetching lowest price over time")
		return nil, err
	}
	return points, nil
}

// GroupPriceTrend returns hourly lowest prices for groups of 2 or 4.
func (s *AnalyticsService) GroupPriceTrend(ctx context.Context, eventID string, groupSize int, zone string, start, end time.Time) ([]domain.PricePoint, error) {
	if groupSize != 2 && groupSize != 4 {
		return nil, domain.ErrInvalidGroupSize
	}
	rng, err := hourlyRange(eventID, zone, start, end)
	if err != nil {
		return nil, err
	}
	points, err := s.analytics.GroupPrices(ctx, rng, groupSize)
	if err != nil {
		s.log(ctx).WithField(logger.FieldEventID, eventID).WithError(err).Error("Error fetching group price trend")
		return nil, err
	}
	return points, nil
}

// TicketsListedOverTime returns hourly ticket and listing counts.
func (s *AnalyticsService) TicketsListedOverTime(ctx context.Context, eventID, zone string, start, end time.Time) ([]domain.TicketCountPoint, error) {
	rng, err := hourlyRange(eventID, zone, start, end)
	if err != nil {
		return nil, err
	}
	points, err := s.analytics.TicketCounts(ctx, rng)
	if err != nil {
		s.log(ctx).WithField(logger.FieldEventID, eventID).WithError(err).Error("Error fetching tickets listed over time")
		return nil, err
	}
	return points, nil
}

// EventZones returns the zone to sections mapping of an event.
func (s *AnalyticsService) EventZones(ctx context.Context, eventID string) ([]domain.ZoneMapping, error) {
	return s.analytics.Zones(ctx, eventID)
}

// CurrentSummary returns the statistics row of an event.
func (s *AnalyticsService) CurrentSummary(ctx context.Context, eventID string) (*domain.EventStatistics, error) {
	return s.analytics.Statistics(ctx, eventID)
}

// LatestPricesBySection returns the newest price per section.
func (s *AnalyticsService) LatestPricesBySection(ctx context.Context, eventID string) ([]domain.SectionPrice, error) {
	return s.analytics.LatestPrices(ctx, eventID)
}

// UpcomingEvents lists events dated now or later, soonest first.
func (s *AnalyticsService) UpcomingEvents(ctx context.Context) ([]domain.Event, error) {
	return s.events.ListUpcoming(ctx, s.clock.Now())
}

type zoneAccumulator struct {
	minPrice     [3]*decimal.Decimal // filters 1, 2, 4
	totalTickets int
}

var pricingFilters = []int{1, 2, 4}

// ZonesWithPricing summarises the latest batch of each quantity filter per zone.
// minPrice comes from filter 1, group prices from filters 2 and 4, and
// totalTickets sums listing quantities of the filter 1 batch.
// Returns domain.ErrNoSnapshots when the event has no snapshots at all.
func (s *AnalyticsService) ZonesWithPricing(ctx context.Context, eventID string) ([]domain.ZonePricing, error) {
	zones := map[string]*zoneAccumulator{}
	found := false

	for idx, filter := range pricingFilters {
		scrapedAt, err := s.snapshots.LatestScrapedAt(ctx, eventID, filter, s.excludeMock)
		if errors.Is(err, domain.ErrNoSnapshots) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true

		snaps, err := s.snapshots.ListScrapedAt(ctx, eventID, filter, scrapedAt)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			acc, ok := zones[snap.Zone]
			if !ok {
				acc = &zoneAccumulator{}
				zones[snap.Zone] = acc
			}
			if filter == 1 {
				acc.totalTickets += snap.Quantity
			}
			price := snap.Price
			if cur := acc.minPrice[idx]; cur == nil || price.LessThan(*cur) {
				acc.minPrice[idx] = &price
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNoSnapshots)
	}

	result := make([]domain.ZonePricing, 0, len(zones))
	for zone, acc := range zones {
		result = append(result, domain.ZonePricing{
			Zone:           zone,
			MinPrice:       decimalToFloat(acc.minPrice[0]),
			MinGroupPrice2: decimalToFloat(acc.minPrice[1]),
			MinGroupPrice4: decimalToFloat(acc.minPrice[2]),
			TotalTickets:   acc.totalTickets,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Zone < result[j].Zone
	})
	return result, nil
}

func decimalToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
