package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/timmy/ticketpulse/internal/domain"
	"gorm.io/gorm"
)

var procedureName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AnalyticsRepository reads the store-owned rollup tables and views and
// invokes the aggregation procedures that fill them.
type AnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// HourlyRange is the filter shared by the time-series queries.
type HourlyRange struct {
	EventID string
	Zone    string // empty means every zone
	Start   time.Time
	End     time.Time
}

func (r *AnalyticsRepository) hourly(ctx context.Context, rng HourlyRange) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&domain.HourlyAnalytics{}).
		Where("event_id = ?", rng.EventID).
		Where("hour_timestamp >= ? AND hour_timestamp <= ?", rng.Start, rng.End)
	if rng.Zone != "" {
		query = query.Where("zone = ?", rng.Zone)
	}
	return query.Order("hour_timestamp ASC")
}

// LowestPrices returns the hourly lowest single-ticket price.
func (r *AnalyticsRepository) LowestPrices(ctx context.Context, rng HourlyRange) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	if err := r.hourly(ctx, rng).
		Select("hour_timestamp, zone, lowest_price AS price").
		Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to query lowest prices: %w", err)
	}
	return points, nil
}

// GroupPrices returns the hourly lowest price for groups of 2 or 4.
func (r *AnalyticsRepository) GroupPrices(ctx context.Context, rng HourlyRange, groupSize int) ([]domain.PricePoint, error) {
	var column string
	switch groupSize {
	case 2:
		column = "lowest_group_price_2"
	case 4:
		column = "lowest_group_price_4"
	default:
		return nil, domain.ErrInvalidGroupSize
	}

	var points []domain.PricePoint
	if err := r.hourly(ctx, rng).
		Select("hour_timestamp, zone, " + column + " AS price").
		Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to query group prices: %w", err)
	}
	return points, nil
}

// TicketCounts returns hourly listing and ticket totals.
func (r *AnalyticsRepository) TicketCounts(ctx context.Context, rng HourlyRange) ([]domain.TicketCountPoint, error) {
	var points []domain.TicketCountPoint
	if err := r.hourly(ctx, rng).
		Select("hour_timestamp, zone, total_tickets, total_listings").
		Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to query ticket counts: %w", err)
	}
	return points, nil
}

// Zones returns the zone to sections mapping of an event.
func (r *AnalyticsRepository) Zones(ctx context.Context, eventID string) ([]domain.ZoneMapping, error) {
	var zones []domain.ZoneMapping
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	return zones, nil
}

// Statistics returns the summary row of an event, or domain.ErrEventNotFound.
func (r *AnalyticsRepository) Statistics(ctx context.Context, eventID string) (*domain.EventStatistics, error) {
	var stats domain.EventStatistics
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Take(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to query event statistics: %w", err)
	}
	return &stats, nil
}

// LatestPrices returns the per-section prices of the newest scrape.
func (r *AnalyticsRepository) LatestPrices(ctx context.Context, eventID string) ([]domain.SectionPrice, error) {
	var prices []domain.SectionPrice
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("section ASC").
		Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("failed to query latest prices: %w", err)
	}
	return prices, nil
}

// CallProcedure runs a stored aggregation function on Postgres.
// The name is checked against an identifier pattern before it reaches SQL.
func (r *AnalyticsRepository) CallProcedure(ctx context.Context, name string) error {
	if !procedureName.MatchString(name) {
		return fmt.Errorf("invalid procedure name %q", name)
	}
	if dialect := r.db.Dialector.Name(); dialect != "postgres" {
		return fmt.Errorf("procedure %s: not supported on %s", name, dialect)
	}
	if err := r.db.WithContext(ctx).Exec("SELECT " + name + "()").Error; err != nil {
		return fmt.Errorf("failed to run %s: %w", name, err)
	}
	return nil
}
