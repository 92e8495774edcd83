package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/ticketpulse/internal/domain"
	"gorm.io/gorm"
)

const snapshotBatchSize = 500

// SnapshotRepository appends ticket snapshots and reads back the latest ones.
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// CreateBatch inserts all snapshots in one transaction. Either every row is
// written or none is.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - snapshots: rows to insert.
//
// Returns:
//   - int: number of rows written.
//   - error: non-nil if any insert fails; the transaction is rolled back.
func (r *SnapshotRepository) CreateBatch(ctx context.Context, snapshots []domain.TicketSnapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}
	var written int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.CreateInBatches(&snapshots, snapshotBatchSize)
		if res.Error != nil {
			return res.Error
		}
		written = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot batch: %w", err)
	}
	return int(written), nil
}

// LatestScrapedAt returns the newest scrape time of an event for one quantity filter.
// Returns domain.ErrNoSnapshots when nothing matches.
func (r *SnapshotRepository) LatestScrapedAt(ctx context.Context, eventID string, quantityFilter int, excludeMock bool) (time.Time, error) {
	var snap domain.TicketSnapshot
	query := r.db.WithContext(ctx).
		Select("scraped_at").
		Where("event_id = ? AND quantity_filter = ?", eventID, quantityFilter)
	if excludeMock {
		query = query.Where("source <> ?", domain.DataSourceMock)
	}
	if err := query.Order("scraped_at DESC").First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, domain.ErrNoSnapshots
		}
		return time.Time{}, fmt.Errorf("failed to find latest scrape: %w", err)
	}
	return snap.ScrapedAt, nil
}

// ListScrapedAt returns the snapshots of one batch.
func (r *SnapshotRepository) ListScrapedAt(ctx context.Context, eventID string, quantityFilter int, scrapedAt time.Time) ([]domain.TicketSnapshot, error) {
	var snaps []domain.TicketSnapshot
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND quantity_filter = ? AND scraped_at = ?", eventID, quantityFilter, scrapedAt).
		Find(&snaps).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}

// CountByEvent counts stored snapshots of an event.
func (r *SnapshotRepository) CountByEvent(ctx context.Context, eventID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.TicketSnapshot{}).
		Where("event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
