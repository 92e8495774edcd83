package service

import (
	"context"

	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
)

// SnapshotStore appends snapshot batches atomically.
type SnapshotStore interface {
	CreateBatch(ctx context.Context, snapshots []domain.TicketSnapshot) (int, error)
}

// SnapshotWriter turns fetched listings into one snapshot batch.
type SnapshotWriter struct {
	store SnapshotStore
	clock clock.Clock
}

// NewSnapshotWriter creates a new SnapshotWriter.
func NewSnapshotWriter(store SnapshotStore, clk clock.Clock) *SnapshotWriter {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &SnapshotWriter{store: store, clock: clk}
}

// SaveTickets writes every ticket with one shared scrapedAt and quantityFilter.
// The batch is all or nothing; the error is returned unchanged for the caller to classify.
func (w *SnapshotWriter) SaveTickets(ctx context.Context, eventID string, tickets []domain.TicketListing, quantityFilter int, src domain.DataSource) (int, error) {
	if len(tickets) == 0 {
		return 0, nil
	}

	scrapedAt := w.clock.Now()
	snapshots := make([]domain.TicketSnapshot, len(tickets))
	for i, t := range tickets {
		snapshots[i] = domain.TicketSnapshot{
			EventID:        eventID,
			Section:        t.Section,
			Zone:           t.Zone,
			RowName:        t.Row,
			Quantity:       t.Quantity,
			QuantityFilter: quantityFilter,
			Price:          t.Price,
			Rating:         t.Rating,
			Tags:           domain.StringArray(t.Tags),
			Source:         src,
			ScrapedAt:      scrapedAt,
		}
	}
	return w.store.CreateBatch(ctx, snapshots)
}
