package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
)

func TestSnapshotWriter_SaveTickets(t *testing.T) {
	store := &fakeSnapshotStore{}
	w := NewSnapshotWriter(store, clock.NewFixed(testNow))

	tickets := []domain.TicketListing{
		{Section: "101", Zone: domain.ZoneLowerBowl, Row: "A", Quantity: 2, Price: decimal.NewFromInt(100), Rating: 7, Tags: []string{domain.TagAisleSeats}},
		{Section: "202", Zone: domain.ZoneUpperBowl, Row: "B", Quantity: 4, Price: decimal.NewFromInt(80), Rating: 6},
	}

	n, err := w.SaveTickets(context.Background(), "evt-1", tickets, 4, domain.DataSourceLive)
	if err != nil {
		t.Fatalf("SaveTickets() error = %v", err)
	}
	if n != 2 || len(store.batches) != 1 {
		t.Fatalf("written = %d, batches = %d; want 2, 1", n, len(store.batches))
	}
	for i, snap := range store.batches[0] {
		if snap.EventID != "evt-1" || snap.QuantityFilter != 4 || !snap.ScrapedAt.Equal(testNow) || snap.Source != domain.DataSourceLive {
			t.Errorf("snapshot[%d] = %+v", i, snap)
		}
		if snap.RowName != tickets[i].Row || snap.Quantity != tickets[i].Quantity {
			t.Errorf("snapshot[%d] row/quantity = %s/%d", i, snap.RowName, snap.Quantity)
		}
	}
}

func TestSnapshotWriter_EmptyWritesNothing(t *testing.T) {
	store := &fakeSnapshotStore{}
	n, err := NewSnapshotWriter(store, nil).SaveTickets(context.Background(), "evt-1", nil, 1, domain.DataSourceLive)
	if err != nil || n != 0 || store.calls != 0 {
		t.Errorf("SaveTickets(nil) = %d, %v; calls = %d", n, err, store.calls)
	}
}

func TestSnapshotWriter_PropagatesError(t *testing.T) {
	store := &fakeSnapshotStore{failOnCall: 1}
	_, err := NewSnapshotWriter(store, nil).SaveTickets(context.Background(), "evt-1", NewMockGenerator(1).Generate(), 1, domain.DataSourceMock)
	if !errors.Is(err, errStoreDown) {
		t.Errorf("SaveTickets() error = %v, want store error", err)
	}
}
