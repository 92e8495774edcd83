package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/ticketpulse/internal/domain"
	"gorm.io/gorm"
)

// EventRepository reads tracked events.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a tracked event.
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListUpcoming returns events dated at or after now, soonest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - now: cut-off instant.
//
// Returns:
//   - []domain.Event: matching events.
//   - error: non-nil if the query fails.
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time) ([]domain.Event, error) {
	var events []domain.Event
	if err := r.db.WithContext(ctx).
		Where("date >= ?", now).
		Order("date ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	return events, nil
}

// GetByID returns the event with internal id, or domain.ErrEventNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var event domain.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}
