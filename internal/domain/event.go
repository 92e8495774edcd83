package domain

import "time"

// Event is a tracked event. ID is the internal key referenced by jobs and
// snapshots; EventID is the marketplace production ID used for fetching.
type Event struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	EventID   string    `gorm:"type:text;not null;uniqueIndex" json:"event_id"`
	EventName string    `gorm:"type:text" json:"event_name"`
	Venue     string    `gorm:"type:text" json:"venue"`
	Date      time.Time `gorm:"not null;index" json:"date"`
	Category  string    `gorm:"type:text" json:"category"`
}

// TableName returns the database table name for Event.
func (Event) TableName() string {
	return "events"
}
