package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketSnapshot is one persisted listing observation. Snapshots written in the
// same fetch-and-save cycle share ScrapedAt and QuantityFilter.
type TicketSnapshot struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	EventID        string          `gorm:"type:text;not null;index:idx_snapshots_event_time,priority:1" json:"event_id"`
	Section        string          `gorm:"type:text" json:"section"`
	Zone           string          `gorm:"type:text;index" json:"zone"`
	RowName        string          `gorm:"type:text" json:"row_name"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	QuantityFilter int             `gorm:"not null;default:1" json:"quantity_filter"`
	Price          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Rating         float64         `json:"rating"`
	Tags           StringArray     `gorm:"type:text" json:"tags"`
	Source         DataSource      `gorm:"type:text;not null;default:live" json:"source"`
	ScrapedAt      time.Time       `gorm:"not null;index:idx_snapshots_event_time,priority:2" json:"scraped_at"`
}

// TableName returns the database table name for TicketSnapshot.
func (TicketSnapshot) TableName() string {
	return "ticket_snapshots"
}
