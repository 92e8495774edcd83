package domain

import "time"

// Rows read from store-owned rollup tables and views. The aggregation
// procedures fill them; this service never writes them.

// HourlyAnalytics is one row of aggregated_analytics.
type HourlyAnalytics struct {
	EventID           string    `json:"event_id"`
	HourTimestamp     time.Time `json:"hour_timestamp"`
	Zone              string    `json:"zone"`
	LowestPrice       *float64  `json:"lowest_price,omitempty"`
	LowestGroupPrice2 *float64  `gorm:"column:lowest_group_price_2" json:"lowest_group_price_2,omitempty"`
	LowestGroupPrice4 *float64  `gorm:"column:lowest_group_price_4" json:"lowest_group_price_4,omitempty"`
	TotalTickets      int       `json:"total_tickets"`
	TotalListings     int       `json:"total_listings"`
}

func (HourlyAnalytics) TableName() string {
	return "aggregated_analytics"
}

// PricePoint is a lowest-price sample.
type PricePoint struct {
	HourTimestamp time.Time `json:"hour_timestamp"`
	Zone          string    `json:"zone"`
	Price         *float64  `json:"price"`
}

// TicketCountPoint is a listing-volume sample.
type TicketCountPoint struct {
	HourTimestamp time.Time `json:"hour_timestamp"`
	Zone          string    `json:"zone"`
	TotalTickets  int       `json:"total_tickets"`
	TotalListings int       `json:"total_listings"`
}

// ZoneMapping is one row of zones_mapping.
type ZoneMapping struct {
	EventID  string      `json:"event_id"`
	Zone     string      `json:"zone"`
	Sections StringArray `gorm:"type:text" json:"sections"`
}

func (ZoneMapping) TableName() string {
	return "zones_mapping"
}

// EventStatistics is the event_statistics view row.
type EventStatistics struct {
	EventID       string     `json:"event_id"`
	TotalListings int        `json:"total_listings"`
	TotalTickets  int        `json:"total_tickets"`
	MinPrice      *float64   `json:"min_price,omitempty"`
	MaxPrice      *float64   `json:"max_price,omitempty"`
	AvgPrice      *float64   `json:"avg_price,omitempty"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

func (EventStatistics) TableName() string {
	return "event_statistics"
}

// SectionPrice is a latest_ticket_prices view row.
type SectionPrice struct {
	EventID   string    `json:"event_id"`
	Section   string    `json:"section"`
	Zone      string    `json:"zone"`
	MinPrice  float64   `json:"min_price"`
	Listings  int       `json:"listings"`
	ScrapedAt time.Time `json:"scraped_at"`
}

func (SectionPrice) TableName() string {
	return "latest_ticket_prices"
}

// ZonePricing summarises the most recent scrape of an event per zone.
type ZonePricing struct {
	Zone           string   `json:"zone"`
	MinPrice       *float64 `json:"minPrice"`
	MinGroupPrice2 *float64 `json:"minGroupPrice2"`
	MinGroupPrice4 *float64 `json:"minGroupPrice4"`
	TotalTickets   int      `json:"totalTickets"`
}
