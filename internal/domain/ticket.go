package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Zone names. Derived zones come from the section number; the marketplace may supply its own.
const (
	ZoneLowerBowl        = "Lower Bowl"
	ZoneUpperBowl        = "Upper Bowl"
	ZoneClubLevel        = "Club Level"
	ZoneUpperDeck        = "Upper Deck"
	ZoneGeneralAdmission = "General Admission"
)

// Listing capability tags.
const (
	TagInstantDownload = "Instant Download"
	TagMobileTransfer  = "Mobile Transfer"
	TagAisleSeats      = "Aisle Seats"
	TagVIPAccess       = "VIP Access"
	TagParkingIncluded = "Parking Included"
)

// DefaultRating is used when a listing carries no deal score.
const DefaultRating = 5.0

// TicketListing is the canonical shape of one marketplace listing.
type TicketListing struct {
	Section  string          `json:"section,omitempty"`
	Zone     string          `json:"zone"`
	Row      string          `json:"row,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Rating   float64         `json:"rating"`
	Tags     []string        `json:"tags"`
}

// EventData is the result of fetching one event at one quantity filter.
type EventData struct {
	ProductionID string          `json:"production_id"`
	Name         string          `json:"name"`
	Venue        string          `json:"venue"`
	Date         time.Time       `json:"date"`
	Tickets      []TicketListing `json:"tickets"`
	Source       DataSource      `json:"source"`
}
