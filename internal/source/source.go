package source

import (
	"context"
	"encoding/json"
)

// RawListing is one listing as the marketplace returns it.
// Fields are optional; several have fallbacks (sectionName, splitQuantity, faceValue).
type RawListing struct {
	Section         string          `json:"section"`
	SectionName     string          `json:"sectionName"`
	Zone            string          `json:"zone"`
	Row             string          `json:"row"`
	Quantity        int             `json:"quantity"`
	SplitQuantity   int             `json:"splitQuantity"`
	Price           json.RawMessage `json:"price"`     // number or numeric string
	FaceValue       json.RawMessage `json:"faceValue"` // number or numeric string
	DealScore       *float64        `json:"dealScore"`
	InstantDownload bool            `json:"instantDownload"`
	MobileTransfer  bool            `json:"mobileTransfer"`
	Aisle           bool            `json:"aisle"`
	VIP             bool            `json:"vip"`
	ParkingIncluded bool            `json:"parkingIncluded"`
}

// RawEvent is the event block of a listings payload.
type RawEvent struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// RawVenue is the venue block of a listings payload.
type RawVenue struct {
	Name string `json:"name"`
}

// ListingsResponse is a decoded listings payload.
type ListingsResponse struct {
	Listings []RawListing `json:"listings"`
	Event    *RawEvent    `json:"event"`
	Venue    *RawVenue    `json:"venue"`

	// Body is the undecoded response, kept for archiving.
	Body []byte `json:"-"`
}

// ListingSource fetches listings for one production at one quantity filter.
type ListingSource interface {
	// Name returns a stable identifier for logs.
	Name() string

	// FetchListings performs one request.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - productionID: marketplace production identifier.
	//   - quantity: number of tickets the buyer wants.
	// Returns:
	//   - *ListingsResponse: decoded payload.
	//   - error: non-nil on transport failure, non-2xx status or malformed body.
	FetchListings(ctx context.Context, productionID string, quantity int) (*ListingsResponse, error)
}
