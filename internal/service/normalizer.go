package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/source"
)

const (
	unknownEventName = "Unknown Event"
	unknownVenueName = "Unknown Venue"
)

// Normalizer maps marketplace payloads to canonical ticket listings.
type Normalizer struct {
	mock   *MockGenerator
	clock  clock.Clock
	logger *logger.Logger
}

// NewNormalizer creates a new Normalizer. mock supplies the fallback tickets.
func NewNormalizer(mock *MockGenerator, clk clock.Clock, log *logger.Logger) *Normalizer {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Normalizer{mock: mock, clock: clk, logger: log}
}

func (n *Normalizer) log(ctx context.Context) *logger.Logger {
	if logger.HasLogger(ctx) || n.logger == nil {
		return logger.FromContext(ctx)
	}
	return n.logger
}

// Normalize converts payload into EventData.
// A listing whose price cannot be parsed is dropped and logged. When no
// listing survives (nil payload, empty list, or all dropped) the result
// holds mock tickets and is tagged as mock.
// Parameters:
//   - ctx: context carrying the request logger.
//   - payload: decoded marketplace response, may be nil.
//   - productionID: marketplace production identifier.
//
// Returns:
//   - *domain.EventData: never nil.
func (n *Normalizer) Normalize(ctx context.Context, payload *source.ListingsResponse, productionID string) *domain.EventData {
	data := &domain.EventData{
		ProductionID: productionID,
		Name:         unknownEventName,
		Venue:        unknownVenueName,
		Date:         n.clock.Now(),
		Source:       domain.DataSourceLive,
	}

	var tickets []domain.TicketListing
	rejected := 0
	if payload != nil {
		if payload.Event != nil {
			if payload.Event.Name != "" {
				data.Name = payload.Event.Name
			}
			if date, ok := parseEventDate(payload.Event.Date); ok {
				data.Date = date
			}
		}
		if payload.Venue != nil && payload.Venue.Name != "" {
			data.Venue = payload.Venue.Name
		}

		tickets = make([]domain.TicketListing, 0, len(payload.Listings))
		for i, raw := range payload.Listings {
			ticket, err := normalizeListing(raw)
			if err != nil {
				rejected++
				n.log(ctx).WithFields(logger.Fields{
					logger.FieldProductionID: productionID,
					"listing_index":          i,
				}).WithError(err).Warn("Rejected listing")
				continue
			}
			tickets = append(tickets, ticket)
		}
	}

	if len(tickets) == 0 {
		n.log(ctx).WithFields(logger.Fields{
			logger.FieldProductionID: productionID,
			"rejected":               rejected,
		}).Warn("No usable listings, using mock tickets")
		data.Tickets = n.mock.Generate()
		data.Source = domain.DataSourceMock
		return data
	}

	if rejected > 0 {
		n.log(ctx).WithFields(logger.Fields{
			logger.FieldProductionID: productionID,
			logger.FieldCount:        len(tickets),
			"rejected":               rejected,
		}).Info("Normalized listings with rejections")
	}
	data.Tickets = tickets
	return data
}

func normalizeListing(raw source.RawListing) (domain.TicketListing, error) {
	priceRaw := raw.Price
	if isZeroPrice(priceRaw) {
		priceRaw = raw.FaceValue
	}
	price, err := parsePrice(priceRaw)
	if err != nil {
		return domain.TicketListing{}, err
	}

	section := raw.Section
	if section == "" {
		section = raw.SectionName
	}
	zone := raw.Zone
	if zone == "" {
		zone = DeriveZone(raw.Section)
	}
	quantity := raw.Quantity
	if quantity <= 0 {
		quantity = raw.SplitQuantity
	}
	if quantity <= 0 {
		return domain.TicketListing{}, fmt.Errorf("quantity missing")
	}
	rating := domain.DefaultRating
	if raw.DealScore != nil && *raw.DealScore != 0 {
		rating = *raw.DealScore
	}

	return domain.TicketListing{
		Section:  section,
		Zone:     zone,
		Row:      raw.Row,
		Quantity: quantity,
		Price:    price,
		Rating:   rating,
		Tags:     ExtractTags(raw),
	}, nil
}

// parsePrice accepts a JSON number or a numeric string.
func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	if isBlankJSON(raw) {
		return decimal.Zero, fmt.Errorf("price missing")
	}
	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("invalid price %s: %w", text, err)
		}
		text = strings.TrimSpace(s)
	}
	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", text, err)
	}
	return price, nil
}

func isBlankJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`:
		return true
	}
	return false
}

// isZeroPrice reports whether raw is missing or numerically zero, in which
// case the face value stands in for it.
func isZeroPrice(raw json.RawMessage) bool {
	if isBlankJSON(raw) {
		return true
	}
	price, err := parsePrice(raw)
	return err == nil && price.IsZero()
}

func parseEventDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DeriveZone maps a section's leading integer to a zone name.
// 100-199 Lower Bowl, 200-299 Upper Bowl, 300-399 Club Level, 500+ Upper Deck,
// anything else (including non-numeric sections) General Admission.
func DeriveZone(section string) string {
	num, ok := leadingInt(section)
	if !ok {
		return domain.ZoneGeneralAdmission
	}
	switch {
	case num >= 100 && num < 200:
		return domain.ZoneLowerBowl
	case num >= 200 && num < 300:
		return domain.ZoneUpperBowl
	case num >= 300 && num < 400:
		return domain.ZoneClubLevel
	case num >= 500:
		return domain.ZoneUpperDeck
	default:
		return domain.ZoneGeneralAdmission
	}
}

// leadingInt parses an optional sign and the leading digits of s, so "112A" is 112.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	num, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		if num < 1_000_000_000 {
			num = num*10 + int(r-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		num = -num
	}
	return num, true
}

// ExtractTags returns the capability labels set on a listing, in a fixed order.
func ExtractTags(raw source.RawListing) []string {
	tags := []string{}
	if raw.InstantDownload {
		tags = append(tags, domain.TagInstantDownload)
	}
	if raw.MobileTransfer {
		tags = append(tags, domain.TagMobileTransfer)
	}
	if raw.Aisle {
		tags = append(tags, domain.TagAisleSeats)
	}
	if raw.VIP {
		tags = append(tags, domain.TagVIPAccess)
	}
	if raw.ParkingIncluded {
		tags = append(tags, domain.TagParkingIncluded)
	}
	return tags
}
