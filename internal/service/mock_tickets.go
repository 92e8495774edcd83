package service

import (
	"math"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/timmy/ticketpulse/internal/domain"
)

// MockTicketCount is the number of listings Generate returns.
const MockTicketCount = 50

var (
	mockSections = []string{"101", "102", "103", "201", "202", "203"}
	mockZones    = []string{domain.ZoneLowerBowl, domain.ZoneUpperBowl, domain.ZoneClubLevel}
	mockTags     = []string{domain.TagMobileTransfer, domain.TagInstantDownload, domain.TagAisleSeats, domain.TagVIPAccess}
)

// MockGenerator produces synthetic listings used when the marketplace is unavailable.
type MockGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockGenerator creates a generator. The same seed yields the same sequence.
func NewMockGenerator(seed int64) *MockGenerator {
	return &MockGenerator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns MockTicketCount listings.
func (g *MockGenerator) Generate() []domain.TicketListing {
	g.mu.Lock()
	defer g.mu.Unlock()

	tickets := make([]domain.TicketListing, MockTicketCount)
	for i := range tickets {
		// Truncate so a draw near 10.0 never rounds up to the excluded bound.
		rating := math.Floor((g.rnd.Float64()*5+5)*10) / 10
		tickets[i] = domain.TicketListing{
			Section:  mockSections[g.rnd.Intn(len(mockSections))],
			Zone:     mockZones[g.rnd.Intn(len(mockZones))],
			Row:      string(rune('A' + g.rnd.Intn(10))),
			Quantity: g.rnd.Intn(6) + 1,
			Price:    decimal.NewFromInt(int64(g.rnd.Intn(500) + 50)),
			Rating:   rating,
			Tags:     append([]string{}, mockTags[:g.rnd.Intn(3)]...),
		}
	}
	return tickets
}
