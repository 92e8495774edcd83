package service

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/timmy/ticketpulse/internal/domain"
)

func mockTicketsValid(tickets []domain.TicketListing) bool {
	if len(tickets) != MockTicketCount {
		return false
	}
	low, high := decimal.NewFromInt(50), decimal.NewFromInt(550)
	for _, tk := range tickets {
		if tk.Quantity < 1 || tk.Quantity > 6 {
			return false
		}
		if tk.Price.LessThan(low) || !tk.Price.LessThan(high) || !tk.Price.Equal(tk.Price.Truncate(0)) {
			return false
		}
		if tk.Rating < 5.0 || tk.Rating >= 10.0 {
			return false
		}
		if len(tk.Row) != 1 || tk.Row[0] < 'A' || tk.Row[0] > 'J' {
			return false
		}
		if len(tk.Tags) > 2 {
			return false
		}
		for i, tag := range tk.Tags {
			if tag != mockTags[i] {
				return false
			}
		}
	}
	return true
}

func TestMockGenerator_Bounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("50 listings within bounds for any seed", prop.ForAll(
		func(seed int64) bool {
			return mockTicketsValid(NewMockGenerator(seed).Generate())
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestMockGenerator_Deterministic(t *testing.T) {
	a := NewMockGenerator(42).Generate()
	b := NewMockGenerator(42).Generate()
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should produce the same listings")
	}

	g := NewMockGenerator(42)
	first, second := g.Generate(), g.Generate()
	if reflect.DeepEqual(first, second) {
		t.Error("consecutive calls should advance the random source")
	}
}

func TestMockGenerator_RatingHasOneDecimal(t *testing.T) {
	for _, tk := range NewMockGenerator(7).Generate() {
		scaled := tk.Rating * 10
		if diff := scaled - float64(int(scaled+0.5)); diff > 1e-9 || diff < -1e-9 {
			t.Errorf("rating %v has more than one decimal", tk.Rating)
		}
	}
}
