// Package runguard keeps two runs of the same kind from overlapping.
package runguard

import (
	"context"

	"github.com/timmy/ticketpulse/internal/domain"
)

// Well-known run keys.
const (
	KeyScrapeAll         = "scrape-all"
	KeyHourlyAggregation = "aggregation-hourly"
	KeyDailyAggregation  = "aggregation-daily"
)

// KeyScrapeEvent is the run key of a single-event scrape.
func KeyScrapeEvent(eventID string) string {
	return "scrape-event:" + eventID
}

// ErrHeld is returned by TryAcquire when another run holds the key.
var ErrHeld = domain.ErrRunInProgress

// Guard hands out exclusive, non-blocking leases per key.
type Guard interface {
	// TryAcquire takes the lease for key or returns ErrHeld at once.
	// The returned release func must be called exactly once.
	TryAcquire(ctx context.Context, key string) (release func(), err error)

	// Held reports whether some run currently holds key.
	Held(ctx context.Context, key string) (bool, error)
}

// Run executes fn while holding key. It returns ErrHeld without calling fn
// when the key is taken.
func Run(ctx context.Context, g Guard, key string, fn func(ctx context.Context) error) error {
	release, err := g.TryAcquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
