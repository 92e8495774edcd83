package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ticketpulse/internal/config"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/runguard"
	"github.com/timmy/ticketpulse/internal/source"
)

type stubSource struct {
	calls int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchListings(ctx context.Context, productionID string, quantity int) (*source.ListingsResponse, error) {
	s.calls++
	return &source.ListingsResponse{
		Listings: []source.RawListing{
			{Section: "Floor A", Row: "3", Quantity: quantity, Price: json.RawMessage(`125.50`)},
			{Section: "112", Row: "K", Quantity: 4, Price: json.RawMessage(`"89.00"`)},
		},
		Event: &source.RawEvent{Name: "Finals Game 1", Date: "2030-06-01T19:30:00Z"},
		Venue: &source.RawVenue{Name: "Center Arena"},
	}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			Path:        "file:" + t.Name() + "?mode=memory&cache=shared",
			AutoMigrate: true,
			LogLevel:    "silent",
		},
		Marketplace: config.MarketplaceConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		Scraper: config.ScraperConfig{
			Enabled:         true,
			IntervalMinutes: 15,
			RequestDelay:    time.Millisecond,
			QuantityDelay:   time.Millisecond,
			EventDelay:      time.Millisecond,
			QuantityFilters: []int{1, 2, 4},
			PersistMock:     true,
			MockSeed:        7,
		},
		Aggregation: config.AggregationConfig{Enabled: true, DailyHour: 1},
		Scheduler:   config.SchedulerConfig{Guard: "local"},
	}
}

func TestBuild_ScrapeCycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	src := &stubSource{}
	a, err := Build(ctx, testConfig(t), logger.Discard(), WithSource(src))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Ping(ctx))
	require.NoError(t, a.Events.Create(ctx, &domain.Event{
		ID:        "evt-1",
		EventID:   "4321",
		EventName: "Finals Game 1",
		Date:      time.Now().Add(72 * time.Hour),
	}))

	require.NoError(t, a.Scrape.RunScrapeCycle(ctx))
	assert.Equal(t, 3, src.calls)

	count, err := a.Snapshots.CountByEvent(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	jobs, err := a.Jobs.ListRecent(ctx, "evt-1", 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobStatusCompleted, jobs[0].Status)
	require.NotNil(t, jobs[0].TicketsScraped)
	assert.Equal(t, 6, *jobs[0].TicketsScraped)

	zones, err := a.Analytics.ZonesWithPricing(ctx, "evt-1")
	require.NoError(t, err)
	assert.NotEmpty(t, zones)
}

func TestBuild_SchedulerTasks(t *testing.T) {
	cfg := testConfig(t)
	a, err := Build(context.Background(), cfg, logger.Discard(), WithSource(&stubSource{}))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{
		runguard.KeyScrapeAll,
		runguard.KeyHourlyAggregation,
		runguard.KeyDailyAggregation,
	}, a.Scheduler().Tasks())

	cfg.Scraper.Enabled = false
	assert.Equal(t, []string{
		runguard.KeyHourlyAggregation,
		runguard.KeyDailyAggregation,
	}, a.Scheduler().Tasks())
}

func TestBuild_SchedulerWithoutAggregation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Aggregation.Enabled = false
	a, err := Build(context.Background(), cfg, logger.Discard(), WithSource(&stubSource{}))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{runguard.KeyScrapeAll}, a.Scheduler().Tasks())
	_, isLocal := a.Guard.(*runguard.LocalGuard)
	assert.True(t, isLocal)
}

func TestBuild_RedisGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Scheduler = config.SchedulerConfig{Guard: "redis", RedisAddr: mr.Addr(), LockTTL: time.Minute}

	a, err := Build(context.Background(), cfg, logger.Discard(), WithSource(&stubSource{}))
	require.NoError(t, err)
	defer a.Close()

	_, isRedis := a.Guard.(*runguard.RedisGuard)
	require.True(t, isRedis)

	release, err := a.Guard.TryAcquire(context.Background(), runguard.KeyScrapeAll)
	require.NoError(t, err)
	assert.True(t, mr.Exists("ticketpulse:lock:"+runguard.KeyScrapeAll))
	release()
}

func TestBuild_RedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Scheduler = config.SchedulerConfig{Guard: "redis", RedisAddr: addr}

	_, err = Build(context.Background(), cfg, logger.Discard(), WithSource(&stubSource{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
