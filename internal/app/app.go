// Package app assembles the scrape pipeline from configuration. Both the API
// server and the one-shot scrape command start from Build.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/config"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/ratelimit"
	"github.com/timmy/ticketpulse/internal/repository"
	"github.com/timmy/ticketpulse/internal/runguard"
	"github.com/timmy/ticketpulse/internal/scheduler"
	"github.com/timmy/ticketpulse/internal/service"
	"github.com/timmy/ticketpulse/internal/source"
	"github.com/timmy/ticketpulse/internal/source/vividseats"
	"github.com/timmy/ticketpulse/internal/storage"
	"gorm.io/gorm"
)

// App holds the wired components.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Clock  clock.Clock
	Logger *logger.Logger

	Events    *repository.EventRepository
	Jobs      *repository.JobRepository
	Snapshots *repository.SnapshotRepository

	Scrape      *service.ScrapeService
	Analytics   *service.AnalyticsService
	Aggregation *service.AggregationService
	Guard       runguard.Guard

	redis *redis.Client
}

// Option customises Build.
type Option func(*options)

type options struct {
	clock  clock.Clock
	source source.ListingSource
	db     *gorm.DB
}

// WithClock overrides the system clock.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithSource replaces the marketplace adapter.
func WithSource(src source.ListingSource) Option {
	return func(o *options) { o.source = src }
}

// WithDB reuses an open database instead of connecting from cfg.Database.
func WithDB(db *gorm.DB) Option {
	return func(o *options) { o.db = db }
}

// Build connects the store, the optional archive and run guard, and wires
// the services.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (_ *App, err error) {
	o := &options{clock: clock.NewSystem()}
	for _, opt := range opts {
		opt(o)
	}

	db := o.db
	if db == nil {
		if db, err = repository.InitDB(&cfg.Database, log); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		defer func() {
			if err != nil {
				if sqlDB, dbErr := db.DB(); dbErr == nil {
					_ = sqlDB.Close()
				}
			}
		}()
	}

	a := &App{
		Config:    cfg,
		DB:        db,
		Clock:     o.clock,
		Logger:    log,
		Events:    repository.NewEventRepository(db),
		Jobs:      repository.NewJobRepository(db),
		Snapshots: repository.NewSnapshotRepository(db),
	}

	archive, err := storage.NewPayloadArchiveFromConfig(ctx, &cfg.Archive, o.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payload archive: %w", err)
	}
	if archive != nil {
		log.WithField("bucket", cfg.Archive.Bucket).Info("Raw payload archive enabled")
	}

	src := o.source
	if src == nil {
		src = vividseats.NewAdapter(vividseats.Config{
			BaseURL:   cfg.Marketplace.BaseURL,
			UserAgent: cfg.Marketplace.UserAgent,
			Timeout:   cfg.Marketplace.Timeout,
		})
	}

	seed := cfg.Scraper.MockSeed
	if seed == 0 {
		seed = o.clock.Now().UnixNano()
	}
	mock := service.NewMockGenerator(seed)
	limiter := ratelimit.New(cfg.Scraper.RequestDelay, ratelimit.WithClock(o.clock))
	normalizer := service.NewNormalizer(mock, o.clock, log)

	var archiver service.PayloadArchiver
	if archive != nil {
		archiver = archive
	}
	fetcher := service.NewEventFetcher(src, limiter, normalizer, mock, archiver, o.clock, log)

	a.Scrape = service.NewScrapeService(
		a.Events,
		fetcher,
		service.NewJobTracker(a.Jobs, o.clock, log),
		service.NewSnapshotWriter(a.Snapshots, o.clock),
		service.ScrapeConfig{
			QuantityFilters: cfg.Scraper.QuantityFilters,
			QuantityDelay:   cfg.Scraper.QuantityDelay,
			EventDelay:      cfg.Scraper.EventDelay,
			PersistMock:     cfg.Scraper.PersistMock,
		},
		o.clock,
		log,
	)

	analyticsRepo := repository.NewAnalyticsRepository(db)
	a.Analytics = service.NewAnalyticsService(analyticsRepo, a.Snapshots, a.Events, o.clock, log,
		&service.AnalyticsConfig{ExcludeMock: cfg.Analytics.ExcludeMock})
	a.Aggregation = service.NewAggregationService(analyticsRepo, service.AggregationConfig{
		Enabled:         cfg.Aggregation.Enabled,
		HourlyProcedure: cfg.Aggregation.HourlyProcedure,
		DailyProcedure:  cfg.Aggregation.DailyProcedure,
	}, log)

	if err = a.buildGuard(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) buildGuard(ctx context.Context) error {
	if a.Config.Scheduler.Guard != "redis" {
		a.Guard = runguard.NewLocalGuard()
		return nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr: a.Config.Scheduler.RedisAddr,
		DB:   a.Config.Scheduler.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		_ = a.redis.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", a.Config.Scheduler.RedisAddr, err)
	}

	guard, err := runguard.NewRedisGuard(&runguard.RedisGuardConfig{
		Redis:  a.redis,
		TTL:    a.Config.Scheduler.LockTTL,
		Logger: a.Logger,
	})
	if err != nil {
		return err
	}
	a.Guard = guard
	a.Logger.WithField("addr", a.Config.Scheduler.RedisAddr).Info("Using Redis run guard")
	return nil
}

// Scheduler returns the periodic tasks: the scrape cycle when the scraper is
// enabled, and both aggregation rollups when aggregation is enabled.
func (a *App) Scheduler() *scheduler.Scheduler {
	s := scheduler.New(a.Guard, a.Clock, a.Logger)
	if a.Config.Scraper.Enabled {
		s.Add(scheduler.Task{
			Name: runguard.KeyScrapeAll,
			Next: scheduler.Every(a.Config.Scraper.Interval()),
			Run:  a.Scrape.RunScrapeCycle,
		})
	}
	if a.Aggregation.Enabled() {
		s.Add(scheduler.Task{
			Name: runguard.KeyHourlyAggregation,
			Next: scheduler.HourlyAt(0),
			Run:  a.Aggregation.RunHourlyAggregation,
		})
		s.Add(scheduler.Task{
			Name: runguard.KeyDailyAggregation,
			Next: scheduler.DailyAt(a.Config.Aggregation.DailyHour, 0),
			Run:  a.Aggregation.RunDailyAggregation,
		})
	}
	return s
}

// Ping checks the database connection.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var firstErr error
	if a.redis != nil {
		firstErr = a.redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
