package service

import (
	"context"
	"time"

	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
)

const (
	DefaultHourlyProcedure = "aggregate_hourly_analytics"
	DefaultDailyProcedure  = "aggregate_daily_analytics"
)

// ProcedureCaller invokes a stored procedure by name.
type ProcedureCaller interface {
	CallProcedure(ctx context.Context, name string) error
}

// AggregationConfig names the rollup procedures.
type AggregationConfig struct {
	Enabled         bool
	HourlyProcedure string
	DailyProcedure  string
}

// AggregationService triggers the store-owned rollups.
type AggregationService struct {
	caller ProcedureCaller
	cfg    AggregationConfig
	logger *logger.Logger
}

// NewAggregationService creates a new AggregationService.
func NewAggregationService(caller ProcedureCaller, cfg AggregationConfig, log *logger.Logger) *AggregationService {
	if cfg.HourlyProcedure == "" {
		cfg.HourlyProcedure = DefaultHourlyProcedure
	}
	if cfg.DailyProcedure == "" {
		cfg.DailyProcedure = DefaultDailyProcedure
	}
	return &AggregationService{caller: caller, cfg: cfg, logger: log}
}

// Enabled reports whether aggregation runs at all.
func (s *AggregationService) Enabled() bool {
	return s.cfg.Enabled
}

// RunHourlyAggregation calls the hourly rollup procedure.
func (s *AggregationService) RunHourlyAggregation(ctx context.Context) error {
	return s.run(ctx, "hourly", s.cfg.HourlyProcedure)
}

// RunDailyAggregation calls the daily rollup procedure.
func (s *AggregationService) RunDailyAggregation(ctx context.Context) error {
	return s.run(ctx, "daily", s.cfg.DailyProcedure)
}

func (s *AggregationService) run(ctx context.Context, kind, procedure string) error {
	if !s.cfg.Enabled {
		return domain.ErrAggregationOff
	}

	log := logger.FromContext(ctx)
	if !logger.HasLogger(ctx) && s.logger != nil {
		log = s.logger
	}
	log = log.WithFields(logger.Fields{"aggregation": kind, "procedure": procedure})

	start := time.Now()
	log.Info("Running aggregation")
	if err := s.caller.CallProcedure(ctx, procedure); err != nil {
		log.WithError(err).Error("Error running aggregation")
		return err
	}
	log.WithField(logger.FieldDurationMs, time.Since(start).Milliseconds()).Info("Aggregation completed")
	return nil
}
