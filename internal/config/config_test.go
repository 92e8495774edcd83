package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  mode: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Scraper.Interval())
	assert.Equal(t, 2*time.Second, cfg.Scraper.RequestDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.QuantityDelay)
	assert.Equal(t, time.Second, cfg.Scraper.EventDelay)
	assert.Equal(t, []int{1, 2, 4}, cfg.Scraper.QuantityFilters)
	assert.True(t, cfg.Scraper.PersistMock)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "local", cfg.Scheduler.Guard)
	assert.Equal(t, 1, cfg.Aggregation.DailyHour)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  url: postgres://tickets:secret@db:5432/tickets
scraper:
  interval_minutes: 5
  request_delay: 3s
  quantity_filters: [1, 2]
  persist_mock: false
scheduler:
  guard: redis
  lock_ttl: 10m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://tickets:secret@db:5432/tickets", cfg.Database.DSN())
	assert.Equal(t, 5*time.Minute, cfg.Scraper.Interval())
	assert.Equal(t, 3*time.Second, cfg.Scraper.RequestDelay)
	assert.Equal(t, []int{1, 2}, cfg.Scraper.QuantityFilters)
	assert.False(t, cfg.Scraper.PersistMock)
	assert.Equal(t, "redis", cfg.Scheduler.Guard)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.LockTTL)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENABLE_SCRAPER", "false")
	t.Setenv("SCRAPER_INTERVAL_MINUTES", "30")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Scraper.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Scraper.Interval())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{"postgres", DatabaseConfig{Driver: "postgres", URL: "postgres://x"}, "postgres://x"},
		{"sqlite file", DatabaseConfig{Driver: "sqlite", Path: "./data/t.db"}, "./data/t.db"},
		{"sqlite memory", DatabaseConfig{Driver: "sqlite"}, "file::memory:?cache=shared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

func validConfig() Config {
	return Config{
		Database:    DatabaseConfig{Driver: "sqlite"},
		Marketplace: MarketplaceConfig{BaseURL: "https://www.vividseats.com"},
		Scraper:     ScraperConfig{IntervalMinutes: 15, QuantityFilters: []int{1, 2, 4}},
		Aggregation: AggregationConfig{DailyHour: 1},
		Scheduler:   SchedulerConfig{Guard: "local"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }, "database.url is required for the postgres driver"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, `unsupported database driver "mysql"`},
		{"relative base url", func(c *Config) { c.Marketplace.BaseURL = "vividseats" }, "invalid marketplace.base_url"},
		{"zero interval", func(c *Config) { c.Scraper.IntervalMinutes = 0 }, "scraper.interval_minutes must be positive, got 0"},
		{"no filters", func(c *Config) { c.Scraper.QuantityFilters = nil }, "scraper.quantity_filters must not be empty"},
		{"negative filter", func(c *Config) { c.Scraper.QuantityFilters = []int{1, -2} }, "scraper.quantity_filters contains non-positive value -2"},
		{"daily hour", func(c *Config) { c.Aggregation.DailyHour = 24 }, "aggregation.daily_hour must be within 0-23, got 24"},
		{"guard", func(c *Config) { c.Scheduler.Guard = "etcd" }, `unsupported scheduler.guard "etcd"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
