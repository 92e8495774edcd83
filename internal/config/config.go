package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Scraper     ScraperConfig     `mapstructure:"scraper"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Analytics   AnalyticsConfig   `mapstructure:"analytics"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	URL             string        `mapstructure:"url"`
	Path            string        `mapstructure:"path"` // sqlite file
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	if c.Path == "" {
		return "file::memory:?cache=shared"
	}
	return c.Path
}

type MarketplaceConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ScraperConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	IntervalMinutes int           `mapstructure:"interval_minutes"`
	RequestDelay    time.Duration `mapstructure:"request_delay"`
	QuantityDelay   time.Duration `mapstructure:"quantity_delay"`
	EventDelay      time.Duration `mapstructure:"event_delay"`
	QuantityFilters []int         `mapstructure:"quantity_filters"`
	PersistMock     bool          `mapstructure:"persist_mock"`
	MockSeed        int64         `mapstructure:"mock_seed"` // 0 seeds from the clock
}

// Interval returns the scrape-all period.
func (c *ScraperConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
}

type AggregationConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	HourlyProcedure string `mapstructure:"hourly_procedure"`
	DailyProcedure  string `mapstructure:"daily_procedure"`
	DailyHour       int    `mapstructure:"daily_hour"`
}

type AnalyticsConfig struct {
	ExcludeMock bool `mapstructure:"exclude_mock"`
}

type SchedulerConfig struct {
	Guard     string        `mapstructure:"guard"` // local or redis
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Names used by existing deployments
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("scraper.enabled", "ENABLE_SCRAPER")
	v.BindEnv("scraper.interval_minutes", "SCRAPER_INTERVAL_MINUTES")
	v.BindEnv("aggregation.enabled", "AGGREGATION_ENABLED")
	v.BindEnv("archive.access_key", "ARCHIVE_ACCESS_KEY")
	v.BindEnv("archive.secret_key", "ARCHIVE_SECRET_KEY")
	v.BindEnv("scheduler.redis_addr", "REDIS_ADDR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/tickets.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("marketplace.base_url", "https://www.vividseats.com")
	v.SetDefault("marketplace.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("marketplace.timeout", 20*time.Second)
	v.SetDefault("scraper.enabled", true)
	v.SetDefault("scraper.interval_minutes", 15)
	v.SetDefault("scraper.request_delay", 2*time.Second)
	v.SetDefault("scraper.quantity_delay", 500*time.Millisecond)
	v.SetDefault("scraper.event_delay", time.Second)
	v.SetDefault("scraper.quantity_filters", []int{1, 2, 4})
	v.SetDefault("scraper.persist_mock", true)
	v.SetDefault("scraper.mock_seed", 0)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.bucket", "ticket-payloads")
	v.SetDefault("archive.prefix", "raw")
	v.SetDefault("aggregation.enabled", true)
	v.SetDefault("aggregation.hourly_procedure", "aggregate_hourly_analytics")
	v.SetDefault("aggregation.daily_procedure", "aggregate_daily_analytics")
	v.SetDefault("aggregation.daily_hour", 1)
	v.SetDefault("analytics.exclude_mock", false)
	v.SetDefault("scheduler.guard", "local")
	v.SetDefault("scheduler.redis_addr", "localhost:6379")
	v.SetDefault("scheduler.lock_ttl", 30*time.Minute)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if _, err := url.ParseRequestURI(c.Marketplace.BaseURL); err != nil {
		return fmt.Errorf("invalid marketplace.base_url: %w", err)
	}
	if c.Scraper.IntervalMinutes <= 0 {
		return fmt.Errorf("scraper.interval_minutes must be positive, got %d", c.Scraper.IntervalMinutes)
	}
	if len(c.Scraper.QuantityFilters) == 0 {
		return fmt.Errorf("scraper.quantity_filters must not be empty")
	}
	for _, q := range c.Scraper.QuantityFilters {
		if q <= 0 {
			return fmt.Errorf("scraper.quantity_filters contains non-positive value %d", q)
		}
	}
	if c.Aggregation.DailyHour < 0 || c.Aggregation.DailyHour > 23 {
		return fmt.Errorf("aggregation.daily_hour must be within 0-23, got %d", c.Aggregation.DailyHour)
	}
	switch c.Scheduler.Guard {
	case "local", "redis":
	default:
		return fmt.Errorf("unsupported scheduler.guard %q", c.Scheduler.Guard)
	}
	return nil
}
