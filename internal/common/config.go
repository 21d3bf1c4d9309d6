package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"`
	Provider    ProviderConfig `toml:"provider"`
	Storage     StorageConfig  `toml:"storage"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Export      ExportConfig   `toml:"export"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ProviderConfig selects and configures the market-data provider
type ProviderConfig struct {
	Name      string `toml:"name"`       // "eodhd" or "yahoo"
	APIKey    string `toml:"api_key"`    // EODHD API token
	BaseURL   string `toml:"base_url"`   // Override for the EODHD API root
	Exchange  string `toml:"exchange"`   // Exchange suffix appended to tickers (EODHD), e.g. "US"
	RateLimit int    `toml:"rate_limit"` // Requests per second
	Timeout   string `toml:"timeout"`    // HTTP timeout, e.g. "30s"
	Lookback  string `toml:"lookback"`   // Price history window, e.g. "8760h" (one year)
}

type StorageConfig struct {
	SQL   SQLConfig   `toml:"sql"`
	Cache CacheConfig `toml:"cache"`
}

// SQLConfig configures the relational store
type SQLConfig struct {
	Driver             string `toml:"driver"` // "sqlite" or "postgres"
	Path               string `toml:"path"`   // SQLite database file
	DSN                string `toml:"dsn"`    // Postgres connection string
	CacheSizeMB        int    `toml:"cache_size_mb"`
	WALMode            bool   `toml:"wal_mode"`
	BusyTimeoutMS      int    `toml:"busy_timeout_ms"`
	ResetOnStartup     bool   `toml:"reset_on_startup"`
	MaxOpenConnections int    `toml:"max_open_connections"`
}

// CacheConfig configures the badger provider-response cache
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	TTL     string `toml:"ttl"` // e.g. "12h"
}

// PipelineConfig controls one ETL run
type PipelineConfig struct {
	CompaniesFile        string `toml:"companies_file"`
	SleepBetween         string `toml:"sleep_between"`
	MaxStatements        int    `toml:"max_statements"`
	Periodic             bool   `toml:"periodic"`
	PeriodicIntervalDays int    `toml:"periodic_interval_days"`
	ForecastHorizonDays  int    `toml:"forecast_horizon_days"`
	FieldMapVersion      string `toml:"field_map_version"`
	SkipMetrics          bool   `toml:"skip_metrics"`
	SkipForecasts        bool   `toml:"skip_forecasts"`
}

type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // Standard 5-field cron expression
}

type ExportConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
	Dir    string   `toml:"dir"`    // Directory for the log file; defaults to ./logs
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in equitydb.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Provider: ProviderConfig{
			Name:      "eodhd",
			Exchange:  "US",
			RateLimit: 10,
			Timeout:   "30s",
			Lookback:  "8760h",
		},
		Storage: StorageConfig{
			SQL: SQLConfig{
				Driver:             "sqlite",
				Path:               "./data/equitydb.db",
				CacheSizeMB:        64,
				WALMode:            true,
				BusyTimeoutMS:      10000,
				MaxOpenConnections: 1,
			},
			Cache: CacheConfig{
				Enabled: true,
				Path:    "./data/cache",
				TTL:     "12h",
			},
		},
		Pipeline: PipelineConfig{
			SleepBetween:         "2s",
			MaxStatements:        4,
			PeriodicIntervalDays: 15,
			ForecastHorizonDays:  30,
			FieldMapVersion:      "v3",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "30 18 * * 1-5", // weekdays after the US close
		},
		Export: ExportConfig{
			Dir: "./data/export",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files. A .env file in the working directory,
// if present, is loaded into the environment before overrides are applied.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Missing .env is normal; real environment variables still apply
	_ = godotenv.Load()

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies EQUITYDB_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("EQUITYDB_ENV"); env != "" {
		config.Environment = env
	}

	// Provider configuration
	if name := os.Getenv("EQUITYDB_PROVIDER"); name != "" {
		config.Provider.Name = name
	}
	if apiKey := os.Getenv("EQUITYDB_EODHD_API_KEY"); apiKey != "" {
		config.Provider.APIKey = apiKey
	} else if apiKey := os.Getenv("EODHD_API_KEY"); apiKey != "" && config.Provider.APIKey == "" {
		config.Provider.APIKey = apiKey
	}
	if baseURL := os.Getenv("EQUITYDB_PROVIDER_BASE_URL"); baseURL != "" {
		config.Provider.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("EQUITYDB_PROVIDER_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Provider.RateLimit = rl
		}
	}
	if lookback := os.Getenv("EQUITYDB_PROVIDER_LOOKBACK"); lookback != "" {
		if _, err := time.ParseDuration(lookback); err == nil {
			config.Provider.Lookback = lookback
		}
	}

	// Storage configuration
	if driver := os.Getenv("EQUITYDB_DB_DRIVER"); driver != "" {
		config.Storage.SQL.Driver = driver
	}
	if path := os.Getenv("EQUITYDB_DB_PATH"); path != "" {
		config.Storage.SQL.Path = path
	}
	if dsn := os.Getenv("EQUITYDB_DB_DSN"); dsn != "" {
		config.Storage.SQL.DSN = dsn
	}
	if cacheEnabled := os.Getenv("EQUITYDB_CACHE_ENABLED"); cacheEnabled != "" {
		if ce, err := strconv.ParseBool(cacheEnabled); err == nil {
			config.Storage.Cache.Enabled = ce
		}
	}
	if cachePath := os.Getenv("EQUITYDB_CACHE_PATH"); cachePath != "" {
		config.Storage.Cache.Path = cachePath
	}

	// Pipeline configuration
	if companies := os.Getenv("EQUITYDB_COMPANIES_FILE"); companies != "" {
		config.Pipeline.CompaniesFile = companies
	}
	if sleep := os.Getenv("EQUITYDB_SLEEP_BETWEEN"); sleep != "" {
		if _, err := time.ParseDuration(sleep); err == nil {
			config.Pipeline.SleepBetween = sleep
		}
	}
	if periodic := os.Getenv("EQUITYDB_PERIODIC"); periodic != "" {
		if p, err := strconv.ParseBool(periodic); err == nil {
			config.Pipeline.Periodic = p
		}
	}
	if version := os.Getenv("EQUITYDB_FIELD_MAP_VERSION"); version != "" {
		config.Pipeline.FieldMapVersion = version
	}

	if schedule := os.Getenv("EQUITYDB_SCHEDULE"); schedule != "" {
		config.Schedule.Cron = schedule
	}
	if dir := os.Getenv("EQUITYDB_EXPORT_DIR"); dir != "" {
		config.Export.Dir = dir
	}

	// Logging configuration
	if level := os.Getenv("EQUITYDB_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("EQUITYDB_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "eodhd":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider eodhd requires an api key (set EQUITYDB_EODHD_API_KEY)")
		}
	case "yahoo":
	default:
		return fmt.Errorf("unknown provider %q (expected eodhd or yahoo)", c.Provider.Name)
	}

	switch c.Storage.SQL.Driver {
	case "sqlite":
		if c.Storage.SQL.Path == "" {
			return fmt.Errorf("storage.sql.path is required for sqlite")
		}
	case "postgres":
		if c.Storage.SQL.DSN == "" {
			return fmt.Errorf("storage.sql.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (expected sqlite or postgres)", c.Storage.SQL.Driver)
	}

	for name, value := range map[string]string{
		"provider.timeout":       c.Provider.Timeout,
		"provider.lookback":      c.Provider.Lookback,
		"pipeline.sleep_between": c.Pipeline.SleepBetween,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	if c.Storage.Cache.Enabled {
		if _, err := time.ParseDuration(c.Storage.Cache.TTL); err != nil {
			return fmt.Errorf("invalid storage.cache.ttl %q: %w", c.Storage.Cache.TTL, err)
		}
	}

	if c.Pipeline.MaxStatements <= 0 {
		return fmt.Errorf("pipeline.max_statements must be positive")
	}
	if c.Pipeline.PeriodicIntervalDays <= 0 || c.Pipeline.ForecastHorizonDays <= 0 {
		return fmt.Errorf("pipeline periodic_interval_days and forecast_horizon_days must be positive")
	}

	if c.Schedule.Enabled {
		if err := ValidateSchedule(c.Schedule.Cron); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	minuteField := strings.Fields(schedule)[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}
	return nil
}

// Duration parses a configured duration, falling back when it is empty or invalid
func Duration(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return fallback
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
