package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	RecordStoreRedis    = "redis"
	RecordStorePostgres = "postgres"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string
	Port        int

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// record store
	RecordStore    string `toml:"record_store"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// records cache, size 0 disables it
	RecordsCacheSizeMB     int `toml:"records_cache_size_mb"`
	RecordsCacheTTLSeconds int `toml:"records_cache_ttl_seconds"`

	// analytics
	AnalyticsRateLimitAllowedPerMin int `toml:"analytics_rate_limit_allowed_per_min"`
	DefaultGapToleranceDays         int `toml:"default_gap_tolerance_days"`
	DefaultWeeksAhead               int `toml:"default_weeks_ahead"`

	// http
	AllowedOrigins []string `toml:"allowed_origins"`
	MCPEnabled     bool     `toml:"mcp_enabled"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development", "ddev", "dockerdev":
		if t.Development == nil {
			return nil, errors.New("development config missing")
		}
		return t.Development, nil
	case "prod", "production":
		if t.Production == nil {
			return nil, errors.New("production config missing")
		}
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the section for env,
// with defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.RecordStore == "" {
		c.RecordStore = RecordStoreRedis
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.RecordsCacheTTLSeconds <= 0 {
		c.RecordsCacheTTLSeconds = 300
	}
	if c.AnalyticsRateLimitAllowedPerMin <= 0 {
		c.AnalyticsRateLimitAllowedPerMin = 120
	}
}

func (c *Config) Validate() error {
	switch c.RecordStore {
	case RecordStoreRedis:
	case RecordStorePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres record store needs postgres_host, postgres_port and postgres_db_name")
		}
	default:
		return fmt.Errorf("unknown record store: %s", c.RecordStore)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RecordsCacheSizeMB < 0 {
		return fmt.Errorf("invalid records cache size: %d", c.RecordsCacheSizeMB)
	}
	return nil
}

func (c *Config) RecordsCacheTTL() time.Duration {
	return time.Duration(c.RecordsCacheTTLSeconds) * time.Second
}
