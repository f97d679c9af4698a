package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigToml = `
[development]
port = 9000
log_level = "trace"
record_store = "redis"
redis_port = "6380"
records_cache_size_mb = 8
allowed_origins = ["http://localhost:3000"]
mcp_enabled = true

[production]
environment = "production"
host = "0.0.0.0"
port = 9100
prometheus_metrics_port = "9200"
log_level = "info"
logs_path = "/var/log/gymstats/service"
sentry_enabled = true
record_store = "postgres"
postgres_host = "db"
postgres_port = "5432"
postgres_db_name = "gymstats"
records_cache_ttl_seconds = 60
analytics_rate_limit_allowed_per_min = 30
default_gap_tolerance_days = 5
default_weeks_ahead = 8
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Development(t *testing.T) {
	cfg, err := Load("dev", writeConfig(t, testConfigToml))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, RecordStoreRedis, cfg.RecordStore)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, "6380", cfg.RedisPort)
	assert.Equal(t, 8, cfg.RecordsCacheSizeMB)
	assert.Equal(t, 5*time.Minute, cfg.RecordsCacheTTL())
	assert.Equal(t, 120, cfg.AnalyticsRateLimitAllowedPerMin)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.MCPEnabled)
	assert.Equal(t, "2112", cfg.PrometheusMetricsPort)
}

func TestLoad_Production(t *testing.T) {
	cfg, err := Load("production", writeConfig(t, testConfigToml))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.SentryEnabled)
	assert.Equal(t, RecordStorePostgres, cfg.RecordStore)
	assert.Equal(t, "gymstats", cfg.PostgresDBName)
	assert.Equal(t, time.Minute, cfg.RecordsCacheTTL())
	assert.Equal(t, 30, cfg.AnalyticsRateLimitAllowedPerMin)
	assert.Equal(t, 5, cfg.DefaultGapToleranceDays)
	assert.Equal(t, 8, cfg.DefaultWeeksAhead)
	assert.Equal(t, 0, cfg.RecordsCacheSizeMB)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("staging", writeConfig(t, testConfigToml))
	assert.ErrorContains(t, err, "unknown env")

	_, err = Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load("dev", writeConfig(t, "[development\nport = "))
	assert.Error(t, err)

	_, err = Load("prod", writeConfig(t, "[development]\nport = 9000\n"))
	assert.ErrorContains(t, err, "production config missing")

	_, err = Load("dev", writeConfig(t, "[development]\nrecord_store = \"mongo\"\n"))
	assert.ErrorContains(t, err, "unknown record store")

	_, err = Load("dev", writeConfig(t, "[development]\nrecord_store = \"postgres\"\n"))
	assert.ErrorContains(t, err, "postgres record store needs")

	_, err = Load("dev", writeConfig(t, "[development]\nport = 70000\n"))
	assert.ErrorContains(t, err, "invalid port")
}

func TestLoad_RepoConfigFile(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		_, err := Load(env, "../../config.toml")
		assert.NoError(t, err, env)
	}
}
