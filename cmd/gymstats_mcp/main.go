// Package main runs the gymstats MCP server over stdio (for local Cursor use).
// The same MCP server is also mounted on the main backend at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"net"
	"os"

	"github.com/simonfreshfish/GymStat-sub000/internal/cache"
	"github.com/simonfreshfish/GymStat-sub000/internal/config"
	"github.com/simonfreshfish/GymStat-sub000/internal/db"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats"
	gymstatsmcp "github.com/simonfreshfish/GymStat-sub000/internal/gymstats/mcp"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"
	"github.com/simonfreshfish/GymStat-sub000/internal/logging"
	"github.com/simonfreshfish/GymStat-sub000/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development | ddev | dockerdev]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the MCP protocol
	logging.Setup(logging.LoggerSetupParams{
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Console:       os.Stderr,
		Environment:   cfg.Environment,
	})

	ctx := context.Background()

	var (
		store  records.CollectionStore
		dbPool *pgxpool.Pool
	)
	switch cfg.RecordStore {
	case config.RecordStorePostgres:
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: false,
		})
		if err != nil {
			log.Fatalf("db pool: %v", err)
		}
		defer dbPool.Close()
		store = records.NewPostgresStore(dbPool)
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: os.Getenv("GYMSTATS_REDIS_PASS"),
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("close redis client: %s", err)
			}
		}()
		store = records.NewRedisStore(rdb)
	}

	var recordsCache *cache.RecordsCache
	if cfg.RecordsCacheSizeMB > 0 {
		recordsCache = cache.NewRecordsCache(cfg.RecordsCacheSizeMB, cfg.RecordsCacheTTL())
	}

	analyzer, err := gymstats.NewAnalyzer(gymstats.AnalyzerParams{
		Store:            store,
		Cache:            recordsCache,
		MetricsManager:   metrics.NewManager("mcp", "gymstats", prometheus.NewRegistry()),
		GapToleranceDays: cfg.DefaultGapToleranceDays,
		WeeksAhead:       cfg.DefaultWeeksAhead,
	})
	if err != nil {
		log.Fatalf("new analyzer: %v", err)
	}

	server := gymstatsmcp.NewServer(analyzer, dbPool)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
