// Package bootstrap wires runtime dependencies that depend on which backing
// services are configured, so the binaries share one selection policy.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/fieldpilot/fieldops-ai-platform/internal/config"
	"github.com/fieldpilot/fieldops-ai-platform/internal/events"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildTracker picks the processed-event tracker for the configured backends:
// Postgres when a pool is available, Redis when a client is, and process
// memory otherwise.
func BuildTracker(cfg *appconfig.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *logging.Logger) events.Tracker {
	if logger == nil {
		logger = logging.Default()
	}
	if pool != nil {
		return events.NewProcessedStore(pool)
	}
	if redisClient != nil {
		return events.NewRedisStore(redisClient, cfg.ProcessedEventsTTL)
	}
	logger.Warn("no postgres or redis configured, tracking processed events in memory")
	return events.NewMemoryStore()
}
