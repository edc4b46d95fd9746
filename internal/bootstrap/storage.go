package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rockaxx/freegames/internal/cache"
	"github.com/rockaxx/freegames/internal/config"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/server"
)

// ErrEmptyRedisAddress is returned when the Redis backend has no address.
var ErrEmptyRedisAddress = errors.New("redis address is required")

const redisConnectTimeout = 5 * time.Second

// StorageComponents holds the page cache and its health checks.
type StorageComponents struct {
	Store  cache.Store
	Checks map[string]server.HealthChecker

	redis *redis.Client
	log   logger.Logger
}

// Close releases the Redis connection, if any.
func (s *StorageComponents) Close() {
	if s.redis == nil {
		return
	}
	if err := s.redis.Close(); err != nil {
		s.log.Warn("Failed to close Redis client", logger.Error(err))
	}
}

// SetupStorage builds the configured cache backend.
func SetupStorage(ctx context.Context, deps *Deps) (*StorageComponents, error) {
	cfg := deps.Config
	sc := &StorageComponents{Checks: make(map[string]server.HealthChecker), log: deps.Logger}

	if cfg.Cache.Backend != config.CacheBackendRedis {
		sc.Store = cache.NewMemoryStore()
		deps.Logger.Info("Using in-memory page cache")
		return sc, nil
	}

	client, err := CreateRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	store := cache.NewRedisStore(client, cfg.Cache.KeyPrefix)

	sc.redis = client
	sc.Store = store
	sc.Checks["redis"] = server.RedisHealthChecker(store.Ping)

	deps.Logger.Info("Using Redis page cache",
		logger.String("address", cfg.Redis.Address),
		logger.Int("db", cfg.Redis.DB),
		logger.String("key_prefix", cfg.Cache.KeyPrefix),
	)
	return sc, nil
}

// CreateRedisClient connects and pings once so a bad address fails startup.
func CreateRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
