// Package config loads the freegames service configuration from YAML, .env
// files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
)

const (
	defaultServerHost        = "0.0.0.0"
	defaultServerPort        = 4021
	defaultServerTimeout     = 30 * time.Second
	defaultFetchTimeout      = 12 * time.Second
	defaultFetchRetries      = 2
	defaultCacheTTL          = 5 * time.Minute
	defaultRequestsPerSecond = 4
	defaultBurst             = 4
	defaultMaxBodyBytes      = 10 * 1024 * 1024
	defaultHeartbeat         = 15 * time.Second
	defaultBreakerFailures   = 5
	defaultBreakerTimeout    = 60 * time.Second
	defaultWarmerSchedule    = "@every 4m"
	defaultCacheKeyPrefix    = "freegames:page:"
	defaultRedisAddress      = "localhost:6379"

	// DefaultUserAgent mimics a desktop Chrome build.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config is the root service configuration.
type Config struct {
	Debug      bool                    `env:"APP_DEBUG" yaml:"debug"`
	Server     ServerConfig            `yaml:"server"`
	Logging    logger.Config           `yaml:"logging"`
	Fetcher    FetcherConfig           `yaml:"fetcher"`
	Cache      CacheConfig             `yaml:"cache"`
	Redis      RedisConfig             `yaml:"redis"`
	Aggregator AggregatorConfig        `yaml:"aggregator"`
	Breaker    BreakerConfig           `yaml:"breaker"`
	Warmer     WarmerConfig            `yaml:"warmer"`
	Sources    map[string]SourceConfig `yaml:"sources"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST"   yaml:"host"`
	Port         int           `env:"SERVER_PORT"   yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS"  yaml:"cors_origins"`
}

// FetcherConfig tunes the shared page fetcher.
type FetcherConfig struct {
	Timeout           time.Duration `env:"FETCHER_TIMEOUT"             yaml:"timeout"`
	Retries           int           `env:"FETCHER_RETRIES"             yaml:"retries"`
	CacheTTL          time.Duration `env:"FETCHER_CACHE_TTL"           yaml:"cache_ttl"`
	UserAgent         string        `env:"FETCHER_USER_AGENT"          yaml:"user_agent"`
	Proxy             string        `env:"FETCHER_PROXY"               yaml:"proxy"`
	RequestsPerSecond float64       `env:"FETCHER_REQUESTS_PER_SECOND" yaml:"requests_per_second"`
	Burst             int           `env:"FETCHER_BURST"               yaml:"burst"`
	Coalesce          bool          `env:"FETCHER_COALESCE"            yaml:"coalesce"`
	MaxBodyBytes      int64         `env:"FETCHER_MAX_BODY_BYTES"      yaml:"max_body_bytes"`
}

type CacheConfig struct {
	Backend   string `env:"CACHE_BACKEND"    yaml:"backend"`
	KeyPrefix string `env:"CACHE_KEY_PREFIX" yaml:"key_prefix"`
}

type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

type AggregatorConfig struct {
	HeartbeatInterval time.Duration `env:"AGGREGATOR_HEARTBEAT_INTERVAL" yaml:"heartbeat_interval"`
	// StreamTimeout bounds a whole stream. Zero means no deadline.
	StreamTimeout time.Duration `env:"AGGREGATOR_STREAM_TIMEOUT" yaml:"stream_timeout"`
}

type BreakerConfig struct {
	Enabled          bool          `env:"BREAKER_ENABLED"           yaml:"enabled"`
	FailureThreshold int           `env:"BREAKER_FAILURE_THRESHOLD" yaml:"failure_threshold"`
	Timeout          time.Duration `env:"BREAKER_TIMEOUT"           yaml:"timeout"`
}

type WarmerConfig struct {
	Enabled  bool   `env:"WARMER_ENABLED"  yaml:"enabled"`
	Schedule string `env:"WARMER_SCHEDULE" yaml:"schedule"`
}

// SourceConfig holds per-source overrides, keyed by game.Source.Key().
type SourceConfig struct {
	Disabled    bool   `yaml:"disabled"`
	Concurrency int    `yaml:"concurrency"`
	Proxy       string `yaml:"proxy"`
	Charset     string `yaml:"charset"`
}

// Source returns the settings for src with defaults filled in.
func (c *Config) Source(src game.Source) SourceConfig {
	sc := c.Sources[src.Key()]
	def := defaultSourceConfig(src)
	if sc.Concurrency <= 0 {
		sc.Concurrency = def.Concurrency
	}
	if sc.Charset == "" {
		sc.Charset = def.Charset
	}
	return sc
}

func defaultSourceConfig(src game.Source) SourceConfig {
	switch src {
	case game.OnlineFix:
		return SourceConfig{Concurrency: 3, Charset: "windows-1251"}
	case game.SteamUnderground:
		return SourceConfig{Concurrency: 3}
	default:
		return SourceConfig{Concurrency: 5}
	}
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	if c.Fetcher.Retries < 0 {
		return errors.New("fetcher.retries must not be negative")
	}
	if c.Fetcher.Timeout <= 0 {
		return errors.New("fetcher.timeout must be positive")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Redis.Address == "" {
			return errors.New("redis.address is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, redis", c.Cache.Backend)
	}
	for key := range c.Sources {
		if _, err := game.ParseSource(key); err != nil {
			return fmt.Errorf("sources.%s: %w", key, err)
		}
	}
	if c.Warmer.Enabled && strings.TrimSpace(c.Warmer.Schedule) == "" {
		return errors.New("warmer.schedule is required when the warmer is enabled")
	}
	return nil
}

// Load reads path, applies defaults and environment overrides, and validates.
// A missing file is tolerated so the service can run from environment alone.
func Load(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	setFetcherDefaults(&cfg.Fetcher)

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendMemory
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = defaultCacheKeyPrefix
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Aggregator.HeartbeatInterval <= 0 {
		cfg.Aggregator.HeartbeatInterval = defaultHeartbeat
	}
	if cfg.Breaker.FailureThreshold <= 0 {
		cfg.Breaker.FailureThreshold = defaultBreakerFailures
	}
	if cfg.Breaker.Timeout <= 0 {
		cfg.Breaker.Timeout = defaultBreakerTimeout
	}
	if cfg.Warmer.Schedule == "" {
		cfg.Warmer.Schedule = defaultWarmerSchedule
	}
	if cfg.Logging.Level == "" && cfg.Debug {
		cfg.Logging.Level = "debug"
	}
}

func setFetcherDefaults(f *FetcherConfig) {
	if f.Timeout <= 0 {
		f.Timeout = defaultFetchTimeout
	}
	if f.Retries == 0 {
		f.Retries = defaultFetchRetries
	}
	if f.CacheTTL <= 0 {
		f.CacheTTL = defaultCacheTTL
	}
	if f.UserAgent == "" {
		f.UserAgent = DefaultUserAgent
	}
	if f.RequestsPerSecond <= 0 {
		f.RequestsPerSecond = defaultRequestsPerSecond
	}
	if f.Burst <= 0 {
		f.Burst = defaultBurst
	}
	if f.MaxBodyBytes <= 0 {
		f.MaxBodyBytes = defaultMaxBodyBytes
	}
}
