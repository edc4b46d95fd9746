package bootstrap

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rockaxx/freegames/internal/aggregator"
	"github.com/rockaxx/freegames/internal/circuitbreaker"
	"github.com/rockaxx/freegames/internal/config"
	"github.com/rockaxx/freegames/internal/fetcher"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/metrics"
	"github.com/rockaxx/freegames/internal/sources"
	"github.com/rockaxx/freegames/internal/sources/anker"
	"github.com/rockaxx/freegames/internal/sources/game3rb"
	"github.com/rockaxx/freegames/internal/sources/onlinefix"
	"github.com/rockaxx/freegames/internal/sources/repackgames"
	"github.com/rockaxx/freegames/internal/sources/steamunderground"
	"github.com/rockaxx/freegames/internal/warmer"
)

// ServiceComponents holds the pipeline built on top of the page cache.
type ServiceComponents struct {
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Fetcher    *fetcher.Fetcher
	Sources    *sources.Registry
	Aggregator *aggregator.Aggregator
	// Warmer is nil when disabled.
	Warmer *warmer.Warmer
}

type adapterFactory func(sources.PageFetcher, sources.Settings, logger.Logger) sources.Adapter

var factories = map[game.Source]adapterFactory{
	game.AnkerGames: func(f sources.PageFetcher, s sources.Settings, l logger.Logger) sources.Adapter {
		return anker.New(f, s, l)
	},
	game.Game3RB: func(f sources.PageFetcher, s sources.Settings, l logger.Logger) sources.Adapter {
		return game3rb.New(f, s, l)
	},
	game.RepackGames: func(f sources.PageFetcher, s sources.Settings, l logger.Logger) sources.Adapter {
		return repackgames.New(f, s, l)
	},
	game.OnlineFix: func(f sources.PageFetcher, s sources.Settings, l logger.Logger) sources.Adapter {
		return onlinefix.New(f, s, l)
	},
	game.SteamUnderground: func(f sources.PageFetcher, s sources.Settings, l logger.Logger) sources.Adapter {
		return steamunderground.New(f, s, l)
	},
}

// SetupServices builds the fetcher, the enabled adapters, the aggregator and
// the optional cache warmer.
func SetupServices(deps *Deps, storage *StorageComponents) (*ServiceComponents, error) {
	cfg := deps.Config

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	f := fetcher.New(FetcherConfig(cfg), storage.Store, deps.Logger, fetcher.WithMetrics(m))
	registry := sources.NewRegistry(BuildAdapters(cfg, f, deps.Logger)...)

	agg := aggregator.New(registry.All(), aggregator.Config{
		HeartbeatInterval: cfg.Aggregator.HeartbeatInterval,
		StreamTimeout:     cfg.Aggregator.StreamTimeout,
	}, deps.Logger, aggregator.WithMetrics(m))

	sc := &ServiceComponents{
		Registry:   reg,
		Metrics:    m,
		Fetcher:    f,
		Sources:    registry,
		Aggregator: agg,
	}

	if cfg.Warmer.Enabled {
		w, err := warmer.New(registry.All(), cfg.Warmer.Schedule, deps.Logger, warmer.WithMetrics(m))
		if err != nil {
			return nil, fmt.Errorf("create warmer: %w", err)
		}
		sc.Warmer = w
	}

	return sc, nil
}

// FetcherConfig maps the service configuration onto the fetcher.
func FetcherConfig(cfg *config.Config) fetcher.Config {
	fc := fetcher.Config{
		Timeout:           cfg.Fetcher.Timeout,
		Retries:           cfg.Fetcher.Retries,
		CacheTTL:          cfg.Fetcher.CacheTTL,
		UserAgent:         cfg.Fetcher.UserAgent,
		Proxy:             cfg.Fetcher.Proxy,
		RequestsPerSecond: cfg.Fetcher.RequestsPerSecond,
		Burst:             cfg.Fetcher.Burst,
		Coalesce:          cfg.Fetcher.Coalesce,
		MaxBodyBytes:      cfg.Fetcher.MaxBodyBytes,
	}
	if cfg.Breaker.Enabled {
		bc := circuitbreaker.DefaultConfig()
		bc.FailureThreshold = cfg.Breaker.FailureThreshold
		bc.Timeout = cfg.Breaker.Timeout
		fc.Breaker = &bc
	}
	return fc
}

// BuildAdapters creates an adapter for every source not disabled in cfg, in
// the fixed source order.
func BuildAdapters(cfg *config.Config, f sources.PageFetcher, log logger.Logger) []sources.Adapter {
	var out []sources.Adapter
	for _, src := range game.Sources() {
		sc := cfg.Source(src)
		if sc.Disabled {
			log.Info("Source disabled", logger.Source(string(src)))
			continue
		}
		out = append(out, factories[src](f, sources.Settings{
			Concurrency: sc.Concurrency,
			Proxy:       sc.Proxy,
			Charset:     sc.Charset,
		}, log))
	}
	return out
}
