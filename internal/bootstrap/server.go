package bootstrap

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rockaxx/freegames/internal/api"
	"github.com/rockaxx/freegames/internal/server"
)

// SetupHTTPServer builds the gin server with the API routes and health checks.
func SetupHTTPServer(deps *Deps, storage *StorageComponents, services *ServiceComponents) *server.Server {
	cfg := deps.Config

	handler := api.NewHandler(
		services.Aggregator,
		services.Sources,
		services.Fetcher,
		storage.Store,
		api.Config{ScrapeTTL: cfg.Fetcher.CacheTTL},
		deps.Logger,
		api.WithMetricsHandler(promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{})),
	)

	checks := make(map[string]server.HealthChecker, len(storage.Checks)+1)
	for name, check := range storage.Checks {
		checks[name] = check
	}
	if cfg.Breaker.Enabled {
		checks["upstreams"] = server.BreakerHealthChecker(services.Fetcher.Breakers)
	}

	serverCfg := &server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Debug:        cfg.Debug,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		CORS: server.CORSConfig{
			Enabled:        true,
			AllowedOrigins: cfg.Server.CORSOrigins,
		},
		ServiceName:    serviceName,
		ServiceVersion: Version,
	}

	return server.NewServer(serverCfg, deps.Logger, checks, func(r *gin.Engine) {
		handler.Register(r)
	})
}
