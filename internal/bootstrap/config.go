package bootstrap

import (
	"fmt"

	"github.com/rockaxx/freegames/internal/config"
	"github.com/rockaxx/freegames/internal/logger"
)

const serviceName = "freegames"

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Options come from the command line.
type Options struct {
	ConfigPath string
	// Debug forces debug logging and gin debug mode.
	Debug bool
	// LogToStderr keeps stdout free for command output.
	LogToStderr bool
}

// Deps holds the configuration and logger shared by every phase.
type Deps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewDeps loads the configuration and builds the logger.
func NewDeps(opts Options) (*Deps, error) {
	cfg, err := config.Load(config.GetConfigPath(opts.ConfigPath))
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	if opts.LogToStderr {
		cfg.Logging.OutputPaths = []string{"stderr"}
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)

	log.Info("Configuration loaded",
		logger.Bool("debug", cfg.Debug),
		logger.String("cache_backend", cfg.Cache.Backend),
		logger.Bool("warmer_enabled", cfg.Warmer.Enabled),
		logger.Bool("breaker_enabled", cfg.Breaker.Enabled),
	)

	return &Deps{Config: cfg, Logger: log}, nil
}

// CreateLogger builds the service logger from cfg.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", serviceName),
		logger.String("version", Version),
	), nil
}
