// Package bootstrap wires the freegames service together.
//
// The bootstrap process follows these phases:
//   - Phase 1: Config & Logger - Load configuration and create logger
//   - Phase 2: Storage - Build the page cache (memory or Redis)
//   - Phase 3: Services - Fetcher, adapters, aggregator and cache warmer
//   - Phase 4: Server - Create and start the HTTP server
//   - Phase 5: Run - Wait for interrupt, cancellation or a server error
package bootstrap

import (
	"context"
	"fmt"
)

// Start runs the HTTP service until ctx is cancelled or a signal arrives.
func Start(ctx context.Context, opts Options) error {
	// Phase 1: config and logger
	deps, err := NewDeps(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	// Phase 2: page cache
	storage, err := SetupStorage(ctx, deps)
	if err != nil {
		return fmt.Errorf("failed to setup storage: %w", err)
	}
	defer storage.Close()

	// Phase 3: services
	services, err := SetupServices(deps, storage)
	if err != nil {
		return fmt.Errorf("failed to setup services: %w", err)
	}

	// Phase 4: HTTP server
	srv := SetupHTTPServer(deps, storage, services)

	// Phase 5: run
	return Run(ctx, deps, srv, services)
}
