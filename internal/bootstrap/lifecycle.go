package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/server"
)

// Run starts the warmer and the server, then blocks until SIGINT, SIGTERM,
// ctx cancellation or a server error.
func Run(ctx context.Context, deps *Deps, srv *server.Server, services *ServiceComponents) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if services.Warmer != nil {
		if err := services.Warmer.Start(ctx); err != nil {
			return fmt.Errorf("start warmer: %w", err)
		}
	}

	errCh := srv.StartAsync()

	select {
	case err := <-errCh:
		if err != nil {
			deps.Logger.Error("Server error", logger.Error(err))
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return Shutdown(deps.Logger, srv, services)
}

// Shutdown stops the warmer, then drains the server.
func Shutdown(log logger.Logger, srv *server.Server, services *ServiceComponents) error {
	log.Info("Shutting down")

	if services.Warmer != nil {
		log.Info("Stopping cache warmer")
		services.Warmer.Stop()
	}

	//nolint:contextcheck // the run context is already cancelled here
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("Failed to shut down server", logger.Error(err))
		return err
	}

	log.Info("Shutdown complete")
	return nil
}
