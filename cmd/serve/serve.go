// Package serve implements the command that runs the HTTP service.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/rockaxx/freegames/internal/bootstrap"
)

// Command returns the serve command.
func Command(opts *bootstrap.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the streaming search API, the catalog stream, the scrape endpoint
and the image proxy until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bootstrap.Start(cmd.Context(), *opts)
		},
	}
}
