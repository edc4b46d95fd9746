// Package cmd implements the freegames command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rockaxx/freegames/cmd/search"
	"github.com/rockaxx/freegames/cmd/serve"
	cmdsources "github.com/rockaxx/freegames/cmd/sources"
	"github.com/rockaxx/freegames/internal/bootstrap"
)

const defaultConfigPath = "config.yml"

// NewRootCommand builds the command tree. Flags are bound to a fresh
// Options value so the tree can be built more than once in tests.
func NewRootCommand() *cobra.Command {
	opts := &bootstrap.Options{}

	root := &cobra.Command{
		Use:   "freegames",
		Short: "Aggregate game listings from several download sites",
		Long: `freegames searches several game listing sites in parallel, enriches each
hit from its detail page and streams the results as server-sent events.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", defaultConfigPath, "config file")
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug mode")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "freegames version %s\n", bootstrap.Version)
		},
	})
	root.AddCommand(serve.Command(opts))
	root.AddCommand(search.Command(opts))
	root.AddCommand(cmdsources.Command(opts))

	return root
}

// Execute runs the root command.
func Execute() error {
	// .env is optional
	_ = godotenv.Load()

	return NewRootCommand().ExecuteContext(context.Background())
}
