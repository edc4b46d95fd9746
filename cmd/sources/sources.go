// Package sources implements the command listing the configured sources.
package sources

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rockaxx/freegames/internal/bootstrap"
	"github.com/rockaxx/freegames/internal/config"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/sources"
)

// Command returns the sources command.
func Command(opts *bootstrap.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the supported sources and their settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.GetConfigPath(opts.ConfigPath))
			if err != nil {
				return err
			}
			Render(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

// Render prints one row per supported source. Disabled sources are listed
// without a homepage.
func Render(w io.Writer, cfg *config.Config) {
	enabled := make(map[game.Source]sources.Adapter)
	for _, a := range bootstrap.BuildAdapters(cfg, nil, logger.NewNop()) {
		enabled[a.Source()] = a
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Source", "Enabled", "Concurrency", "Charset", "Homepage"})

	for _, src := range game.Sources() {
		sc := cfg.Source(src)
		a, ok := enabled[src]
		if !ok {
			t.AppendRow(table.Row{string(src), "no", sc.Concurrency, charset(sc.Charset), ""})
			continue
		}
		t.AppendRow(table.Row{string(src), "yes", a.Concurrency(), charset(sc.Charset), a.Homepage()})
	}
	t.AppendFooter(table.Row{"Enabled", fmt.Sprintf("%d/%d", len(enabled), len(game.Sources()))})
	t.Render()
}

func charset(s string) string {
	if strings.TrimSpace(s) == "" {
		return "auto"
	}
	return s
}
