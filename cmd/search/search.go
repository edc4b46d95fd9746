// Package search implements a one-shot aggregated search from the command
// line.
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rockaxx/freegames/internal/aggregator"
	"github.com/rockaxx/freegames/internal/bootstrap"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
)

const (
	// DefaultTableWidth bounds the title and URL columns.
	DefaultTableWidth = 160

	titleColumnWidth = 48
	notAvailable     = "N/A"
)

// ErrEmptyQuery is returned when --query is blank.
var ErrEmptyQuery = errors.New("query must not be empty")

// Command returns the search command.
func Command(opts *bootstrap.Options) *cobra.Command {
	var (
		query  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search every enabled source once",
		Long: `Search every enabled source, enrich each hit from its detail page and
print the merged results.

Examples:
  # Print a table
  freegames search -q "hades"

  # Print the records as JSON
  freegames search -q "hades" --json
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query = strings.TrimSpace(query)
			if query == "" {
				return ErrEmptyQuery
			}

			runOpts := *opts
			runOpts.LogToStderr = true

			deps, err := bootstrap.NewDeps(runOpts)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			storage, err := bootstrap.SetupStorage(cmd.Context(), deps)
			if err != nil {
				return fmt.Errorf("failed to setup storage: %w", err)
			}
			defer storage.Close()

			services, err := bootstrap.SetupServices(deps, storage)
			if err != nil {
				return fmt.Errorf("failed to setup services: %w", err)
			}

			deps.Logger.Info("Starting search", logger.Query(query))
			records := aggregator.Collect(services.Aggregator.Search(cmd.Context(), query))

			if asJSON {
				return WriteJSON(cmd.OutOrStdout(), records)
			}
			RenderTable(cmd.OutOrStdout(), records, query)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "title to search for (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

// WriteJSON prints records as an indented JSON array.
func WriteJSON(w io.Writer, records []game.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

// RenderTable prints one row per record with a total footer.
func RenderTable(w io.Writer, records []game.Record, query string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Options.DrawBorder = true
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: titleColumnWidth},
		{Number: 6, WidthMax: DefaultTableWidth - titleColumnWidth},
	})

	t.AppendHeader(table.Row{"#", "Source", "Title", "Version", "Size", "URL", "Online-Fix"})
	for i, r := range records {
		fix := ""
		if r.Correlation != nil {
			fix = fmt.Sprintf("%s (%s)", orNA(r.Correlation.Version), r.Correlation.Kind)
		}
		t.AppendRow(table.Row{
			i + 1,
			string(r.Source),
			truncate(r.Title, titleColumnWidth),
			orNA(r.Version),
			orNA(r.Size),
			r.URL,
			fix,
		})
	}
	t.AppendFooter(table.Row{"Total", len(records), "Query: " + query})

	fmt.Fprintf(w, "\nSearch Results:\n")
	t.Render()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
