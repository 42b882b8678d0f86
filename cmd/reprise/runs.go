package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/reprise/internal/adapters/sqlite"
	"github.com/ewilliams-labs/reprise/internal/config"
)

func newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded reconciliation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.HistoryDBPath == "" {
				return fmt.Errorf("run history is disabled, set HISTORY_DB_PATH to enable it")
			}

			store, err := sqlite.NewStore(cfg.HistoryDBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			rows := make([]table.Row, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, table.Row{
					run.ID,
					run.Artist,
					run.Tour,
					run.StartedAt.Format(time.RFC3339),
					run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
					strconv.Itoa(run.TrackCount),
					strconv.Itoa(run.RowCount),
					strconv.Itoa(run.LLMCalls),
					strconv.Itoa(run.CacheHits),
				})
			}
			header := table.Row{"Run", "Artist", "Tour", "Started", "Took", "Tracks", "Rows", "LLM", "Cached"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(header, rows, 6, 7, 8, 9))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}
