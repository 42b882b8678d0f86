package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/reprise/internal/adapters/catalogfile"
	"github.com/ewilliams-labs/reprise/internal/adapters/csvout"
	"github.com/ewilliams-labs/reprise/internal/adapters/openai"
	"github.com/ewilliams-labs/reprise/internal/adapters/setlist"
	"github.com/ewilliams-labs/reprise/internal/adapters/sqlite"
	"github.com/ewilliams-labs/reprise/internal/config"
	"github.com/ewilliams-labs/reprise/internal/core/domain"
	"github.com/ewilliams-labs/reprise/internal/core/services"
	"github.com/ewilliams-labs/reprise/internal/logging"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch the tour, match every setlist track, and write the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconciliation(cmd)
		},
	}
}

func runReconciliation(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	started := time.Now()

	// 1. Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closeLog()

	printHeading(out, "Reprise Setlist Reconciliation")

	// 2. Driven adapters
	var setlistOpts []setlist.Option
	if cfg.SetlistTokenURL != "" {
		setlistOpts = append(setlistOpts, setlist.WithClientCredentials(cfg.SetlistTokenURL, cfg.SetlistClientID, cfg.SetlistClientSecret))
	}
	tours := setlist.NewClient(cfg.SetlistAPIURL, cfg.SetlistFallbackPath, log, setlistOpts...)
	catalogSource := catalogfile.NewLoader(cfg.CatalogCSVPath, log)

	// 3. Ingest
	log.Info("loading tour data")
	tour, err := tours.FetchTour(ctx)
	if err != nil {
		return err
	}
	catalog, err := catalogSource.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	tracks := tour.Flatten()
	log.Info("tour loaded",
		"artist", tour.Artist,
		"tour", tour.Name,
		"shows", len(tour.Shows),
		"tracks", len(tracks),
	)

	// 4. Core services
	var fuzzy *services.FuzzyMatcher
	if cfg.LLMEnabled() {
		generator := openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, openai.WithModel(cfg.OpenAIModel))
		policy := services.RetryPolicy{
			MaxRetries:  cfg.MaxRetries,
			BackoffBase: cfg.BackoffBase,
			BackoffMax:  cfg.BackoffMax,
		}
		fuzzy = services.NewFuzzyMatcher(generator, policy, cfg.CallDelay, log)
	} else {
		log.Warn("OPENAI_API_KEY not set, running deterministic matching only")
	}
	reconciler := services.NewReconciler(catalog, fuzzy, log)

	// 5. Match
	log.Info("matching tracks", "count", len(tracks))
	results, err := reconciler.Reconcile(ctx, tracks)
	if err != nil {
		return err
	}
	stats := reconciler.Stats()

	// 6. Report
	reportPath, err := csvout.NewWriter(cfg.OutputCSVPath).WriteResults(ctx, results)
	if err != nil {
		return err
	}
	log.Info("report written", "path", reportPath)

	fmt.Fprintln(out)
	printHeading(out, "Results")
	fmt.Fprintln(out, renderResultsTable(results))
	printSummary(out, stats, reportPath)

	// 7. Run history, best effort
	if cfg.HistoryDBPath != "" {
		recordRun(ctx, cfg.HistoryDBPath, tour, stats, results, started, log)
	}

	return nil
}

func recordRun(ctx context.Context, dbPath string, tour domain.Tour, stats services.Stats, results []domain.MatchResult, started time.Time, log *slog.Logger) {
	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		log.Warn("run history unavailable", "error", err)
		return
	}
	defer store.Close()

	run := domain.Run{
		ID:         uuid.NewString(),
		Artist:     tour.Artist,
		Tour:       tour.Name,
		StartedAt:  started,
		FinishedAt: time.Now(),
		TrackCount: stats.Tracks,
		RowCount:   stats.Rows,
		LLMCalls:   stats.LLMCalls,
		CacheHits:  stats.CacheHits,
	}
	if err := store.SaveRun(ctx, run, results); err != nil {
		log.Warn("failed to record run", "error", err)
		return
	}
	log.Info("run recorded", "id", run.ID)
}

func printHeading(out io.Writer, title string) {
	line := strings.Repeat("=", 55)
	fmt.Fprintln(out, line)
	fmt.Fprintln(out, "  "+title)
	fmt.Fprintln(out, line)
}

func renderResultsTable(results []domain.MatchResult) string {
	rows := make([]table.Row, 0, len(results))
	for _, res := range results {
		id := res.CatalogID
		if id == "" {
			id = "None"
		}
		rows = append(rows, table.Row{res.Track.RawTitle, id, res.CatalogTitle, string(res.Confidence)})
	}
	return renderTable(table.Row{"Track", "Catalog ID", "Matched Title", "Confidence"}, rows)
}

func printSummary(out io.Writer, stats services.Stats, reportPath string) {
	fmt.Fprintf(out, "Tracks: %d  Rows: %d  Deterministic: %d  LLM calls: %d  Cache hits: %d\n",
		stats.Tracks, stats.Rows, stats.Deterministic, stats.LLMCalls, stats.CacheHits)
	fmt.Fprintf(out, "Report saved to %s\n", reportPath)
}
