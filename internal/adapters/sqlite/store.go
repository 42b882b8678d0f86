// Package sqlite provides a SQLite-backed implementation of the run history port.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
	"github.com/ewilliams-labs/reprise/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Store implements the run history port for SQLite. It is an audit sink:
// matching never reads from it.
type Store struct {
	db *sql.DB
}

var _ ports.RunStore = (*Store)(nil)

// NewStore creates a connection and runs the schema migration
func NewStore(storagePath string) (*Store, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close ensures the DB connection is closed gracefully
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists the run summary and every report row in one transaction.
func (s *Store) SaveRun(ctx context.Context, run domain.Run, results []domain.MatchResult) error {
	// 1. Start Transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error/panic before commit

	// 2. Insert the run summary
	queryRun := `
		INSERT INTO runs (id, artist, tour, started_at, finished_at, track_count, row_count, llm_calls, cache_hits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(
		ctx,
		queryRun,
		run.ID,
		run.Artist,
		run.Tour,
		run.StartedAt,
		run.FinishedAt,
		run.TrackCount,
		run.RowCount,
		run.LLMCalls,
		run.CacheHits,
	); err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}

	// 3. Insert result rows, prepared once
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_results (
			run_id, position, show_date, venue, track_title,
			catalog_id, catalog_title, confidence, method
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, res := range results {
		if _, err := stmt.ExecContext(
			ctx,
			run.ID,
			i,
			res.Track.ShowDate,
			res.Track.Venue,
			res.Track.RawTitle,
			res.CatalogID,
			res.CatalogTitle,
			string(res.Confidence),
			string(res.Method),
		); err != nil {
			return fmt.Errorf("failed to save result row %d: %w", i, err)
		}
	}

	// 4. Commit Transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}

	return nil
}

// ListRuns returns run summaries, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, artist, tour, started_at, finished_at, track_count, row_count, llm_calls, cache_hits
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(
			&run.ID,
			&run.Artist,
			&run.Tour,
			&run.StartedAt,
			&run.FinishedAt,
			&run.TrackCount,
			&run.RowCount,
			&run.LLMCalls,
			&run.CacheHits,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		artist TEXT NOT NULL,
		tour TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		track_count INTEGER NOT NULL,
		row_count INTEGER NOT NULL,
		llm_calls INTEGER DEFAULT 0,
		cache_hits INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_results (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		show_date TEXT,
		venue TEXT,
		track_title TEXT NOT NULL,
		catalog_id TEXT,
		catalog_title TEXT,
		confidence TEXT NOT NULL,
		method TEXT NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}

	if _, err := s.db.Exec("ALTER TABLE runs ADD COLUMN llm_calls INTEGER DEFAULT 0"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}
	if _, err := s.db.Exec("ALTER TABLE runs ADD COLUMN cache_hits INTEGER DEFAULT 0"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
