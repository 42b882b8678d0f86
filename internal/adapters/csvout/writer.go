// Package csvout renders reconciliation results to the report CSV consumed
// by the royalty tooling downstream.
package csvout

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
	"github.com/ewilliams-labs/reprise/internal/core/ports"
)

var header = []string{
	"show_date",
	"venue_name",
	"setlist_track_name",
	"matched_catalog_id",
	"matched_catalog_title",
	"match_confidence",
}

type Writer struct {
	path string
}

var _ ports.ResultWriter = (*Writer)(nil)

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// WriteResults writes one row per result in order and returns the path of
// the finished report. Unmatched rows carry the literal id "None" and an
// empty title, which is what the downstream import expects.
func (w *Writer) WriteResults(ctx context.Context, results []domain.MatchResult) (string, error) {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("csvout: create report directory: %w", err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return "", fmt.Errorf("csvout: create %s: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("csvout: write header: %w", err)
	}
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := res.CatalogID
		if id == "" {
			id = "None"
		}
		row := []string{
			res.Track.ShowDate,
			res.Track.Venue,
			res.Track.RawTitle,
			id,
			res.CatalogTitle,
			string(res.Confidence),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("csvout: write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("csvout: flush %s: %w", w.path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("csvout: close %s: %w", w.path, err)
	}
	return w.path, nil
}
