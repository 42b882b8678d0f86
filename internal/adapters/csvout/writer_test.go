package csvout

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
)

func readReport(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse report: %v", err)
	}
	return rows
}

func TestWriteResults(t *testing.T) {
	results := []domain.MatchResult{
		{
			Track:        domain.Track{RawTitle: "Neon Dreams", ShowDate: "2024-06-01", Venue: "The Fillmore"},
			CatalogID:    "CAT-001",
			CatalogTitle: "Neon Dreams",
			Confidence:   domain.ConfidenceExact,
			Method:       domain.MethodDeterministic,
		},
		{
			Track:      domain.Track{RawTitle: "Mystery Cover, Live", ShowDate: "2024-06-01", Venue: "The Fillmore"},
			Confidence: domain.ConfidenceNone,
			Method:     domain.MethodLLM,
		},
	}

	path := filepath.Join(t.TempDir(), "report.csv")
	got, err := NewWriter(path).WriteResults(context.Background(), results)
	if err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}
	if got != path {
		t.Errorf("WriteResults() path = %q, want %q", got, path)
	}

	rows := readReport(t, path)
	if len(rows) != 3 {
		t.Fatalf("report has %d rows, want 3", len(rows))
	}
	wantHeader := []string{"show_date", "venue_name", "setlist_track_name", "matched_catalog_id", "matched_catalog_title", "match_confidence"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}
	wantMatched := []string{"2024-06-01", "The Fillmore", "Neon Dreams", "CAT-001", "Neon Dreams", "Exact"}
	if !reflect.DeepEqual(rows[1], wantMatched) {
		t.Errorf("matched row = %v, want %v", rows[1], wantMatched)
	}
	wantMiss := []string{"2024-06-01", "The Fillmore", "Mystery Cover, Live", "None", "", "None"}
	if !reflect.DeepEqual(rows[2], wantMiss) {
		t.Errorf("unmatched row = %v, want %v", rows[2], wantMiss)
	}
}

func TestWriteResultsCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "report.csv")
	_, err := NewWriter(path).WriteResults(context.Background(), []domain.MatchResult{
		{Track: domain.Track{RawTitle: "Velocity"}, Confidence: domain.ConfidenceNone},
	})
	if err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report not created: %v", err)
	}
}

func TestWriteResultsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if _, err := NewWriter(path).WriteResults(context.Background(), nil); err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}
	rows := readReport(t, path)
	if len(rows) != 1 {
		t.Fatalf("empty report has %d rows, want header only", len(rows))
	}
}

func TestWriteResultsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "report.csv")
	_, err := NewWriter(path).WriteResults(ctx, []domain.MatchResult{
		{Track: domain.Track{RawTitle: "Velocity"}},
	})
	if err == nil {
		t.Fatal("WriteResults() error = nil, want context error")
	}
}
