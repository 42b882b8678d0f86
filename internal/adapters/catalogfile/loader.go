// Package catalogfile loads the controlled song catalog from its CSV export.
// The upstream export wraps every row in one outer pair of quotes and may
// carry a UTF-8 BOM; both quirks are handled here so the rest of the system
// sees clean rows.
package catalogfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
	"github.com/ewilliams-labs/reprise/internal/core/ports"
)

var requiredColumns = []string{"catalog_id", "title", "writers", "controlled_percentage"}

type Loader struct {
	path string
	log  *slog.Logger
}

var _ ports.CatalogSource = (*Loader)(nil)

func NewLoader(path string, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{path: path, log: log}
}

// LoadCatalog reads, cleans, and indexes the catalog CSV. Rows with too few
// fields are skipped with a warning; missing required headers reject the
// whole file.
func (l *Loader) LoadCatalog(ctx context.Context) (*domain.Catalog, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("catalogfile: read %s: %w", l.path, err)
	}

	lines := cleanLines(string(raw))
	if len(lines) == 0 {
		return nil, fmt.Errorf("catalogfile: %s holds no data", l.path)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalogfile: parse %s: %w", l.path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalogfile: %s holds no data", l.path)
	}

	columns, err := headerIndex(records[0])
	if err != nil {
		return nil, fmt.Errorf("catalogfile: %s: %w", l.path, err)
	}

	entries := make([]domain.CatalogEntry, 0, len(records)-1)
	seen := make(map[string]string, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < len(requiredColumns) {
			l.log.Warn("skipping malformed catalog row", "line", i+2, "fields", len(record))
			continue
		}
		entry := domain.CatalogEntry{
			ID:      strings.TrimSpace(record[columns["catalog_id"]]),
			Title:   strings.TrimSpace(record[columns["title"]]),
			Writers: strings.TrimSpace(record[columns["writers"]]),
		}
		pctField := strings.TrimSpace(record[columns["controlled_percentage"]])
		if pctField != "" {
			pct, err := strconv.ParseFloat(pctField, 64)
			if err != nil {
				l.log.Warn("unreadable controlled percentage", "line", i+2, "value", pctField)
			} else {
				entry.ControlledPercentage = pct
			}
		}
		key := domain.Normalize(entry.Title)
		if kept, dup := seen[key]; dup {
			l.log.Debug("duplicate normalized title, first entry keeps the lookup slot",
				"title", entry.Title, "kept", kept, "key", key)
		} else {
			seen[key] = entry.Title
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalogfile: %s holds no catalog rows", l.path)
	}

	l.log.Info("loaded catalog", "path", l.path, "songs", len(entries))
	return domain.NewCatalog(entries), nil
}

// cleanLines strips the BOM, drops blank lines, and removes the outer quote
// pair the export wraps around each row. Quotes inside a row survive, so
// quoted fields still parse.
func cleanLines(raw string) []string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, strings.Trim(line, `"'`))
	}
	return lines
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}
