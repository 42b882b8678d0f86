package domain

import "time"

// Run is the audit record of one reconciliation pass.
type Run struct {
	ID         string
	Artist     string
	Tour       string
	StartedAt  time.Time
	FinishedAt time.Time
	TrackCount int
	RowCount   int
	LLMCalls   int
	CacheHits  int
}
