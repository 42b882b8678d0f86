package ports

import (
	"context"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
)

// RunStore is the append-only audit log of past reconciliation runs.
// The matching pipeline writes here and never reads back; listing exists
// for operators.
type RunStore interface {
	SaveRun(ctx context.Context, run domain.Run, results []domain.MatchResult) error
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}
