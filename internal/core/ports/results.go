package ports

import (
	"context"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
)

// ResultWriter renders the ordered reconciliation rows to their final
// destination and returns where they landed.
type ResultWriter interface {
	WriteResults(ctx context.Context, results []domain.MatchResult) (string, error)
}
