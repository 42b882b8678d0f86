package ports

import (
	"context"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
)

// SetlistSource produces the tour document the pipeline reconciles.
// Implementations handle transport, fallback, and structural validation;
// the returned tour is trusted downstream.
type SetlistSource interface {
	FetchTour(ctx context.Context) (domain.Tour, error)
}
