package ports

import (
	"context"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
)

// CatalogSource loads the controlled song catalog, once per run.
type CatalogSource interface {
	LoadCatalog(ctx context.Context) (*domain.Catalog, error)
}
