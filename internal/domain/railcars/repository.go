package railcars

import (
	"context"

	"railload/internal/core/id"
	"railload/internal/core/types"
	"railload/internal/domain"
)

// Repository defines operations for railcar persistence.
type Repository interface {
	domain.CatalogRepository[*Railcar]

	// FindActiveByMark retrieves the active (not released) railcar for a
	// customer by reporting mark. Returns NotFound when no active car matches.
	FindActiveByMark(ctx context.Context, customerID id.ID, mark string) (*Railcar, error)

	// AddUnloadedWeight accumulates net weight taken off the car.
	AddUnloadedWeight(ctx context.Context, railcarID id.ID, weight types.Weight) error
}
