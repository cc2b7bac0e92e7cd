package orders

import (
	"context"

	"railload/internal/core/id"
)

// Repository defines read-only order lookups.
// The transload core never writes orders.
type Repository interface {
	// GetByID retrieves an order, or NotFound.
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
}
