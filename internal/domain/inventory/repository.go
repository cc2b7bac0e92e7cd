package inventory

import (
	"context"

	"railload/internal/core/id"
	"railload/internal/core/types"
	"railload/internal/domain"
)

// LotFilter narrows lot listings.
type LotFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	MaterialID *id.ID
	Status     *LotStatus
	SourceType *SourceType
}

// LotRepository defines persistence for lots and their allocation ledger.
//
// ConsumeRemaining and AddRemaining are the only ways remaining weight
// changes. Both are single conditional UPDATE statements so that two
// concurrent consumers can never both succeed past the available weight.
type LotRepository interface {
	Create(ctx context.Context, lot *GroundInventoryLot) error
	GetByID(ctx context.Context, lotID id.ID) (*GroundInventoryLot, error)
	Update(ctx context.Context, lot *GroundInventoryLot) error
	Delete(ctx context.Context, lotID id.ID) error
	List(ctx context.Context, filter LotFilter) (domain.ListResult[*GroundInventoryLot], error)

	// FindByConversionToken retrieves the lot created for an idempotency
	// token. Returns NotFound when no conversion recorded the token.
	FindByConversionToken(ctx context.Context, token string) (*GroundInventoryLot, error)

	// ConsumeRemaining atomically decrements remaining weight when the lot
	// still belongs to the customer/material pair, is not archived, and has
	// at least weight remaining. Returns the post-decrement remaining weight
	// and ok=false (without error) when the guard did not match.
	ConsumeRemaining(ctx context.Context, lotID, customerID, materialID id.ID, weight types.Weight) (types.Weight, bool, error)

	// AddRemaining atomically increments remaining weight and moves a
	// depleted lot back to available. Used by compensating rollbacks.
	AddRemaining(ctx context.Context, lotID id.ID, weight types.Weight) error

	// SetStatus updates only the lot status.
	SetStatus(ctx context.Context, lotID id.ID, status LotStatus) error

	// CreateAllocation appends one ledger entry.
	CreateAllocation(ctx context.Context, alloc *GroundInventoryAllocation) error

	// AllocationsByLot returns ledger entries for a lot, newest first.
	AllocationsByLot(ctx context.Context, lotID id.ID) ([]*GroundInventoryAllocation, error)

	// CountAllocationsByLot reports how many ledger entries reference a lot.
	CountAllocationsByLot(ctx context.Context, lotID id.ID) (int64, error)
}
