package dto

import (
	"railload/internal/core/id"
	"railload/internal/core/types"
	"railload/internal/domain/inventory"
)

// CreateLotRequest for manual ground inventory lots.
type CreateLotRequest struct {
	CustomerID     id.ID        `json:"customerId" binding:"required"`
	MaterialID     id.ID        `json:"materialId" binding:"required"`
	StartingWeight types.Weight `json:"startingWeight" binding:"required"`
	Notes          string       `json:"notes"`
}

// ToEntity builds a manual-adjustment lot from the request.
func (r CreateLotRequest) ToEntity() *inventory.GroundInventoryLot {
	lot := inventory.NewLot(r.CustomerID, r.MaterialID, inventory.SourceManualAdjustment, r.StartingWeight)
	lot.Notes = r.Notes
	return lot
}

// AdjustLotRequest edits a lot's remaining weight and notes. Remaining
// weight may only change while no allocations reference the lot.
type AdjustLotRequest struct {
	RemainingWeight *types.Weight `json:"remainingWeight"`
	Notes           *string       `json:"notes"`
}

// LotListQuery holds lot list filter parameters.
type LotListQuery struct {
	Search     string  `form:"search"`
	CustomerID *id.ID  `form:"customerId"`
	MaterialID *id.ID  `form:"materialId"`
	Status     *string `form:"status"`
	SourceType *string `form:"sourceType"`
	Limit      int     `form:"limit"`
	Offset     int     `form:"offset"`
}

// ToFilter converts query params to the repository filter.
func (q LotListQuery) ToFilter() inventory.LotFilter {
	f := inventory.LotFilter{}
	f.Search = q.Search
	f.Limit = q.Limit
	f.Offset = q.Offset
	f.CustomerID = q.CustomerID
	f.MaterialID = q.MaterialID
	if q.Status != nil {
		s := inventory.LotStatus(*q.Status)
		f.Status = &s
	}
	if q.SourceType != nil {
		st := inventory.SourceType(*q.SourceType)
		f.SourceType = &st
	}
	return f
}
