// Package inventory provides ground inventory lots and their consumption
// ledger. A lot is a finite pool of material weight, built up when railcars
// are released with residual freight (or by manual adjustment) and drawn down
// by completed BOLs. The remaining weight on a lot is the one shared mutable
// resource in the system; it only ever changes through the conditional
// decrement/increment primitives on the repository, never a blind overwrite.
package inventory

import (
	"context"
	"time"

	"railload/internal/core/apperror"
	"railload/internal/core/entity"
	"railload/internal/core/id"
	"railload/internal/core/types"
)

// SourceType describes how a lot came to exist.
type SourceType string

const (
	// SourceRailcarConversion - created automatically when a railcar was
	// released empty with residual reported weight
	SourceRailcarConversion SourceType = "railcar_conversion"
	// SourceManualAdjustment - created by an operator
	SourceManualAdjustment SourceType = "manual_adjustment"
)

// LotStatus values for a ground inventory lot.
type LotStatus string

const (
	// LotAvailable - has remaining weight to consume
	LotAvailable LotStatus = "available"
	// LotDepleted - remaining weight exhausted; restored consumption
	// moves the lot back to available
	LotDepleted LotStatus = "depleted"
	// LotArchived - manually closed; terminal
	LotArchived LotStatus = "archived"
)

// GroundInventoryLot is a finite quantity of material available to BOLs.
type GroundInventoryLot struct {
	entity.BaseDocument

	// Number is a human-readable lot number (e.g. LOT-2026-00014)
	Number string `db:"number" json:"number"`

	CustomerID id.ID `db:"customer_id" json:"customerId"`
	MaterialID id.ID `db:"material_id" json:"materialId"`

	SourceType SourceType `db:"source_type" json:"sourceType"`

	// Back-reference to the originating railcar, when converted
	SourceRailcarID   *id.ID `db:"source_railcar_id" json:"sourceRailcarId,omitempty"`
	SourceRailcarMark string `db:"source_railcar_mark" json:"sourceRailcarMark,omitempty"`
	ShipmentBolNumber string `db:"shipment_bol_number" json:"shipmentBolNumber,omitempty"`

	// ConversionToken is the idempotency key for railcar conversions
	// (unique when non-empty)
	ConversionToken string `db:"conversion_token" json:"conversionToken,omitempty"`

	StartingWeight  types.Weight `db:"starting_weight" json:"startingWeight"`
	RemainingWeight types.Weight `db:"remaining_weight" json:"remainingWeight"`

	Status LotStatus `db:"status" json:"status"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewLot creates an available lot.
func NewLot(customerID, materialID id.ID, source SourceType, weight types.Weight) *GroundInventoryLot {
	return &GroundInventoryLot{
		BaseDocument:    entity.NewBaseDocument(),
		CustomerID:      customerID,
		MaterialID:      materialID,
		SourceType:      source,
		StartingWeight:  weight,
		RemainingWeight: weight,
		Status:          LotAvailable,
	}
}

// IsConsumable reports whether the lot can currently be drawn from.
func (l *GroundInventoryLot) IsConsumable() bool {
	return l.Status != LotArchived && l.RemainingWeight.IsPositive()
}

// Validate implements entity.Validatable.
func (l *GroundInventoryLot) Validate(ctx context.Context) error {
	if id.IsNil(l.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if id.IsNil(l.MaterialID) {
		return apperror.NewValidation("material is required").
			WithDetail("field", "materialId")
	}
	if !l.StartingWeight.IsPositive() {
		return apperror.NewValidation("starting weight must be positive").
			WithDetail("field", "startingWeight")
	}
	if l.RemainingWeight.IsNegative() {
		return apperror.NewValidation("remaining weight cannot be negative").
			WithDetail("field", "remainingWeight")
	}
	if l.RemainingWeight > l.StartingWeight {
		return apperror.NewValidation("remaining weight cannot exceed starting weight").
			WithDetail("field", "remainingWeight")
	}
	switch l.SourceType {
	case SourceRailcarConversion, SourceManualAdjustment:
	default:
		return apperror.NewValidation("invalid source type").
			WithDetail("field", "sourceType")
	}
	return nil
}

// AllocationType describes what produced an allocation entry.
type AllocationType string

const (
	// AllocationBolCompletion - recorded alongside a completed BOL
	AllocationBolCompletion AllocationType = "bol_completion"
	// AllocationManualAdjustment - recorded by an operator correction
	AllocationManualAdjustment AllocationType = "manual_adjustment"
)

// GroundInventoryAllocation is one append-only ledger entry: one lot's
// consumption by one BOL (or manual adjustment). Never mutated.
type GroundInventoryAllocation struct {
	ID id.ID `db:"id" json:"id"`

	LotID id.ID  `db:"lot_id" json:"lotId"`
	BolID *id.ID `db:"bol_id" json:"bolId,omitempty"`

	CustomerID id.ID `db:"customer_id" json:"customerId"`
	MaterialID id.ID `db:"material_id" json:"materialId"`

	AllocatedWeight types.Weight   `db:"allocated_weight" json:"allocatedWeight"`
	AllocationType  AllocationType `db:"allocation_type" json:"allocationType"`

	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
