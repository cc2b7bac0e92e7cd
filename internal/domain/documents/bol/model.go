// Package bol provides the Bill of Lading document and its lifecycle.
//
// A BOL records one truck load through the weigh-in/weigh-out workflow. It is
// created in Draft, edited freely, and completed exactly once; Completed is
// terminal and locks the document against update and deletion. Completion
// derives all weight fields, stamps shipment numbers, and for ground-sourced
// loads debits the selected inventory lots.
package bol

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"railload/internal/core/apperror"
	"railload/internal/core/entity"
	"railload/internal/core/id"
	"railload/internal/core/types"
)

// InventorySource identifies where the load's material comes from.
type InventorySource string

const (
	// SourceRailcar - material loaded directly from a spotted railcar
	SourceRailcar InventorySource = "railcar"
	// SourceGround - material drawn from ground inventory lots
	SourceGround InventorySource = "ground"
)

// Status values for a BOL.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusCompleted Status = "Completed"
)

// BOL is one Bill of Lading document.
type BOL struct {
	entity.Document

	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	CustomerID id.ID `db:"customer_id" json:"customerId"`
	MaterialID id.ID `db:"material_id" json:"materialId"`

	// Party names, backfilled from the order when absent
	ShipperName  string `db:"shipper_name" json:"shipperName,omitempty"`
	ReceiverName string `db:"receiver_name" json:"receiverName,omitempty"`
	ProjectName  string `db:"project_name" json:"projectName,omitempty"`

	InventorySource InventorySource `db:"inventory_source" json:"inventorySource"`
	Status          Status          `db:"status" json:"status"`

	// Primary weigh data. Pointers because a Draft may not have been
	// weighed yet.
	RailcarMark  string        `db:"railcar_mark" json:"railcarMark,omitempty"`
	GrossWeight  *types.Weight `db:"gross_weight" json:"grossWeight,omitempty"`
	TareWeight   *types.Weight `db:"tare_weight" json:"tareWeight,omitempty"`
	WeighInTime  *time.Time    `db:"weigh_in_time" json:"weighInTime,omitempty"`
	WeighOutTime *time.Time    `db:"weigh_out_time" json:"weighOutTime,omitempty"`

	// Split-load secondary leg
	SplitLoad            bool          `db:"split_load" json:"splitLoad"`
	SecondaryRailcarMark string        `db:"secondary_railcar_mark" json:"secondaryRailcarMark,omitempty"`
	SecondaryGrossWeight *types.Weight `db:"secondary_gross_weight" json:"secondaryGrossWeight,omitempty"`
	SecondaryTareWeight  *types.Weight `db:"secondary_tare_weight" json:"secondaryTareWeight,omitempty"`

	// Derived weights, owned by completion, never user-supplied
	NetWeight          types.Weight    `db:"net_weight" json:"netWeight"`
	TonWeight          decimal.Decimal `db:"ton_weight" json:"tonWeight"`
	SecondaryNetWeight types.Weight    `db:"secondary_net_weight" json:"secondaryNetWeight"`
	SecondaryTonWeight decimal.Decimal `db:"secondary_ton_weight" json:"secondaryTonWeight"`
	CombinedNetWeight  types.Weight    `db:"combined_net_weight" json:"combinedNetWeight"`
	CombinedTonWeight  decimal.Decimal `db:"combined_ton_weight" json:"combinedTonWeight"`

	// Carrier shipment/BOL numbers, stamped for railcar-sourced loads
	RailShipmentBolNumber          string `db:"rail_shipment_bol_number" json:"railShipmentBolNumber,omitempty"`
	SecondaryRailShipmentBolNumber string `db:"secondary_rail_shipment_bol_number" json:"secondaryRailShipmentBolNumber,omitempty"`

	// Ground inventory selections and the weights debited from each lot
	GroundLotID              *id.ID       `db:"ground_lot_id" json:"groundLotId,omitempty"`
	SecondaryGroundLotID     *id.ID       `db:"secondary_ground_lot_id" json:"secondaryGroundLotId,omitempty"`
	AllocatedPrimaryWeight   types.Weight `db:"allocated_primary_weight" json:"allocatedPrimaryWeight"`
	AllocatedSecondaryWeight types.Weight `db:"allocated_secondary_weight" json:"allocatedSecondaryWeight"`

	DriverName     string     `db:"driver_name" json:"driverName,omitempty"`
	SignatureImage []byte     `db:"signature_image" json:"signatureImage,omitempty"`
	SignedAt       *time.Time `db:"signed_at" json:"signedAt,omitempty"`

	CompletedBy string     `db:"completed_by" json:"completedBy,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// NewBOL creates a Draft BOL for a customer.
func NewBOL(customerID id.ID) *BOL {
	return &BOL{
		Document:        entity.NewDocument(),
		CustomerID:      customerID,
		InventorySource: SourceRailcar,
		Status:          StatusDraft,
	}
}

// IsCompleted reports whether the document is locked.
func (b *BOL) IsCompleted() bool {
	return b.Status == StatusCompleted
}

// IsGroundSource reports whether the load draws from ground inventory.
func (b *BOL) IsGroundSource() bool {
	return b.InventorySource == SourceGround
}

// NormalizeSource coerces the inventory source to a known value,
// defaulting to railcar.
func (b *BOL) NormalizeSource() {
	switch InventorySource(strings.ToLower(strings.TrimSpace(string(b.InventorySource)))) {
	case SourceGround:
		b.InventorySource = SourceGround
	default:
		b.InventorySource = SourceRailcar
	}
}

// ClearInactiveSourceFields drops the fields that do not apply to the
// chosen inventory source, and the secondary-leg fields when the load is
// not split. Runs on every save so stale selections never persist.
func (b *BOL) ClearInactiveSourceFields() {
	if b.IsGroundSource() {
		b.RailShipmentBolNumber = ""
		b.SecondaryRailShipmentBolNumber = ""
	} else {
		b.GroundLotID = nil
		b.SecondaryGroundLotID = nil
		b.AllocatedPrimaryWeight = 0
		b.AllocatedSecondaryWeight = 0
	}
	if !b.SplitLoad {
		b.SecondaryGroundLotID = nil
		b.SecondaryRailcarMark = ""
		b.SecondaryRailShipmentBolNumber = ""
		b.SecondaryGrossWeight = nil
		b.SecondaryTareWeight = nil
	}
}

// HasCompletionWeights reports whether all weigh data required to complete
// is present.
func (b *BOL) HasCompletionWeights() bool {
	if b.GrossWeight == nil || b.TareWeight == nil {
		return false
	}
	if b.WeighInTime == nil || b.WeighOutTime == nil {
		return false
	}
	return true
}

// Validate implements entity.Validatable.
func (b *BOL) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(b.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	switch b.InventorySource {
	case SourceRailcar, SourceGround:
	default:
		return apperror.NewValidation("invalid inventory source").
			WithDetail("field", "inventorySource")
	}

	switch b.Status {
	case StatusDraft, StatusCompleted:
	default:
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status")
	}

	if b.GrossWeight != nil && b.GrossWeight.IsNegative() {
		return apperror.NewValidation("gross weight cannot be negative").
			WithDetail("field", "grossWeight")
	}
	if b.TareWeight != nil && b.TareWeight.IsNegative() {
		return apperror.NewValidation("tare weight cannot be negative").
			WithDetail("field", "tareWeight")
	}

	return nil
}
