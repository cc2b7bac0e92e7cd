// Package railcars provides the Railcar catalog and the release workflow.
// A railcar record tracks one car spotted for a customer: its carrier
// shipment/BOL number, reported lading weight, and how much has been
// unloaded across truck loads.
package railcars

import (
	"context"
	"strings"
	"time"

	"railload/internal/core/apperror"
	"railload/internal/core/entity"
	"railload/internal/core/id"
	"railload/internal/core/types"
)

// Status values for a railcar.
type Status string

const (
	// StatusActive - spotted and available for unloading
	StatusActive Status = "active"
	// StatusReleased - released empty back to the carrier
	StatusReleased Status = "released"
)

// Railcar represents one car on a customer's account.
type Railcar struct {
	entity.Catalog

	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	MaterialID *id.ID `db:"material_id" json:"materialId,omitempty"`

	// Mark is the reporting mark + number (e.g. "BNSF 467812")
	Mark string `db:"mark" json:"mark"`

	// ShipmentBolNumber is the carrier-assigned shipment/BOL number,
	// stamped onto completed BOLs for railcar-sourced loads
	ShipmentBolNumber string `db:"shipment_bol_number" json:"shipmentBolNumber,omitempty"`

	// ReportedWeight is the lading weight from the carrier's waybill
	ReportedWeight types.Weight `db:"reported_weight" json:"reportedWeight"`

	// UnloadedWeight accumulates net weight taken off by completed BOLs
	UnloadedWeight types.Weight `db:"unloaded_weight" json:"unloadedWeight"`

	Status     Status     `db:"status" json:"status"`
	ReleasedAt *time.Time `db:"released_at" json:"releasedAt,omitempty"`
}

// NewRailcar creates an active railcar for a customer.
func NewRailcar(customerID id.ID, mark string) *Railcar {
	rc := &Railcar{
		Catalog:    entity.NewCatalog("", mark),
		CustomerID: customerID,
		Mark:       strings.ToUpper(strings.TrimSpace(mark)),
		Status:     StatusActive,
	}
	rc.Name = rc.Mark
	return rc
}

// RemainingWeight is the estimated weight still on the car.
func (r *Railcar) RemainingWeight() types.Weight {
	remaining := r.ReportedWeight - r.UnloadedWeight
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsReleased reports whether the car has been released empty.
func (r *Railcar) IsReleased() bool {
	return r.Status == StatusReleased
}

// Validate implements entity.Validatable.
func (r *Railcar) Validate(ctx context.Context) error {
	if id.IsNil(r.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if strings.TrimSpace(r.Mark) == "" {
		return apperror.NewValidation("railcar mark is required").
			WithDetail("field", "mark")
	}

	if r.ReportedWeight.IsNegative() {
		return apperror.NewValidation("reported weight cannot be negative").
			WithDetail("field", "reportedWeight")
	}

	return nil
}
