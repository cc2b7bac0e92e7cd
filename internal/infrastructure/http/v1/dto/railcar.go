package dto

import (
	"railload/internal/core/id"
	"railload/internal/core/types"
	"railload/internal/domain/railcars"
)

// CreateRailcarRequest for spotting a car on a customer's account.
type CreateRailcarRequest struct {
	CustomerID        id.ID        `json:"customerId" binding:"required"`
	MaterialID        *id.ID       `json:"materialId"`
	Mark              string       `json:"mark" binding:"required"`
	ShipmentBolNumber string       `json:"shipmentBolNumber"`
	ReportedWeight    types.Weight `json:"reportedWeight"`
}

// ToEntity builds an active railcar from the request.
func (r CreateRailcarRequest) ToEntity() *railcars.Railcar {
	rc := railcars.NewRailcar(r.CustomerID, r.Mark)
	rc.MaterialID = r.MaterialID
	rc.ShipmentBolNumber = r.ShipmentBolNumber
	rc.ReportedWeight = r.ReportedWeight
	return rc
}

// UpdateRailcarRequest edits a spotted car.
type UpdateRailcarRequest struct {
	MaterialID        *id.ID        `json:"materialId"`
	ShipmentBolNumber *string       `json:"shipmentBolNumber"`
	ReportedWeight    *types.Weight `json:"reportedWeight"`
	Version           int           `json:"version" binding:"required,min=1"`
}

// Apply copies non-nil fields onto the railcar.
func (r UpdateRailcarRequest) Apply(rc *railcars.Railcar) {
	if r.MaterialID != nil {
		rc.MaterialID = r.MaterialID
	}
	if r.ShipmentBolNumber != nil {
		rc.ShipmentBolNumber = *r.ShipmentBolNumber
	}
	if r.ReportedWeight != nil {
		rc.ReportedWeight = *r.ReportedWeight
	}
	rc.Version = r.Version
}

// ReleaseResponse reports the outcome of releasing a car empty.
type ReleaseResponse struct {
	Railcar    *railcars.Railcar `json:"railcar"`
	LotID      *string           `json:"lotId,omitempty"`
	LotCreated bool              `json:"lotCreated"`
}

// ShipmentLookupResponse carries the active shipment number for a mark.
type ShipmentLookupResponse struct {
	Mark              string `json:"mark"`
	ShipmentBolNumber string `json:"shipmentBolNumber"`
}
