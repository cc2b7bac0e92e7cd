// Package orders provides read-only access to shipment orders.
// Orders are managed by the booking side of the office; the transload core
// only reads them to backfill references onto BOLs.
package orders

import (
	"time"

	"railload/internal/core/entity"
	"railload/internal/core/id"
)

// Order is the originating shipment order for one or more BOLs.
type Order struct {
	entity.Document

	CustomerID id.ID `db:"customer_id" json:"customerId"`
	MaterialID id.ID `db:"material_id" json:"materialId"`

	// ShipperName and ReceiverName are free-text party names carried onto BOLs
	ShipperName  string `db:"shipper_name" json:"shipperName,omitempty"`
	ReceiverName string `db:"receiver_name" json:"receiverName,omitempty"`

	// ProjectName identifies the destination project/location
	ProjectName string `db:"project_name" json:"projectName,omitempty"`

	// OrderDate is the business date used when a BOL has no date of its own
	OrderDate time.Time `db:"order_date" json:"orderDate"`
}
