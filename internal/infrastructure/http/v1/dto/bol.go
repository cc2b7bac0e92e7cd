package dto

import (
	"time"

	"railload/internal/core/id"
	"railload/internal/core/types"
	"railload/internal/domain/documents/bol"
)

// CreateBolRequest for creating BOLs. Status "completed" runs the full
// completion flow during creation.
type CreateBolRequest struct {
	Number          string     `json:"number"`
	Date            *time.Time `json:"date"`
	OrderID         *id.ID     `json:"orderId"`
	CustomerID      id.ID      `json:"customerId" binding:"required"`
	MaterialID      *id.ID     `json:"materialId"`
	ShipperName     string     `json:"shipperName"`
	ReceiverName    string     `json:"receiverName"`
	ProjectName     string     `json:"projectName"`
	InventorySource string     `json:"inventorySource"`
	Status          string     `json:"status"`
	Comment         string     `json:"comment"`

	CompletionFields
}

// CompletionFields is the weigh-and-sign payload shared by create and
// complete requests.
type CompletionFields struct {
	RailcarMark  *string       `json:"railcarMark"`
	GrossWeight  *types.Weight `json:"grossWeight"`
	TareWeight   *types.Weight `json:"tareWeight"`
	WeighInTime  *time.Time    `json:"weighInTime"`
	WeighOutTime *time.Time    `json:"weighOutTime"`

	SplitLoad            *bool         `json:"splitLoad"`
	SecondaryRailcarMark *string       `json:"secondaryRailcarMark"`
	SecondaryGrossWeight *types.Weight `json:"secondaryGrossWeight"`
	SecondaryTareWeight  *types.Weight `json:"secondaryTareWeight"`

	GroundLotID           *id.ID  `json:"groundLotId"`
	SecondaryGroundLotID  *id.ID  `json:"secondaryGroundLotId"`
	RailShipmentBolNumber *string `json:"railShipmentBolNumber"`

	DriverName     *string    `json:"driverName"`
	SignatureImage []byte     `json:"signatureImage"`
	SignedAt       *time.Time `json:"signedAt"`
}

// ToCompletionInput maps the wire payload onto the service input.
func (f CompletionFields) ToCompletionInput(comment *string) *bol.CompletionInput {
	return &bol.CompletionInput{
		GrossWeight:           f.GrossWeight,
		TareWeight:            f.TareWeight,
		WeighInTime:           f.WeighInTime,
		WeighOutTime:          f.WeighOutTime,
		SplitLoad:             f.SplitLoad,
		SecondaryRailcarMark:  f.SecondaryRailcarMark,
		SecondaryGrossWeight:  f.SecondaryGrossWeight,
		SecondaryTareWeight:   f.SecondaryTareWeight,
		RailcarMark:           f.RailcarMark,
		GroundLotID:           f.GroundLotID,
		SecondaryGroundLotID:  f.SecondaryGroundLotID,
		RailShipmentBolNumber: f.RailShipmentBolNumber,
		DriverName:            f.DriverName,
		SignatureImage:        f.SignatureImage,
		SignedAt:              f.SignedAt,
		Comment:               comment,
	}
}

// ToEntity builds the draft BOL from the request.
func (r CreateBolRequest) ToEntity() *bol.BOL {
	b := bol.NewBOL(r.CustomerID)
	b.Number = r.Number
	if r.Date != nil {
		b.Date = *r.Date
	}
	b.OrderID = r.OrderID
	if r.MaterialID != nil {
		b.MaterialID = *r.MaterialID
	}
	b.ShipperName = r.ShipperName
	b.ReceiverName = r.ReceiverName
	b.ProjectName = r.ProjectName
	b.InventorySource = bol.InventorySource(r.InventorySource)
	b.Status = bol.Status(r.Status)
	b.Comment = r.Comment
	if r.RailcarMark != nil {
		b.RailcarMark = *r.RailcarMark
	}
	if r.GroundLotID != nil {
		b.GroundLotID = r.GroundLotID
	}
	return b
}

// HasCompletionPayload reports whether any completion field was supplied.
func (r CreateBolRequest) HasCompletionPayload() bool {
	return r.GrossWeight != nil || r.TareWeight != nil ||
		r.WeighInTime != nil || r.WeighOutTime != nil ||
		r.SplitLoad != nil || r.DriverName != nil
}

// UpdateBolRequest for editing Draft BOLs.
type UpdateBolRequest struct {
	Date            *time.Time `json:"date"`
	OrderID         *id.ID     `json:"orderId"`
	MaterialID      *id.ID     `json:"materialId"`
	ShipperName     *string    `json:"shipperName"`
	ReceiverName    *string    `json:"receiverName"`
	ProjectName     *string    `json:"projectName"`
	InventorySource *string    `json:"inventorySource"`
	Comment         *string    `json:"comment"`
	Version         int        `json:"version" binding:"required,min=1"`

	CompletionFields
}

// Apply copies non-nil fields onto the BOL.
func (r UpdateBolRequest) Apply(b *bol.BOL) {
	if r.Date != nil {
		b.Date = *r.Date
	}
	if r.OrderID != nil {
		b.OrderID = r.OrderID
	}
	if r.MaterialID != nil {
		b.MaterialID = *r.MaterialID
	}
	if r.ShipperName != nil {
		b.ShipperName = *r.ShipperName
	}
	if r.ReceiverName != nil {
		b.ReceiverName = *r.ReceiverName
	}
	if r.ProjectName != nil {
		b.ProjectName = *r.ProjectName
	}
	if r.InventorySource != nil {
		b.InventorySource = bol.InventorySource(*r.InventorySource)
	}
	if r.Comment != nil {
		b.Comment = *r.Comment
	}
	if r.RailcarMark != nil {
		b.RailcarMark = *r.RailcarMark
	}
	if r.GrossWeight != nil {
		b.GrossWeight = r.GrossWeight
	}
	if r.TareWeight != nil {
		b.TareWeight = r.TareWeight
	}
	if r.WeighInTime != nil {
		b.WeighInTime = r.WeighInTime
	}
	if r.WeighOutTime != nil {
		b.WeighOutTime = r.WeighOutTime
	}
	if r.SplitLoad != nil {
		b.SplitLoad = *r.SplitLoad
	}
	if r.SecondaryRailcarMark != nil {
		b.SecondaryRailcarMark = *r.SecondaryRailcarMark
	}
	if r.SecondaryGrossWeight != nil {
		b.SecondaryGrossWeight = r.SecondaryGrossWeight
	}
	if r.SecondaryTareWeight != nil {
		b.SecondaryTareWeight = r.SecondaryTareWeight
	}
	if r.GroundLotID != nil {
		b.GroundLotID = r.GroundLotID
	}
	if r.SecondaryGroundLotID != nil {
		b.SecondaryGroundLotID = r.SecondaryGroundLotID
	}
	if r.DriverName != nil {
		b.DriverName = *r.DriverName
	}
	if r.SignatureImage != nil {
		b.SignatureImage = r.SignatureImage
	}
	if r.SignedAt != nil {
		b.SignedAt = r.SignedAt
	}
	b.Version = r.Version
}

// CompleteBolRequest for the completion operation. All fields optional;
// anything already on the Draft carries forward.
type CompleteBolRequest struct {
	Comment *string `json:"comment"`

	CompletionFields
}

// BolListQuery holds BOL list filter parameters.
type BolListQuery struct {
	Search   string     `form:"search"`
	Customer *id.ID     `form:"customerId"`
	Status   *string    `form:"status"`
	Source   *string    `form:"source"`
	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
	OrderBy  string     `form:"orderBy"`
}

// ToFilter converts query params to the repository filter.
func (q BolListQuery) ToFilter() bol.Filter {
	f := bol.Filter{}
	f.Search = q.Search
	f.Limit = q.Limit
	f.Offset = q.Offset
	f.OrderBy = q.OrderBy
	f.CustomerID = q.Customer
	if q.Status != nil {
		s := bol.Status(*q.Status)
		f.Status = &s
	}
	if q.Source != nil {
		src := bol.InventorySource(*q.Source)
		f.Source = &src
	}
	f.DateFrom = q.DateFrom
	f.DateTo = q.DateTo
	return f
}
