package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/domain/railcars"
	"railload/internal/infrastructure/http/v1/dto"
)

// RailcarHandler serves the railcar catalog plus the release and shipment
// lookup operations.
type RailcarHandler struct {
	*CatalogHandler[*railcars.Railcar, dto.CreateRailcarRequest, dto.UpdateRailcarRequest]
	service *railcars.Service
}

// NewRailcarHandler creates a new railcar handler.
func NewRailcarHandler(base *BaseHandler, service *railcars.Service) *RailcarHandler {
	config := CatalogHandlerConfig[
		*railcars.Railcar,
		dto.CreateRailcarRequest,
		dto.UpdateRailcarRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "railcar",
		CreateFn:   service.Create,

		MapCreateDTO: func(req dto.CreateRailcarRequest) *railcars.Railcar {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateRailcarRequest, existing *railcars.Railcar) *railcars.Railcar {
			req.Apply(existing)
			return existing
		},
	}

	return &RailcarHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// Release handles POST /railcars/:id/release - release the car empty,
// converting any residual weight into a ground inventory lot when the
// customer runs in ground inventory mode.
func (h *RailcarHandler) Release(c *gin.Context) {
	railcarID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	result, err := h.service.ReleaseEmpty(c.Request.Context(), railcarID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ReleaseResponse{
		Railcar:    result.Railcar,
		LotCreated: result.LotCreated,
	}
	if result.Lot != nil {
		lotID := result.Lot.ID.String()
		resp.LotID = &lotID
	}

	c.JSON(http.StatusOK, resp)
}

// ShipmentLookup handles GET /railcars/shipment-lookup - find the carrier
// shipment/BOL number for a customer's active car by reporting mark.
func (h *RailcarHandler) ShipmentLookup(c *gin.Context) {
	customerID, err := id.Parse(c.Query("customerId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid customerId").
			WithDetail("customerId", c.Query("customerId")))
		return
	}

	mark := c.Query("mark")
	number, err := h.service.FindActiveShipmentNumber(c.Request.Context(), customerID, mark)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ShipmentLookupResponse{
		Mark:              mark,
		ShipmentBolNumber: number,
	})
}
