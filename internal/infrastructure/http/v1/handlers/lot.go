package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"railload/internal/domain/inventory"
	"railload/internal/infrastructure/http/v1/dto"
)

// LotHandler serves ground inventory lots and their allocation ledger.
type LotHandler struct {
	*BaseHandler
	ledger *inventory.Ledger
}

// NewLotHandler creates a new lot handler.
func NewLotHandler(base *BaseHandler, ledger *inventory.Ledger) *LotHandler {
	return &LotHandler{
		BaseHandler: base,
		ledger:      ledger,
	}
}

// List handles GET /lots.
func (h *LotHandler) List(c *gin.Context) {
	var query dto.LotListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	if query.Limit == 0 {
		query.Limit = 50
	}

	result, err := h.ledger.ListLots(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromListResult(result))
}

// Get handles GET /lots/:id.
func (h *LotHandler) Get(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	lot, err := h.ledger.GetLot(c.Request.Context(), lotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// Allocations handles GET /lots/:id/allocations.
func (h *LotHandler) Allocations(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	items, err := h.ledger.Allocations(c.Request.Context(), lotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Create handles POST /lots - manual lot entry for material already on the
// ground (spillage recovery, opening balances).
func (h *LotHandler) Create(c *gin.Context) {
	var req dto.CreateLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lot, err := h.ledger.CreateManualLot(c.Request.Context(), req.ToEntity())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// Adjust handles PATCH /lots/:id - edit remaining weight and notes.
func (h *LotHandler) Adjust(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	var req dto.AdjustLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lot, err := h.ledger.AdjustLot(c.Request.Context(), lotID, req.RemainingWeight, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// Archive handles POST /lots/:id/archive - take a lot out of circulation.
func (h *LotHandler) Archive(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	if err := h.ledger.ArchiveLot(c.Request.Context(), lotID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "lot archived")
}

// Delete handles DELETE /lots/:id - remove a lot that was entered in error.
func (h *LotHandler) Delete(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	if err := h.ledger.DeleteLot(c.Request.Context(), lotID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
