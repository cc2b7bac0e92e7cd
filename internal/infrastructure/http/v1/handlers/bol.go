package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"railload/internal/domain/documents/bol"
	"railload/internal/infrastructure/http/v1/dto"
)

// BolHandler serves the BOL document lifecycle.
type BolHandler struct {
	*BaseHandler
	service *bol.Service
}

// NewBolHandler creates a new BOL handler.
func NewBolHandler(base *BaseHandler, service *bol.Service) *BolHandler {
	return &BolHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /bols.
func (h *BolHandler) List(c *gin.Context) {
	var query dto.BolListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	if query.Limit == 0 {
		query.Limit = 50
	}

	result, err := h.service.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromListResult(result))
}

// Get handles GET /bols/:id.
func (h *BolHandler) Get(c *gin.Context) {
	bolID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), bolID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// Create handles POST /bols. A request with status "completed" runs the full
// completion flow; a failed completion persists nothing.
func (h *BolHandler) Create(c *gin.Context) {
	var req dto.CreateBolRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var input *bol.CompletionInput
	if req.HasCompletionPayload() {
		input = req.CompletionFields.ToCompletionInput(nil)
	}

	b, err := h.service.Create(c.Request.Context(), req.ToEntity(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// Update handles PUT /bols/:id. Completed BOLs reject edits.
func (h *BolHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	bolID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateBolRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, bolID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.Apply(existing)
	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, existing)
}

// Complete handles POST /bols/:id/complete - the weigh-out transaction that
// locks the document, computes net and ton weights, and settles inventory.
func (h *BolHandler) Complete(c *gin.Context) {
	bolID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	var req dto.CompleteBolRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Complete(c.Request.Context(), bolID, req.CompletionFields.ToCompletionInput(req.Comment))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /bols/:id. Completed BOLs reject deletion.
func (h *BolHandler) Delete(c *gin.Context) {
	bolID, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), bolID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
