package handlers

import (
	"github.com/gin-gonic/gin"

	"bookstore/internal/core/apperror"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves the movement ledger and bulk adjustments.
type InventoryHandler struct {
	*BaseHandler
	movements inventory.MovementReader
	books     BookService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, movements inventory.MovementReader, books BookService) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, movements: movements, books: books}
}

// ListMovements handles GET /inventory/movements.
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var q dto.MovementListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	movements, err := h.movements.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: dto.FromMovements(movements), Limit: q.Limit, Offset: q.Offset})
}

// GetMovement handles GET /inventory/movements/:id.
func (h *InventoryHandler) GetMovement(c *gin.Context) {
	movementID, ok := h.ParamID(c)
	if !ok {
		return
	}

	m, err := h.movements.Get(c.Request.Context(), movementID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMovement(m))
}

// BulkAdjust handles POST /inventory/bulk.
func (h *InventoryHandler) BulkAdjust(c *gin.Context) {
	var req dto.BulkAdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}
	items, err := req.ToItems()
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	movements, err := h.books.BulkAdjust(c.Request.Context(), actor, items)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: dto.FromMovements(movements)})
}
