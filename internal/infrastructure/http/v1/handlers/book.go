package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"bookstore/internal/core/id"
	"bookstore/internal/domain/catalog/book"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/infrastructure/http/v1/dto"
	"bookstore/internal/infrastructure/storage/postgres"
)

const historyLimit = 100

// BookService is the catalog service used by the handlers.
type BookService interface {
	Create(ctx context.Context, actor inventory.Actor, input book.CreateInput) (*book.Result, error)
	Get(ctx context.Context, bookID id.ID) (*book.Book, error)
	List(ctx context.Context, filter book.ListFilter) ([]*book.Book, error)
	UpdateInventory(ctx context.Context, actor inventory.Actor, bookID id.ID, input book.UpdateInventoryInput) (*book.Result, error)
	Deactivate(ctx context.Context, actor inventory.Actor, bookID id.ID, expectedQuantity int64, notes string) (*book.Result, error)
	BulkAdjust(ctx context.Context, actor inventory.Actor, items []book.BulkItem) ([]*inventory.Movement, error)
}

// HistoryReader reads the audit trail.
type HistoryReader interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// BookHandler handles book catalog requests.
type BookHandler struct {
	*BaseHandler
	service BookService
	history HistoryReader
}

// NewBookHandler creates a new book handler.
func NewBookHandler(base *BaseHandler, service BookService, history HistoryReader) *BookHandler {
	return &BookHandler{BaseHandler: base, service: service, history: history}
}

// Create handles POST /books.
func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	res, err := h.service.Create(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromResult(res))
}

// Get handles GET /books/:id.
func (h *BookHandler) Get(c *gin.Context) {
	bookID, ok := h.ParamID(c)
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), bookID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// List handles GET /books.
func (h *BookHandler) List(c *gin.Context) {
	var q dto.BookListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	books, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: books, Limit: q.Limit, Offset: q.Offset})
}

// UpdateInventory handles PATCH /books/:id/inventory.
func (h *BookHandler) UpdateInventory(c *gin.Context) {
	bookID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateInventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	res, err := h.service.UpdateInventory(c.Request.Context(), actor, bookID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromResult(res))
}

// Deactivate handles DELETE /books/:id?expectedQuantity=N.
func (h *BookHandler) Deactivate(c *gin.Context) {
	bookID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var q dto.DeactivateBookQuery
	if !h.BindQuery(c, &q) {
		return
	}
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	res, err := h.service.Deactivate(c.Request.Context(), actor, bookID, *q.ExpectedQuantity, q.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromResult(res))
}

// History handles GET /books/:id/history.
func (h *BookHandler) History(c *gin.Context) {
	bookID, ok := h.ParamID(c)
	if !ok {
		return
	}

	entries, err := h.history.GetEntityHistory(c.Request.Context(), book.EntityType, bookID, historyLimit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: entries, Limit: historyLimit})
}
