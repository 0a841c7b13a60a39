package dto

import (
	"bookstore/internal/core/types"
	"bookstore/internal/domain/catalog/book"
)

// CreateBookRequest registers a book with its initial stock and price.
type CreateBookRequest struct {
	Title    string      `json:"title" binding:"required,max=500"`
	Author   string      `json:"author" binding:"max=300"`
	ISBN     string      `json:"isbn" binding:"max=32"`
	Quantity *int64      `json:"quantity" binding:"required,min=0"`
	Price    types.Money `json:"price"`
	Notes    string      `json:"notes" binding:"max=1000"`
}

// ToInput converts the request to a service input.
func (r CreateBookRequest) ToInput() book.CreateInput {
	return book.CreateInput{
		Title:    r.Title,
		Author:   r.Author,
		ISBN:     r.ISBN,
		Quantity: *r.Quantity,
		Price:    r.Price,
		Notes:    r.Notes,
	}
}

// UpdateInventoryRequest changes stock and/or price.
// ExpectedQuantity is the stock the caller last saw.
type UpdateInventoryRequest struct {
	ExpectedQuantity *int64       `json:"expectedQuantity" binding:"required,min=0"`
	ExpectedPrice    *types.Money `json:"expectedPrice"`
	Quantity         *int64       `json:"quantity" binding:"omitempty,min=0"`
	Price            *types.Money `json:"price"`
	Notes            string       `json:"notes" binding:"max=1000"`
}

// ToInput converts the request to a service input.
func (r UpdateInventoryRequest) ToInput() book.UpdateInventoryInput {
	return book.UpdateInventoryInput{
		ExpectedQuantity: *r.ExpectedQuantity,
		ExpectedPrice:    r.ExpectedPrice,
		Quantity:         r.Quantity,
		Price:            r.Price,
		Notes:            r.Notes,
	}
}

// DeactivateBookQuery carries the caller's view of the stock being removed.
type DeactivateBookQuery struct {
	ExpectedQuantity *int64 `form:"expectedQuantity" binding:"required,min=0"`
	Notes            string `form:"notes"`
}

// BookListQuery filters the book listing.
type BookListQuery struct {
	PageQuery
	Search     string `form:"search"`
	ActiveOnly bool   `form:"activeOnly"`
}

// ToFilter converts the query to a repository filter.
func (q BookListQuery) ToFilter() book.ListFilter {
	return book.ListFilter{
		Search:     q.Search,
		ActiveOnly: q.ActiveOnly,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
}

// BookMovementResponse is returned by inventory-changing book endpoints.
type BookMovementResponse struct {
	Book     *book.Book       `json:"book"`
	Movement MovementResponse `json:"movement"`
}

// FromResult creates the response from a service result.
func FromResult(r *book.Result) BookMovementResponse {
	return BookMovementResponse{
		Book:     r.Book,
		Movement: FromMovement(r.Movement),
	}
}
