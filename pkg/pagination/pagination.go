package pagination

import (
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta is the pagination block returned alongside every listing.
type Meta struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// Normalize fills defaults and validates the supplied page and limit.
func (p Params) Normalize() (Params, error) {
	out := p
	if out.Page == 0 {
		out.Page = 1
	}
	if out.Limit == 0 {
		out.Limit = DefaultLimit
	}
	if out.Page < 1 {
		return Params{}, pkgerrors.New(pkgerrors.CodeValidation, "page must be at least 1")
	}
	if out.Limit < 1 {
		return Params{}, pkgerrors.New(pkgerrors.CodeValidation, "limit must be positive")
	}
	if out.Limit > MaxLimit {
		out.Limit = MaxLimit
	}
	return out, nil
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// BuildMeta derives the pagination metadata from the total row count.
func BuildMeta(params Params, totalItems int64) Meta {
	totalPages := int((totalItems + int64(params.Limit) - 1) / int64(params.Limit))
	return Meta{
		CurrentPage:  params.Page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: params.Limit,
		HasNextPage:  params.Page < totalPages,
		HasPrevPage:  params.Page > 1,
	}
}
