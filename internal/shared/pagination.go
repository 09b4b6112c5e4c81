package shared

import "math"

const defaultPerPage = 20

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the index of the first element on the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one slice of a larger in-memory listing.
type Page[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PerPage     int `json:"per_page"`
}

// Paginate cuts items into pages. Pages past the end are empty.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	meta := NewPagination(page, perPage, len(items))
	start := meta.Offset()
	out := Page[T]{
		Items:       []T{},
		CurrentPage: meta.Page,
		TotalPages:  meta.TotalPages,
		TotalItems:  meta.Total,
		PerPage:     meta.PerPage,
	}
	if start >= len(items) {
		return out
	}
	end := start + meta.PerPage
	if end > len(items) {
		end = len(items)
	}
	out.Items = items[start:end]
	return out
}
