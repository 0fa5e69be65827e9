package shared

import "math"

const defaultPageSize = 20

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// MaxPage is the largest page number whose offset fits in an int.
func MaxPage(pageSize int) int {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return math.MaxInt / pageSize
}

// NewPagination computes pagination metadata. Pages beyond MaxPage are clamped.
func NewPagination(page, pageSize, total int) Pagination {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	if limit := MaxPage(pageSize); page > limit {
		page = limit
	}
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}
