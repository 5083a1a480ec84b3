package models

import "strings"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListQuery selects one page of a keyword-filtered listing.
type ListQuery struct {
	Keyword  string
	Page     int
	PageSize int
}

// Normalize clamps the page and page size into range.
func (q ListQuery) Normalize(defaultSize int) ListQuery {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// Offset is the number of rows preceding the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Page is one slice of a listing plus enough to render pagination.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles a page. It reports ErrNotFound for a page past the end, except
// that the first page of an empty listing is always valid.
func NewPage[T any](items []T, q ListQuery, total int64) (Page[T], error) {
	pages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	if q.Page > 1 && q.Page > pages {
		return Page[T]{}, ErrNotFound
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: pages,
	}, nil
}
