package models

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 500

	// MaxCurrent keeps (Current-1)*Size within int64 for every allowed size.
	MaxCurrent = math.MaxInt64 / MaxPageSize
)

// PageParams is the paging part of a list request.
type PageParams struct {
	Current int64 `form:"current" json:"current"`
	Size    int64 `form:"size" json:"size"`
}

// Normalize applies defaults and caps the page number and size.
func (p PageParams) Normalize() PageParams {
	if p.Current < 1 {
		p.Current = 1
	}
	if p.Current > MaxCurrent {
		p.Current = MaxCurrent
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows before the page. It saturates at
// math.MaxInt64 instead of wrapping.
func (p PageParams) Offset() int64 {
	if p.Current <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Current-1 > math.MaxInt64/p.Size {
		return math.MaxInt64
	}
	return (p.Current - 1) * p.Size
}

// Page is one page of records plus the totals needed to page further.
type Page[T any] struct {
	Current int64 `json:"current"`
	Size    int64 `json:"size"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	Records []T   `json:"records"`
}

func NewPage[T any](p PageParams, total int64, records []T) *Page[T] {
	if records == nil {
		records = []T{}
	}
	pages := int64(0)
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return &Page[T]{Current: p.Current, Size: p.Size, Total: total, Pages: pages, Records: records}
}
