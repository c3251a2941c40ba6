package utils

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is a parsed page request
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// Page is one page of a listing. Data is never null in JSON.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ParsePaginationParams reads page and page_size from the query string.
// Bad values fall back to the defaults; page_size is clamped to MaxPageSize.
func ParsePaginationParams(r *http.Request) PaginationParams {
	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	size := queryInt(q.Get("page_size"), DefaultPageSize)

	if size < 1 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)
	page = max(page, 1)
	// keep the offset inside int32 for every driver
	page = min(page, math.MaxInt32/size)

	return PaginationParams{Page: page, PageSize: size, Offset: (page - 1) * size}
}

// NewPage wraps one page of items with its totals
func NewPage[T any](items []T, p PaginationParams, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PageSize > 0 {
		pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return Page[T]{
		Data:       items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}

func queryInt(v string, def int) int {
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
