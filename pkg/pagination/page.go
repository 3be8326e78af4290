// Package pagination turns either a relational (already paginated) result or a
// fully materialized, filtered and sorted list into a single page shape.
package pagination

import (
	"math"
	"strings"
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection defaults to Desc for anything that is not "asc".
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return Asc
	}
	return Desc
}

type Sort struct {
	Field     string
	Direction Direction
}

// Request is a 0-based page request.
type Request struct {
	Page int
	Size int
	Sort Sort
}

// Normalize clamps page and size into range. Page is capped so that
// Page*Size cannot overflow.
func (r Request) Normalize(defaultSize, maxSize int) Request {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = defaultSize
	}
	if maxSize > 0 && r.Size > maxSize {
		r.Size = maxSize
	}
	if r.Size > 0 && r.Page > math.MaxInt/r.Size {
		r.Page = math.MaxInt / r.Size
	}
	if r.Sort.Direction == "" {
		r.Sort.Direction = Desc
	}
	return r
}

func (r Request) Offset() int {
	if r.Page <= 0 || r.Size <= 0 {
		return 0
	}
	if r.Page > math.MaxInt/r.Size {
		return math.MaxInt
	}
	return r.Page * r.Size
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// FromQuery wraps items that were already limited and offset by the database.
func FromQuery[T any](items []T, total int64, req Request) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Content:       items,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    TotalPages(total, req.Size),
	}
}

// FromSlice slices all[offset, offset+size). all must already be filtered and sorted.
func FromSlice[T any](all []T, req Request) Page[T] {
	total := int64(len(all))
	start := req.Offset()
	if start < 0 {
		start = 0
	}
	if start > len(all) {
		start = len(all)
	}
	end := start + req.Size
	if req.Size <= 0 || end < start || end > len(all) {
		end = len(all)
	}
	content := make([]T, end-start)
	copy(content, all[start:end])
	return FromQuery(content, total, req)
}

func Empty[T any](req Request) Page[T] {
	return FromQuery[T](nil, 0, req)
}

// Meta is the page without its content, for response envelopes.
type Meta struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func (p Page[T]) Meta() Meta {
	return Meta{Page: p.Page, Size: p.Size, TotalElements: p.TotalElements, TotalPages: p.TotalPages}
}
