package domain

import (
	"context"

	"github.com/shopspring/decimal"

	"catalog-backend/pkg/pagination"
)

// Sortable product fields accepted by search.
const (
	SortCreatedAt = "createdAt"
	SortName      = "name"
	SortBasePrice = "basePrice"
	SortID        = "id"
)

var ProductSortFields = []string{SortCreatedAt, SortName, SortBasePrice, SortID}

// NumericRange is an inclusive range; an invalid bound is open.
type NumericRange struct {
	Min decimal.NullDecimal `json:"min"`
	Max decimal.NullDecimal `json:"max"`
}

func (r NumericRange) Contains(d decimal.Decimal) bool {
	if r.Min.Valid && d.LessThan(r.Min.Decimal) {
		return false
	}
	if r.Max.Valid && d.GreaterThan(r.Max.Decimal) {
		return false
	}
	return true
}

func (r NumericRange) IsOpen() bool { return !r.Min.Valid && !r.Max.Valid }

// AttributeMatch is the cache-side part of a search: exact tokens and numeric ranges per key.
type AttributeMatch struct {
	Values map[string]string
	Ranges map[string]NumericRange
}

func (m AttributeMatch) IsEmpty() bool { return len(m.Values) == 0 && len(m.Ranges) == 0 }

type ProductSearchFilter struct {
	BrandIDs   []int64
	CategoryID *int64
	Price      NumericRange
	Attributes map[string]string
	Ranges     map[string]NumericRange
	Status     ProductStatus
	// Raw query parameters, parsed by the planner; malformed input is dropped.
	AttrsParam  string
	RangesParam string
}

func (f ProductSearchFilter) Match() AttributeMatch {
	return AttributeMatch{Values: f.Attributes, Ranges: f.Ranges}
}

func (f ProductSearchFilter) HasAttributeConstraints() bool { return !f.Match().IsEmpty() }

func (f ProductSearchFilter) HasRelationalConstraints() bool {
	return len(f.BrandIDs) > 0 || f.CategoryID != nil
}

// ProductQuery is one relational, paginated product query.
// CandidateIDs == nil means unrestricted; Match pushes cache predicates into the query.
type ProductQuery struct {
	BrandIDs     []int64
	CategoryID   *int64
	Status       ProductStatus
	Price        NumericRange
	CandidateIDs []int64
	Match        *AttributeMatch
	Sort         pagination.Sort
	Limit        int
	Offset       int
}

type ProductSearchRepository interface {
	// FindProductIDsByAttributes returns ids of products with an active variant whose
	// cache matches; at most limit ids are returned.
	FindProductIDsByAttributes(ctx context.Context, match AttributeMatch, limit int) ([]int64, error)
	FilterProductIDsByPrice(ctx context.Context, ids []int64, price NumericRange) ([]int64, error)
	GetProductsByIDs(ctx context.Context, ids []int64, sort pagination.Sort) ([]Product, error)
	SearchProducts(ctx context.Context, q ProductQuery) ([]Product, int64, error)
}

type SearchUsecase interface {
	Search(ctx context.Context, filter ProductSearchFilter, req pagination.Request) (pagination.Page[Product], error)
}
