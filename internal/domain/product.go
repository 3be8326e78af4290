package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// --- Interfaces ---

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductStatus string

const (
	StatusActive   ProductStatus = "ACTIVE"
	StatusDraft    ProductStatus = "DRAFT"
	StatusArchived ProductStatus = "ARCHIVED"
)

type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	BrandID    *int64          `json:"brandId"`
	CategoryID *int64          `json:"categoryId"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	Status     ProductStatus   `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Variants   []Variant       `json:"variants"`
}

type Variant struct {
	ID                      int64               `json:"id"`
	ProductID               int64               `json:"productId"`
	SKU                     string              `json:"sku"`
	Price                   decimal.Decimal     `json:"price"`
	SalePrice               decimal.NullDecimal `json:"salePrice"`
	Status                  ProductStatus       `json:"status"`
	AttributeCache          AttributeCache      `json:"attributeCache"`
	AttributeCacheUpdatedAt *time.Time          `json:"attributeCacheUpdatedAt,omitempty"`
}

// EffectivePrice is the sale price when one is set and positive, else the list price.
func (v Variant) EffectivePrice() decimal.Decimal {
	if v.SalePrice.Valid && v.SalePrice.Decimal.IsPositive() {
		return v.SalePrice.Decimal
	}
	return v.Price
}

// VariantRef identifies a variant and its owning product.
type VariantRef struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"productId"`
}

type VariantRepository interface {
	GetVariantRef(ctx context.Context, id int64) (*VariantRef, error)
	// LockVariant takes a row lock; it must run inside a transaction.
	LockVariant(ctx context.Context, id int64) (*VariantRef, error)
	// LockProductVariants locks and returns the ids of every variant of the product.
	LockProductVariants(ctx context.Context, productID int64) ([]int64, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	// ListProductIDsAfter is a keyset walk over product ids in ascending order.
	ListProductIDsAfter(ctx context.Context, afterID int64, limit int) ([]int64, error)
	GetAttributeCache(ctx context.Context, variantID int64) (AttributeCache, *time.Time, error)
	SaveAttributeCache(ctx context.Context, variantID int64, cache AttributeCache) error
	ListVariantsByProductIDs(ctx context.Context, productIDs []int64) ([]Variant, error)
}

// RebuildStats reports what a bulk cache rebuild touched.
type RebuildStats struct {
	Products int `json:"products"`
	Variants int `json:"variants"`
	Failed   int `json:"failed"`
}

type CacheSyncUsecase interface {
	RebuildOne(ctx context.Context, variantID int64) (AttributeCache, error)
	RebuildForProduct(ctx context.Context, productID int64) (int, error)
	RebuildAll(ctx context.Context) (RebuildStats, error)
	GetCache(ctx context.Context, variantID int64) (AttributeCache, *time.Time, error)
}
