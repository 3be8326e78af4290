package pgrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"catalog-backend/internal/domain"
)

type variantRepository struct {
	db DBTX
}

func NewVariantRepository(db DBTX) domain.VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) GetVariantRef(ctx context.Context, id int64) (*domain.VariantRef, error) {
	var ref domain.VariantRef
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT id, product_id FROM product_variants WHERE id = $1`, id).
		Scan(&ref.ID, &ref.ProductID)
	if err != nil {
		return nil, mapError(err, "variant", id)
	}
	return &ref, nil
}

func (r *variantRepository) LockVariant(ctx context.Context, id int64) (*domain.VariantRef, error) {
	var ref domain.VariantRef
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT id, product_id FROM product_variants WHERE id = $1 FOR UPDATE`, id).
		Scan(&ref.ID, &ref.ProductID)
	if err != nil {
		return nil, mapError(err, "variant", id)
	}
	return &ref, nil
}

func (r *variantRepository) LockProductVariants(ctx context.Context, productID int64) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT id FROM product_variants WHERE product_id = $1 ORDER BY id FOR UPDATE`, productID)
}

func (r *variantRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}
	return exists, nil
}

func (r *variantRepository) ListProductIDsAfter(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT id FROM products WHERE id > $1 ORDER BY id LIMIT $2`, afterID, limit)
}

func (r *variantRepository) queryIDs(ctx context.Context, sql string, args ...any) ([]int64, error) {
	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *variantRepository) GetAttributeCache(ctx context.Context, variantID int64) (domain.AttributeCache, *time.Time, error) {
	var (
		raw       []byte
		updatedAt *time.Time
	)
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT attribute_cache, attribute_cache_updated_at FROM product_variants WHERE id = $1`, variantID).
		Scan(&raw, &updatedAt)
	if err != nil {
		return nil, nil, mapError(err, "variant", variantID)
	}
	cache, err := decodeCache(raw)
	if err != nil {
		return nil, nil, err
	}
	return cache, updatedAt, nil
}

// SaveAttributeCache replaces the whole map in one statement.
func (r *variantRepository) SaveAttributeCache(ctx context.Context, variantID int64, cache domain.AttributeCache) error {
	payload, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("encode attribute cache: %w", err)
	}
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE product_variants SET attribute_cache = $2::jsonb, attribute_cache_updated_at = NOW() WHERE id = $1`,
		variantID, string(payload))
	if err != nil {
		return fmt.Errorf("save attribute cache: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("variant", variantID)
	}
	return nil
}

func (r *variantRepository) ListVariantsByProductIDs(ctx context.Context, productIDs []int64) ([]domain.Variant, error) {
	if len(productIDs) == 0 {
		return []domain.Variant{}, nil
	}
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT id, product_id, sku, price, sale_price, status, attribute_cache, attribute_cache_updated_at
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, id`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	variants := []domain.Variant{}
	for rows.Next() {
		var (
			v   domain.Variant
			raw []byte
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.SalePrice, &v.Status, &raw, &v.AttributeCacheUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		if v.AttributeCache, err = decodeCache(raw); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return variants, nil
}

func decodeCache(raw []byte) (domain.AttributeCache, error) {
	cache := domain.AttributeCache{}
	if len(raw) == 0 {
		return cache, nil
	}
	if err := json.Unmarshal(raw, &cache); err != nil {
		return nil, err
	}
	return cache, nil
}
