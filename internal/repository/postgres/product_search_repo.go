package pgrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/logger"
	"catalog-backend/pkg/pagination"
)

type productSearchRepository struct {
	db DBTX
}

func NewProductSearchRepository(db DBTX) domain.ProductSearchRepository {
	return &productSearchRepository{db: db}
}

func (r *productSearchRepository) FindProductIDsByAttributes(ctx context.Context, match domain.AttributeMatch, limit int) ([]int64, error) {
	sql, args, err := buildFindByAttributesQuery(match, limit)
	if err != nil {
		return nil, err
	}
	return r.queryIDs(ctx, sql, args...)
}

func (r *productSearchRepository) FilterProductIDsByPrice(ctx context.Context, ids []int64, price domain.NumericRange) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	if price.IsOpen() {
		return ids, nil
	}
	sql, args, err := buildFilterByPriceQuery(ids, price)
	if err != nil {
		return nil, err
	}
	return r.queryIDs(ctx, sql, args...)
}

func (r *productSearchRepository) queryIDs(ctx context.Context, sql string, args ...any) ([]int64, error) {
	logger.WithContext(ctx).Debug().Str("query", sql).Msg("search ids")
	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query product ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product ids: %w", err)
	}
	return ids, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.BrandID, &p.CategoryID, &p.BasePrice, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *productSearchRepository) queryProducts(ctx context.Context, sql string, args ...any) ([]domain.Product, error) {
	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// GetProductsByIDs loads products ordered the same way as SearchProducts.
func (r *productSearchRepository) GetProductsByIDs(ctx context.Context, ids []int64, sort pagination.Sort) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	sql, args, err := buildProductsByIDsQuery(ids, sort)
	if err != nil {
		return nil, err
	}
	return r.queryProducts(ctx, sql, args...)
}

func (r *productSearchRepository) SearchProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int64, error) {
	pageSQL, pageArgs, countSQL, countArgs, err := buildSearchQueries(q)
	if err != nil {
		return nil, 0, err
	}
	logger.WithContext(ctx).Debug().Str("query", pageSQL).Msg("search products")

	var total int64
	if err := conn(ctx, r.db).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	if total == 0 || q.Offset < 0 || int64(q.Offset) >= total {
		return []domain.Product{}, total, nil
	}

	products, err := r.queryProducts(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}
