package usecase

import (
	"context"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/pagination"
)

// searchPlan is one execution strategy. The set is closed.
type searchPlan interface {
	name() string
	execute(ctx context.Context, u *searchUsecase, f domain.ProductSearchFilter, req pagination.Request) (pagination.Page[domain.Product], error)
}

// basicOnlyPlan: no attribute constraints, one relational query.
type basicOnlyPlan struct{}

// attributeOnlyPlan: cache lookup, load the candidates in sort order, then
// filter status and page in memory.
type attributeOnlyPlan struct{}

// combinedPlan: cache lookup, then a relational query restricted to the candidates.
type combinedPlan struct{}

func choosePlan(f domain.ProductSearchFilter) searchPlan {
	switch {
	case !f.HasAttributeConstraints():
		return basicOnlyPlan{}
	case f.HasRelationalConstraints():
		return combinedPlan{}
	default:
		return attributeOnlyPlan{}
	}
}

func (basicOnlyPlan) name() string     { return "basic" }
func (attributeOnlyPlan) name() string { return "attribute" }
func (combinedPlan) name() string      { return "combined" }

func (basicOnlyPlan) execute(ctx context.Context, u *searchUsecase, f domain.ProductSearchFilter, req pagination.Request) (pagination.Page[domain.Product], error) {
	return u.relational(ctx, f, req, nil, nil, f.Price)
}

func (attributeOnlyPlan) execute(ctx context.Context, u *searchUsecase, f domain.ProductSearchFilter, req pagination.Request) (pagination.Page[domain.Product], error) {
	ids, overflow, err := u.candidates(ctx, f)
	if err != nil {
		return pagination.Page[domain.Product]{}, err
	}
	if overflow {
		return pushdown(ctx, u, f, req)
	}
	if len(ids) == 0 {
		return pagination.Empty[domain.Product](req), nil
	}

	// ordered by the database so collation matches the relational plans
	products, err := u.repo.GetProductsByIDs(ctx, ids, req.Sort)
	if err != nil {
		return pagination.Page[domain.Product]{}, err
	}
	kept := products[:0]
	for _, p := range products {
		if f.Status == "" || p.Status == f.Status {
			kept = append(kept, p)
		}
	}
	return pagination.FromSlice(kept, req), nil
}

func (combinedPlan) execute(ctx context.Context, u *searchUsecase, f domain.ProductSearchFilter, req pagination.Request) (pagination.Page[domain.Product], error) {
	ids, overflow, err := u.candidates(ctx, f)
	if err != nil {
		return pagination.Page[domain.Product]{}, err
	}
	if overflow {
		return pushdown(ctx, u, f, req)
	}
	if len(ids) == 0 {
		return pagination.Empty[domain.Product](req), nil
	}
	// candidates already satisfy the price range
	return u.relational(ctx, f, req, ids, nil, domain.NumericRange{})
}

// pushdown answers an over-large candidate set with one query carrying the
// cache predicates.
func pushdown(ctx context.Context, u *searchUsecase, f domain.ProductSearchFilter, req pagination.Request) (pagination.Page[domain.Product], error) {
	match := f.Match()
	return u.relational(ctx, f, req, nil, &match, f.Price)
}
