package usecase

import (
	"context"
	"slices"
	"time"

	"catalog-backend/config"
	"catalog-backend/internal/domain"
	"catalog-backend/pkg/logger"
	"catalog-backend/pkg/pagination"
)

// DefinitionSource resolves attribute keys to their definitions.
type DefinitionSource interface {
	DefinitionsByKey(ctx context.Context) (map[string]domain.Attribute, error)
}

type searchUsecase struct {
	repo          domain.ProductSearchRepository
	variants      domain.VariantRepository
	definitions   DefinitionSource
	timeout       time.Duration
	defaultSize   int
	maxSize       int
	maxCandidates int
}

func NewSearchUsecase(repo domain.ProductSearchRepository, variants domain.VariantRepository, definitions DefinitionSource, cfg *config.Config) domain.SearchUsecase {
	return &searchUsecase{
		repo:          repo,
		variants:      variants,
		definitions:   definitions,
		timeout:       cfg.SearchTimeout,
		defaultSize:   cfg.SearchDefaultPageSize,
		maxSize:       cfg.SearchMaxPageSize,
		maxCandidates: cfg.SearchMaxCandidateIDs,
	}
}

// Search answers a storefront query with one page of active products, each
// hydrated with its variants.
func (u *searchUsecase) Search(ctx context.Context, f domain.ProductSearchFilter, req pagination.Request) (pagination.Page[domain.Product], error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	req = u.normalizeRequest(req)
	f = u.normalizeFilter(ctx, f)

	plan := choosePlan(f)
	start := time.Now()
	page, err := plan.execute(ctx, u, f, req)
	if err != nil {
		return pagination.Page[domain.Product]{}, err
	}
	if err := u.hydrateVariants(ctx, page.Content); err != nil {
		return pagination.Page[domain.Product]{}, err
	}

	logger.WithContext(ctx).Debug().
		Str("strategy", plan.name()).
		Int("page", req.Page).
		Int("size", req.Size).
		Int64("total", page.TotalElements).
		Dur("duration", time.Since(start)).
		Msg("Product search")
	return page, nil
}

func (u *searchUsecase) normalizeRequest(req pagination.Request) pagination.Request {
	if !slices.Contains(domain.ProductSortFields, req.Sort.Field) {
		req.Sort = pagination.Sort{Field: domain.SortCreatedAt, Direction: pagination.Desc}
	}
	return req.Normalize(u.defaultSize, u.maxSize)
}

// normalizeFilter merges the raw attrs/ranges parameters into the filter.
// Malformed parameters are logged and ignored. Storefront search only sees
// active products.
func (u *searchUsecase) normalizeFilter(ctx context.Context, f domain.ProductSearchFilter) domain.ProductSearchFilter {
	log := logger.WithContext(ctx)
	f.Status = domain.StatusActive

	if f.AttrsParam != "" {
		values, err := ParseAttributeFilter(f.AttrsParam)
		if err != nil {
			log.Warn().Err(err).Str("attrs", f.AttrsParam).Msg("Ignoring malformed attribute filter")
		} else {
			f.Attributes = mergeMaps(f.Attributes, values)
		}
	}
	if f.RangesParam != "" {
		ranges, err := ParseRangeFilter(f.RangesParam)
		if err != nil {
			log.Warn().Err(err).Str("ranges", f.RangesParam).Msg("Ignoring malformed range filter")
		} else {
			f.Ranges = mergeMaps(f.Ranges, ranges)
		}
	}
	f.AttrsParam, f.RangesParam = "", ""

	if len(f.Attributes) > 0 && u.definitions != nil {
		defs, err := u.definitions.DefinitionsByKey(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Attribute definitions unavailable, filtering verbatim")
		} else {
			f.Attributes = normalizeAttributeValues(f.Attributes, defs)
		}
	}
	return f
}

// candidates runs the cache lookup and intersects with the price range. overflow
// reports that more than maxCandidates products matched.
func (u *searchUsecase) candidates(ctx context.Context, f domain.ProductSearchFilter) ([]int64, bool, error) {
	limit := 0
	if u.maxCandidates > 0 {
		limit = u.maxCandidates + 1
	}
	ids, err := u.repo.FindProductIDsByAttributes(ctx, f.Match(), limit)
	if err != nil {
		return nil, false, err
	}
	if u.maxCandidates > 0 && len(ids) > u.maxCandidates {
		logger.WithContext(ctx).Info().
			Int("limit", u.maxCandidates).
			Msg("Attribute candidates over limit, pushing filter into product query")
		return nil, true, nil
	}
	if len(ids) == 0 || f.Price.IsOpen() {
		return ids, false, nil
	}
	ids, err = u.repo.FilterProductIDsByPrice(ctx, ids, f.Price)
	return ids, false, err
}

func (u *searchUsecase) relational(ctx context.Context, f domain.ProductSearchFilter, req pagination.Request, candidateIDs []int64, match *domain.AttributeMatch, price domain.NumericRange) (pagination.Page[domain.Product], error) {
	q := domain.ProductQuery{
		BrandIDs:     f.BrandIDs,
		CategoryID:   f.CategoryID,
		Status:       f.Status,
		Price:        price,
		CandidateIDs: candidateIDs,
		Match:        match,
		Sort:         req.Sort,
		Limit:        req.Size,
		Offset:       req.Offset(),
	}
	products, total, err := u.repo.SearchProducts(ctx, q)
	if err != nil {
		return pagination.Page[domain.Product]{}, err
	}
	return pagination.FromQuery(products, total, req), nil
}

func (u *searchUsecase) hydrateVariants(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	variants, err := u.variants.ListVariantsByProductIDs(ctx, ids)
	if err != nil {
		return err
	}
	byProduct := make(map[int64][]domain.Variant, len(products))
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
		if products[i].Variants == nil {
			products[i].Variants = []domain.Variant{}
		}
	}
	return nil
}

func mergeMaps[V any](base, extra map[string]V) map[string]V {
	if len(extra) == 0 {
		return base
	}
	out := make(map[string]V, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
