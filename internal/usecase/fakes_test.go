package usecase

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/pagination"
)

// memStore backs every repository interface the usecases need. memTx snapshots
// it on the outermost Do and restores the snapshot when fn fails.
type memStore struct {
	attrs       map[int64]domain.Attribute
	values      map[int64]domain.AttributeValue
	assignments []domain.AttributeAssignment
	products    map[int64]domain.Product
	variants    map[int64]domain.Variant

	nextID    int64
	calls     []string
	queries   []domain.ProductQuery
	byIDSorts []pagination.Sort
	saveErr   map[int64]error
	listErr   error
	txDepth   int
	txCommits int
}

func newMemStore() *memStore {
	return &memStore{
		attrs:    map[int64]domain.Attribute{},
		values:   map[int64]domain.AttributeValue{},
		products: map[int64]domain.Product{},
		variants: map[int64]domain.Variant{},
		saveErr:  map[int64]error{},
		nextID:   1000,
	}
}

func (s *memStore) record(call string) { s.calls = append(s.calls, call) }

func (s *memStore) called(call string) int {
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}
	return n
}

// --- fixtures ---

func (s *memStore) addAttr(id int64, key string, kind domain.AttributeKind, dt domain.DataType) {
	s.attrs[id] = domain.Attribute{ID: id, Key: key, Name: key, Kind: kind, DataType: dt, IsFilterable: true}
}

func (s *memStore) addValue(id, attrID int64, token, display string) {
	s.values[id] = domain.AttributeValue{ID: id, AttributeID: attrID, Value: token, Display: display}
}

func (s *memStore) addProduct(p domain.Product) {
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	s.products[p.ID] = p
}

func (s *memStore) addVariant(v domain.Variant) {
	if v.Status == "" {
		v.Status = domain.StatusActive
	}
	s.variants[v.ID] = v
}

func (s *memStore) assign(a domain.AttributeAssignment) {
	s.nextID++
	a.ID = s.nextID
	s.assignments = append(s.assignments, a)
}

// --- transaction manager ---

type memTx struct{ s *memStore }

type memSnapshot struct {
	attrs       map[int64]domain.Attribute
	values      map[int64]domain.AttributeValue
	assignments []domain.AttributeAssignment
	variants    map[int64]domain.Variant
}

func (t memTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s := t.s
	if s.txDepth > 0 {
		s.txDepth++
		defer func() { s.txDepth-- }()
		return fn(ctx)
	}

	snap := memSnapshot{
		attrs:       maps.Clone(s.attrs),
		values:      maps.Clone(s.values),
		assignments: slices.Clone(s.assignments),
		variants:    maps.Clone(s.variants),
	}
	s.txDepth = 1
	err := fn(ctx)
	s.txDepth = 0
	if err != nil {
		s.attrs, s.values, s.assignments, s.variants = snap.attrs, snap.values, snap.assignments, snap.variants
		return err
	}
	s.txCommits++
	return nil
}

// --- AttributeRepository ---

type memAttributeRepo struct{ s *memStore }

func (r memAttributeRepo) ListAttributes(ctx context.Context, filterableOnly bool) ([]domain.Attribute, error) {
	r.s.record("ListAttributes")
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	var out []domain.Attribute
	for _, id := range sortedKeys(r.s.attrs) {
		a := r.s.attrs[id]
		if filterableOnly && !a.IsFilterable {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r memAttributeRepo) GetAttributeByID(ctx context.Context, id int64) (*domain.Attribute, error) {
	a, ok := r.s.attrs[id]
	if !ok {
		return nil, domain.NewNotFound("attribute", id)
	}
	return &a, nil
}

func (r memAttributeRepo) GetAttributesByIDs(ctx context.Context, ids []int64) ([]domain.Attribute, error) {
	var out []domain.Attribute
	for _, id := range ids {
		if a, ok := r.s.attrs[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAttributeRepo) CreateAttribute(ctx context.Context, attr *domain.Attribute) error {
	for _, a := range r.s.attrs {
		if a.Key == attr.Key {
			return &domain.ConflictError{Entity: "attribute", Detail: attr.Key}
		}
	}
	r.s.nextID++
	attr.ID = r.s.nextID
	r.s.attrs[attr.ID] = *attr
	return nil
}

func (r memAttributeRepo) UpdateAttribute(ctx context.Context, attr *domain.Attribute) error {
	if _, ok := r.s.attrs[attr.ID]; !ok {
		return domain.NewNotFound("attribute", attr.ID)
	}
	r.s.attrs[attr.ID] = *attr
	return nil
}

func (r memAttributeRepo) DeleteAttribute(ctx context.Context, id int64) error {
	if _, ok := r.s.attrs[id]; !ok {
		return domain.NewNotFound("attribute", id)
	}
	delete(r.s.attrs, id)
	return nil
}

func (r memAttributeRepo) ListValues(ctx context.Context, attributeIDs []int64) ([]domain.AttributeValue, error) {
	var out []domain.AttributeValue
	for _, id := range sortedKeys(r.s.values) {
		if v := r.s.values[id]; slices.Contains(attributeIDs, v.AttributeID) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memAttributeRepo) GetValuesByIDs(ctx context.Context, ids []int64) ([]domain.AttributeValue, error) {
	var out []domain.AttributeValue
	for _, id := range ids {
		if v, ok := r.s.values[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memAttributeRepo) GetValueByID(ctx context.Context, id int64) (*domain.AttributeValue, error) {
	v, ok := r.s.values[id]
	if !ok {
		return nil, domain.NewNotFound("attribute value", id)
	}
	return &v, nil
}

func (r memAttributeRepo) CreateValue(ctx context.Context, value *domain.AttributeValue) error {
	r.s.nextID++
	value.ID = r.s.nextID
	r.s.values[value.ID] = *value
	return nil
}

func (r memAttributeRepo) UpdateValue(ctx context.Context, value *domain.AttributeValue) error {
	r.s.values[value.ID] = *value
	return nil
}

func (r memAttributeRepo) DeleteValue(ctx context.Context, id int64) error {
	if _, ok := r.s.values[id]; !ok {
		return domain.NewNotFound("attribute value", id)
	}
	delete(r.s.values, id)
	return nil
}

// --- AssignmentRepository ---

type memAssignmentRepo struct{ s *memStore }

func (r memAssignmentRepo) ListAssignments(ctx context.Context, scope domain.AssignmentScope, ownerID int64) ([]domain.ResolvedAssignment, error) {
	var out []domain.ResolvedAssignment
	for _, a := range r.s.assignments {
		if a.Scope != scope || a.OwnerID() != ownerID {
			continue
		}
		attr := r.s.attrs[a.AttributeID]
		ra := domain.ResolvedAssignment{AttributeAssignment: a, Key: attr.Key, Kind: attr.Kind, DataType: attr.DataType}
		if a.AttributeValueID != nil {
			if v, ok := r.s.values[*a.AttributeValueID]; ok {
				token, display := v.Value, v.Display
				ra.ValueToken, ra.ValueDisplay = &token, &display
			}
		}
		out = append(out, ra)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memAssignmentRepo) InsertAssignments(ctx context.Context, rows []domain.AttributeAssignment) error {
	r.s.record("InsertAssignments")
	for _, row := range rows {
		r.s.assign(row)
	}
	return nil
}

func (r memAssignmentRepo) ReplaceVariantAssignments(ctx context.Context, variantID int64, rows []domain.AttributeAssignment) error {
	r.s.record("ReplaceVariantAssignments")
	kept := r.s.assignments[:0:0]
	for _, a := range r.s.assignments {
		if a.Scope == domain.ScopeVariant && a.OwnerID() == variantID {
			continue
		}
		kept = append(kept, a)
	}
	r.s.assignments = kept
	for _, row := range rows {
		r.s.assign(row)
	}
	return nil
}

func (r memAssignmentRepo) DeleteProductAssignments(ctx context.Context, productID, attributeID int64) (int64, error) {
	r.s.record("DeleteProductAssignments")
	var n int64
	kept := r.s.assignments[:0:0]
	for _, a := range r.s.assignments {
		if a.Scope == domain.ScopeProduct && a.OwnerID() == productID && a.AttributeID == attributeID {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.s.assignments = kept
	return n, nil
}

// --- VariantRepository ---

type memVariantRepo struct{ s *memStore }

func (r memVariantRepo) GetVariantRef(ctx context.Context, id int64) (*domain.VariantRef, error) {
	v, ok := r.s.variants[id]
	if !ok {
		return nil, domain.NewNotFound("variant", id)
	}
	return &domain.VariantRef{ID: v.ID, ProductID: v.ProductID}, nil
}

func (r memVariantRepo) LockVariant(ctx context.Context, id int64) (*domain.VariantRef, error) {
	if r.s.txDepth == 0 {
		return nil, errors.New("lock outside transaction")
	}
	return r.GetVariantRef(ctx, id)
}

func (r memVariantRepo) LockProductVariants(ctx context.Context, productID int64) ([]int64, error) {
	if r.s.txDepth == 0 {
		return nil, errors.New("lock outside transaction")
	}
	var ids []int64
	for _, id := range sortedKeys(r.s.variants) {
		if r.s.variants[id].ProductID == productID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r memVariantRepo) ProductExists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.s.products[id]
	return ok, nil
}

func (r memVariantRepo) ListProductIDsAfter(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	for _, id := range sortedKeys(r.s.products) {
		if id > afterID {
			ids = append(ids, id)
		}
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (r memVariantRepo) GetAttributeCache(ctx context.Context, variantID int64) (domain.AttributeCache, *time.Time, error) {
	v, ok := r.s.variants[variantID]
	if !ok {
		return nil, nil, domain.NewNotFound("variant", variantID)
	}
	return v.AttributeCache, v.AttributeCacheUpdatedAt, nil
}

func (r memVariantRepo) SaveAttributeCache(ctx context.Context, variantID int64, cache domain.AttributeCache) error {
	r.s.record("SaveAttributeCache")
	if err := r.s.saveErr[variantID]; err != nil {
		return err
	}
	v, ok := r.s.variants[variantID]
	if !ok {
		return domain.NewNotFound("variant", variantID)
	}
	now := time.Now()
	v.AttributeCache = cache
	v.AttributeCacheUpdatedAt = &now
	r.s.variants[variantID] = v
	return nil
}

func (r memVariantRepo) ListVariantsByProductIDs(ctx context.Context, productIDs []int64) ([]domain.Variant, error) {
	r.s.record("ListVariantsByProductIDs")
	var out []domain.Variant
	for _, id := range sortedKeys(r.s.variants) {
		if v := r.s.variants[id]; slices.Contains(productIDs, v.ProductID) {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- ProductSearchRepository ---

type memSearchRepo struct{ s *memStore }

func (r memSearchRepo) FindProductIDsByAttributes(ctx context.Context, match domain.AttributeMatch, limit int) ([]int64, error) {
	r.s.record("FindProductIDsByAttributes")
	var ids []int64
	for _, pid := range sortedKeys(r.s.products) {
		if r.anyVariant(pid, func(v domain.Variant) bool { return cacheMatches(v.AttributeCache, match) }) {
			ids = append(ids, pid)
		}
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (r memSearchRepo) FilterProductIDsByPrice(ctx context.Context, ids []int64, price domain.NumericRange) ([]int64, error) {
	r.s.record("FilterProductIDsByPrice")
	var out []int64
	for _, id := range ids {
		if r.anyVariant(id, func(v domain.Variant) bool { return price.Contains(v.EffectivePrice()) }) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r memSearchRepo) GetProductsByIDs(ctx context.Context, ids []int64, sort pagination.Sort) ([]domain.Product, error) {
	r.s.record("GetProductsByIDs")
	r.s.byIDSorts = append(r.s.byIDSorts, sort)
	var out []domain.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	sortProducts(out, sort)
	return out, nil
}

func (r memSearchRepo) SearchProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int64, error) {
	r.s.record("SearchProducts")
	r.s.queries = append(r.s.queries, q)

	var all []domain.Product
	for _, id := range sortedKeys(r.s.products) {
		p := r.s.products[id]
		switch {
		case q.Status != "" && p.Status != q.Status:
			continue
		case len(q.BrandIDs) > 0 && (p.BrandID == nil || !slices.Contains(q.BrandIDs, *p.BrandID)):
			continue
		case q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID):
			continue
		case q.CandidateIDs != nil && !slices.Contains(q.CandidateIDs, p.ID):
			continue
		case q.Match != nil && !r.anyVariant(p.ID, func(v domain.Variant) bool { return cacheMatches(v.AttributeCache, *q.Match) }):
			continue
		case !q.Price.IsOpen() && !r.anyVariant(p.ID, func(v domain.Variant) bool { return q.Price.Contains(v.EffectivePrice()) }):
			continue
		}
		all = append(all, p)
	}
	sortProducts(all, q.Sort)

	page := pagination.FromSlice(all, pagination.Request{Page: q.Offset / max(q.Limit, 1), Size: q.Limit})
	return page.Content, page.TotalElements, nil
}

func (r memSearchRepo) anyVariant(productID int64, pred func(domain.Variant) bool) bool {
	for _, v := range r.s.variants {
		if v.ProductID == productID && v.Status == domain.StatusActive && pred(v) {
			return true
		}
	}
	return false
}

func cacheMatches(cache domain.AttributeCache, match domain.AttributeMatch) bool {
	for key, want := range match.Values {
		got, ok := cache[key]
		if !ok || got.Entry().Value != want {
			return false
		}
	}
	for key, r := range match.Ranges {
		got, ok := cache[key]
		if !ok || !got.Entry().Number.Valid || !r.Contains(got.Entry().Number.Decimal) {
			return false
		}
	}
	return true
}

// --- helpers ---

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

// sortProducts stands in for ORDER BY: the sort field, then id in the same direction.
func sortProducts(products []domain.Product, s pagination.Sort) {
	desc := s.Direction == pagination.Desc
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		c := compareProducts(a, b, s.Field)
		if c == 0 {
			switch {
			case a.ID < b.ID:
				c = -1
			case a.ID > b.ID:
				c = 1
			}
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareProducts(a, b domain.Product, field string) int {
	switch field {
	case domain.SortName:
		return strings.Compare(a.Name, b.Name)
	case domain.SortBasePrice:
		return a.BasePrice.Cmp(b.BasePrice)
	case domain.SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}
