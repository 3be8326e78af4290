package pgrepo

import (
	"fmt"
	"sort"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/goccy/go-json"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/pagination"
)

var productSortColumns = map[string]exp.IdentifierExpression{
	domain.SortCreatedAt: ProductsTableCreatedAtCol,
	domain.SortName:      ProductsTableNameCol,
	domain.SortBasePrice: ProductsTableBasePriceCol,
	domain.SortID:        ProductsTableIDCol,
}

// containmentDocument renders {"key":{"value":"token"},...} for a single @> test.
func containmentDocument(values map[string]string) (string, error) {
	doc := make(map[string]map[string]string, len(values))
	for k, v := range values {
		doc[k] = map[string]string{"value": v}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode containment document: %w", err)
	}
	return string(b), nil
}

func effectivePriceExpr() exp.CaseExpression {
	return goqu.Case().
		When(VariantsTableSalePriceCol.Gt(0), VariantsTableSalePriceCol).
		Else(VariantsTablePriceCol)
}

// priceExprs bounds the effective variant price, inclusive on both ends.
func priceExprs(price domain.NumericRange) []exp.Expression {
	var out []exp.Expression
	if price.Min.Valid {
		out = append(out, goqu.L("? >= ?::numeric", effectivePriceExpr(), price.Min.Decimal))
	}
	if price.Max.Valid {
		out = append(out, goqu.L("? <= ?::numeric", effectivePriceExpr(), price.Max.Decimal))
	}
	return out
}

// attributeMatchExprs builds the cache predicates for product_variants rows.
func attributeMatchExprs(match domain.AttributeMatch) ([]exp.Expression, error) {
	var out []exp.Expression
	if len(match.Values) > 0 {
		doc, err := containmentDocument(match.Values)
		if err != nil {
			return nil, err
		}
		out = append(out, goqu.L("? @> ?::jsonb", VariantsTableAttrCacheCol, doc))
	}

	keys := make([]string, 0, len(match.Ranges))
	for k := range match.Ranges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		r := match.Ranges[key]
		numeric := goqu.L("(? -> ?::text ->> 'numericValue')::numeric", VariantsTableAttrCacheCol, key)
		if r.Min.Valid {
			out = append(out, goqu.L("? >= ?::numeric", numeric, r.Min.Decimal))
		}
		if r.Max.Valid {
			out = append(out, goqu.L("? <= ?::numeric", numeric, r.Max.Decimal))
		}
		if r.IsOpen() {
			out = append(out, goqu.L("? IS NOT NULL", numeric))
		}
	}
	return out, nil
}

func activeVariantExpr() exp.Expression {
	return VariantsTableStatusCol.Eq(string(domain.StatusActive))
}

// buildFindByAttributesQuery selects distinct product ids with a matching active variant.
func buildFindByAttributesQuery(match domain.AttributeMatch, limit int) (string, []interface{}, error) {
	preds, err := attributeMatchExprs(match)
	if err != nil {
		return "", nil, err
	}
	ds := dialect.From(VariantsTable).Prepared(true).
		Select(VariantsTableProductIDCol).
		Distinct().
		Where(append([]exp.Expression{activeVariantExpr()}, preds...)...).
		Order(VariantsTableProductIDCol.Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return ds.ToSQL()
}

func buildFilterByPriceQuery(ids []int64, price domain.NumericRange) (string, []interface{}, error) {
	where := []exp.Expression{
		goqu.L("? = ANY(?::bigint[])", VariantsTableProductIDCol, idArray(ids)),
		activeVariantExpr(),
	}
	where = append(where, priceExprs(price)...)
	return dialect.From(VariantsTable).Prepared(true).
		Select(VariantsTableProductIDCol).
		Distinct().
		Where(where...).
		Order(VariantsTableProductIDCol.Asc()).
		ToSQL()
}

// variantExists correlates an EXISTS subquery on product_variants with products.id.
func variantExists(preds []exp.Expression) exp.Expression {
	where := append([]exp.Expression{
		VariantsTableProductIDCol.Eq(ProductsTableIDCol),
		activeVariantExpr(),
	}, preds...)
	sub := dialect.From(VariantsTable).Select(goqu.L("1")).Where(where...)
	return goqu.L("EXISTS ?", sub)
}

func productSearchDataset(q domain.ProductQuery) (*goqu.SelectDataset, error) {
	var where []exp.Expression
	if q.Status != "" {
		where = append(where, ProductsTableStatusCol.Eq(string(q.Status)))
	}
	if len(q.BrandIDs) > 0 {
		where = append(where, goqu.L("? = ANY(?::bigint[])", ProductsTableBrandIDCol, idArray(q.BrandIDs)))
	}
	if q.CategoryID != nil {
		where = append(where, ProductsTableCategoryIDCol.Eq(*q.CategoryID))
	}
	if q.CandidateIDs != nil {
		if len(q.CandidateIDs) == 0 {
			where = append(where, goqu.L("FALSE"))
		} else {
			where = append(where, goqu.L("? = ANY(?::bigint[])", ProductsTableIDCol, idArray(q.CandidateIDs)))
		}
	}
	if q.Match != nil && !q.Match.IsEmpty() {
		preds, err := attributeMatchExprs(*q.Match)
		if err != nil {
			return nil, err
		}
		where = append(where, variantExists(preds))
	}
	if !q.Price.IsOpen() {
		where = append(where, variantExists(priceExprs(q.Price)))
	}
	return dialect.From(ProductsTable).Prepared(true).Where(where...), nil
}

func sortExprs(s pagination.Sort) []exp.OrderedExpression {
	col, ok := productSortColumns[s.Field]
	if !ok {
		col = ProductsTableCreatedAtCol
	}
	if s.Direction == pagination.Asc {
		if col == ProductsTableIDCol {
			return []exp.OrderedExpression{col.Asc()}
		}
		return []exp.OrderedExpression{col.Asc(), ProductsTableIDCol.Asc()}
	}
	if col == ProductsTableIDCol {
		return []exp.OrderedExpression{col.Desc()}
	}
	return []exp.OrderedExpression{col.Desc(), ProductsTableIDCol.Desc()}
}

func buildProductsByIDsQuery(ids []int64, s pagination.Sort) (string, []interface{}, error) {
	sql, args, err := dialect.From(ProductsTable).Prepared(true).
		Select(productColumns...).
		Where(goqu.L("? = ANY(?::bigint[])", ProductsTableIDCol, idArray(ids))).
		Order(sortExprs(s)...).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build products by ids query: %w", err)
	}
	return sql, args, nil
}

// buildSearchQueries returns the page query and its count query.
func buildSearchQueries(q domain.ProductQuery) (pageSQL string, pageArgs []interface{}, countSQL string, countArgs []interface{}, err error) {
	ds, err := productSearchDataset(q)
	if err != nil {
		return "", nil, "", nil, err
	}

	page := ds.Select(productColumns...).Order(sortExprs(q.Sort)...)
	if q.Limit > 0 {
		page = page.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		page = page.Offset(uint(q.Offset))
	}
	if pageSQL, pageArgs, err = page.ToSQL(); err != nil {
		return "", nil, "", nil, fmt.Errorf("build search query: %w", err)
	}
	if countSQL, countArgs, err = ds.Select(goqu.COUNT(goqu.Star())).ToSQL(); err != nil {
		return "", nil, "", nil, fmt.Errorf("build count query: %w", err)
	}
	return pageSQL, pageArgs, countSQL, countArgs, nil
}
