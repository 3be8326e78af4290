package pgrepo

import (
	"database/sql/driver"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var dialect = goqu.Dialect("postgres")

const (
	ProductsTableName              = "products"
	ProductsTableIDColName         = "id"
	ProductsTableNameColName       = "name"
	ProductsTableSlugColName       = "slug"
	ProductsTableBrandIDColName    = "brand_id"
	ProductsTableCategoryIDColName = "category_id"
	ProductsTableBasePriceColName  = "base_price"
	ProductsTableStatusColName     = "status"
	ProductsTableCreatedAtColName  = "created_at"
	ProductsTableUpdatedAtColName  = "updated_at"

	VariantsTableName                = "product_variants"
	VariantsTableIDColName           = "id"
	VariantsTableProductIDColName    = "product_id"
	VariantsTablePriceColName        = "price"
	VariantsTableSalePriceColName    = "sale_price"
	VariantsTableStatusColName       = "status"
	VariantsTableAttrCacheColName    = "attribute_cache"
	VariantsTableAttrCacheUpdatedCol = "attribute_cache_updated_at"
)

var (
	ProductsTable              = goqu.T(ProductsTableName)
	ProductsTableIDCol         = ProductsTable.Col(ProductsTableIDColName)
	ProductsTableNameCol       = ProductsTable.Col(ProductsTableNameColName)
	ProductsTableSlugCol       = ProductsTable.Col(ProductsTableSlugColName)
	ProductsTableBrandIDCol    = ProductsTable.Col(ProductsTableBrandIDColName)
	ProductsTableCategoryIDCol = ProductsTable.Col(ProductsTableCategoryIDColName)
	ProductsTableBasePriceCol  = ProductsTable.Col(ProductsTableBasePriceColName)
	ProductsTableStatusCol     = ProductsTable.Col(ProductsTableStatusColName)
	ProductsTableCreatedAtCol  = ProductsTable.Col(ProductsTableCreatedAtColName)
	ProductsTableUpdatedAtCol  = ProductsTable.Col(ProductsTableUpdatedAtColName)

	VariantsTable             = goqu.T(VariantsTableName)
	VariantsTableIDCol        = VariantsTable.Col(VariantsTableIDColName)
	VariantsTableProductIDCol = VariantsTable.Col(VariantsTableProductIDColName)
	VariantsTablePriceCol     = VariantsTable.Col(VariantsTablePriceColName)
	VariantsTableSalePriceCol = VariantsTable.Col(VariantsTableSalePriceColName)
	VariantsTableStatusCol    = VariantsTable.Col(VariantsTableStatusColName)
	VariantsTableAttrCacheCol = VariantsTable.Col(VariantsTableAttrCacheColName)
)

var productColumns = []interface{}{
	ProductsTableIDCol, ProductsTableNameCol, ProductsTableSlugCol, ProductsTableBrandIDCol,
	ProductsTableCategoryIDCol, ProductsTableBasePriceCol, ProductsTableStatusCol,
	ProductsTableCreatedAtCol, ProductsTableUpdatedAtCol,
}

// idArray binds a whole id list as one bigint[] parameter ("{1,2,3}").
// goqu expands plain slices into IN lists, which would cost one parameter per id.
type idArray []int64

func (a idArray) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte('}')
	return b.String(), nil
}
