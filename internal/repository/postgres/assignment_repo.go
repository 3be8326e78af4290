package pgrepo

import (
	"context"
	"fmt"
	"strings"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/logger"
)

type assignmentRepository struct {
	db DBTX
}

func NewAssignmentRepository(db DBTX) domain.AssignmentRepository {
	return &assignmentRepository{db: db}
}

const assignmentSelect = `SELECT pa.id, pa.attribute_id, pa.scope, pa.product_id, pa.variant_id,
	pa.attribute_value_id, pa.custom_value, pa.numeric_value, pa.display_order, pa.is_primary, pa.created_at,
	a.key, a.kind, a.data_type, av.value, av.display
FROM product_attributes pa
JOIN attributes a ON a.id = pa.attribute_id
LEFT JOIN attribute_values av ON av.id = pa.attribute_value_id
WHERE pa.scope = $1 AND pa.%s = $2
ORDER BY pa.display_order, pa.id`

func ownerColumn(scope domain.AssignmentScope) string {
	if scope == domain.ScopeVariant {
		return "variant_id"
	}
	return "product_id"
}

func (r *assignmentRepository) ListAssignments(ctx context.Context, scope domain.AssignmentScope, ownerID int64) ([]domain.ResolvedAssignment, error) {
	query := fmt.Sprintf(assignmentSelect, ownerColumn(scope))
	rows, err := conn(ctx, r.db).Query(ctx, query, string(scope), ownerID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	out := []domain.ResolvedAssignment{}
	for rows.Next() {
		var ra domain.ResolvedAssignment
		if err := rows.Scan(
			&ra.ID, &ra.AttributeID, &ra.Scope, &ra.ProductID, &ra.VariantID,
			&ra.AttributeValueID, &ra.CustomValue, &ra.NumericValue, &ra.DisplayOrder, &ra.IsPrimary, &ra.CreatedAt,
			&ra.Key, &ra.Kind, &ra.DataType, &ra.ValueToken, &ra.ValueDisplay,
		); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, nil
}

const (
	assignmentInsertColumns = 9
	assignmentBatchSize     = 500
)

func buildAssignmentValues(rows []domain.AttributeAssignment) (string, []any) {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*assignmentInsertColumns)
	for idx, row := range rows {
		base := idx*assignmentInsertColumns + 1
		placeholders := make([]string, assignmentInsertColumns)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", base+i)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			row.AttributeID,
			string(row.Scope),
			row.ProductID,
			row.VariantID,
			row.AttributeValueID,
			row.CustomValue,
			row.NumericValue,
			row.DisplayOrder,
			row.IsPrimary,
		)
	}
	return strings.Join(values, ", "), args
}

// InsertAssignments writes rows in multi-row batches.
func (r *assignmentRepository) InsertAssignments(ctx context.Context, rows []domain.AttributeAssignment) error {
	q := conn(ctx, r.db)
	for i := 0; i < len(rows); i += assignmentBatchSize {
		end := i + assignmentBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		valuesClause, args := buildAssignmentValues(rows[i:end])
		query := `INSERT INTO product_attributes (attribute_id, scope, product_id, variant_id, attribute_value_id,
	custom_value, numeric_value, display_order, is_primary) VALUES ` + valuesClause
		logger.WithContext(ctx).Debug().Int("rows", end-i).Msg("insert attribute assignments")
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return mapError(fmt.Errorf("insert attribute assignments: %w", err), "attribute assignment", nil)
		}
	}
	return nil
}

// ReplaceVariantAssignments deletes every VARIANT row of the variant and inserts rows.
func (r *assignmentRepository) ReplaceVariantAssignments(ctx context.Context, variantID int64, rows []domain.AttributeAssignment) error {
	if _, err := conn(ctx, r.db).Exec(ctx,
		`DELETE FROM product_attributes WHERE scope = $1 AND variant_id = $2`,
		string(domain.ScopeVariant), variantID); err != nil {
		return fmt.Errorf("delete existing variant assignments: %w", err)
	}
	return r.InsertAssignments(ctx, rows)
}

func (r *assignmentRepository) DeleteProductAssignments(ctx context.Context, productID, attributeID int64) (int64, error) {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`DELETE FROM product_attributes WHERE scope = $1 AND product_id = $2 AND attribute_id = $3`,
		string(domain.ScopeProduct), productID, attributeID)
	if err != nil {
		return 0, fmt.Errorf("delete product assignments: %w", err)
	}
	return tag.RowsAffected(), nil
}
