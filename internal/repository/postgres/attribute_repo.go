package pgrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"catalog-backend/internal/domain"
)

type attributeRepository struct {
	db DBTX
}

func NewAttributeRepository(db DBTX) domain.AttributeRepository {
	return &attributeRepository{db: db}
}

const attributeColumns = `id, key, name, description, kind, data_type, is_filterable, is_searchable,
	is_required, is_variant_specific, display_order, created_at, updated_at`

const valueColumns = `id, attribute_id, value, display, color_code, image_url, is_default, display_order, created_at`

func scanAttribute(row pgx.Row) (domain.Attribute, error) {
	var a domain.Attribute
	err := row.Scan(
		&a.ID, &a.Key, &a.Name, &a.Description, &a.Kind, &a.DataType,
		&a.IsFilterable, &a.IsSearchable, &a.IsRequired, &a.IsVariantSpecific,
		&a.DisplayOrder, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func scanValue(row pgx.Row) (domain.AttributeValue, error) {
	var v domain.AttributeValue
	err := row.Scan(
		&v.ID, &v.AttributeID, &v.Value, &v.Display, &v.ColorCode, &v.ImageURL,
		&v.IsDefault, &v.DisplayOrder, &v.CreatedAt,
	)
	return v, err
}

func (r *attributeRepository) queryAttributes(ctx context.Context, sql string, args ...any) ([]domain.Attribute, error) {
	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	attrs := []domain.Attribute{}
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}
	return attrs, nil
}

func (r *attributeRepository) queryValues(ctx context.Context, sql string, args ...any) ([]domain.AttributeValue, error) {
	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query attribute values: %w", err)
	}
	defer rows.Close()

	values := []domain.AttributeValue{}
	for rows.Next() {
		v, err := scanValue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attribute value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attribute values: %w", err)
	}
	return values, nil
}

// attachValues fills Values on each attribute with one extra query.
func (r *attributeRepository) attachValues(ctx context.Context, attrs []domain.Attribute) error {
	if len(attrs) == 0 {
		return nil
	}
	ids := make([]int64, len(attrs))
	for i, a := range attrs {
		ids[i] = a.ID
	}
	values, err := r.ListValues(ctx, ids)
	if err != nil {
		return err
	}
	byAttr := make(map[int64][]domain.AttributeValue, len(attrs))
	for _, v := range values {
		byAttr[v.AttributeID] = append(byAttr[v.AttributeID], v)
	}
	for i := range attrs {
		attrs[i].Values = byAttr[attrs[i].ID]
		if attrs[i].Values == nil {
			attrs[i].Values = []domain.AttributeValue{}
		}
	}
	return nil
}

func (r *attributeRepository) ListAttributes(ctx context.Context, filterableOnly bool) ([]domain.Attribute, error) {
	attrs, err := r.queryAttributes(ctx,
		`SELECT `+attributeColumns+` FROM attributes
		WHERE ($1 = FALSE OR is_filterable = TRUE)
		ORDER BY display_order, id`, filterableOnly)
	if err != nil {
		return nil, err
	}
	if err := r.attachValues(ctx, attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (r *attributeRepository) GetAttributeByID(ctx context.Context, id int64) (*domain.Attribute, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+attributeColumns+` FROM attributes WHERE id = $1`, id)
	a, err := scanAttribute(row)
	if err != nil {
		return nil, mapError(err, "attribute", id)
	}
	attrs := []domain.Attribute{a}
	if err := r.attachValues(ctx, attrs); err != nil {
		return nil, err
	}
	return &attrs[0], nil
}

func (r *attributeRepository) GetAttributesByIDs(ctx context.Context, ids []int64) ([]domain.Attribute, error) {
	if len(ids) == 0 {
		return []domain.Attribute{}, nil
	}
	return r.queryAttributes(ctx, `SELECT `+attributeColumns+` FROM attributes WHERE id = ANY($1)`, ids)
}

func (r *attributeRepository) CreateAttribute(ctx context.Context, a *domain.Attribute) error {
	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO attributes (key, name, description, kind, data_type, is_filterable, is_searchable,
			is_required, is_variant_specific, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		a.Key, a.Name, a.Description, string(a.Kind), string(a.DataType), a.IsFilterable, a.IsSearchable,
		a.IsRequired, a.IsVariantSpecific, a.DisplayOrder,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapError(err, "attribute", a.Key)
	}
	return nil
}

// UpdateAttribute never touches key.
func (r *attributeRepository) UpdateAttribute(ctx context.Context, a *domain.Attribute) error {
	err := conn(ctx, r.db).QueryRow(ctx, `
		UPDATE attributes SET name = $2, description = $3, kind = $4, data_type = $5, is_filterable = $6,
			is_searchable = $7, is_required = $8, is_variant_specific = $9, display_order = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Name, a.Description, string(a.Kind), string(a.DataType), a.IsFilterable,
		a.IsSearchable, a.IsRequired, a.IsVariantSpecific, a.DisplayOrder,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return mapError(err, "attribute", a.ID)
	}
	return nil
}

func (r *attributeRepository) DeleteAttribute(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM attributes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attribute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("attribute", id)
	}
	return nil
}

func (r *attributeRepository) ListValues(ctx context.Context, attributeIDs []int64) ([]domain.AttributeValue, error) {
	if len(attributeIDs) == 0 {
		return []domain.AttributeValue{}, nil
	}
	return r.queryValues(ctx,
		`SELECT `+valueColumns+` FROM attribute_values WHERE attribute_id = ANY($1) ORDER BY display_order, id`,
		attributeIDs)
}

func (r *attributeRepository) GetValuesByIDs(ctx context.Context, ids []int64) ([]domain.AttributeValue, error) {
	if len(ids) == 0 {
		return []domain.AttributeValue{}, nil
	}
	return r.queryValues(ctx, `SELECT `+valueColumns+` FROM attribute_values WHERE id = ANY($1)`, ids)
}

func (r *attributeRepository) GetValueByID(ctx context.Context, id int64) (*domain.AttributeValue, error) {
	v, err := scanValue(conn(ctx, r.db).QueryRow(ctx, `SELECT `+valueColumns+` FROM attribute_values WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "attribute value", id)
	}
	return &v, nil
}

func (r *attributeRepository) CreateValue(ctx context.Context, v *domain.AttributeValue) error {
	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO attribute_values (attribute_id, value, display, color_code, image_url, is_default, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		v.AttributeID, v.Value, v.Display, v.ColorCode, v.ImageURL, v.IsDefault, v.DisplayOrder,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return mapError(err, "attribute value", v.Value)
	}
	return nil
}

func (r *attributeRepository) UpdateValue(ctx context.Context, v *domain.AttributeValue) error {
	err := conn(ctx, r.db).QueryRow(ctx, `
		UPDATE attribute_values SET value = $2, display = $3, color_code = $4, image_url = $5,
			is_default = $6, display_order = $7
		WHERE id = $1
		RETURNING attribute_id, created_at`,
		v.ID, v.Value, v.Display, v.ColorCode, v.ImageURL, v.IsDefault, v.DisplayOrder,
	).Scan(&v.AttributeID, &v.CreatedAt)
	if err != nil {
		return mapError(err, "attribute value", v.ID)
	}
	return nil
}

func (r *attributeRepository) DeleteValue(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM attribute_values WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attribute value: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("attribute value", id)
	}
	return nil
}
