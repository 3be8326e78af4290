package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/logger"
)

type assignmentUsecase struct {
	tm          domain.TransactionManager
	attrs       domain.AttributeRepository
	assignments domain.AssignmentRepository
	variants    domain.VariantRepository
	sync        domain.CacheSyncUsecase
}

func NewAssignmentUsecase(
	tm domain.TransactionManager,
	attrs domain.AttributeRepository,
	assignments domain.AssignmentRepository,
	variants domain.VariantRepository,
	sync domain.CacheSyncUsecase,
) domain.AssignmentUsecase {
	return &assignmentUsecase{
		tm:          tm,
		attrs:       attrs,
		assignments: assignments,
		variants:    variants,
		sync:        sync,
	}
}

// ReplaceVariantAttributes swaps the variant's whole assignment set and rebuilds
// its cache in the same transaction. Nothing is written when any input is invalid.
func (u *assignmentUsecase) ReplaceVariantAttributes(ctx context.Context, variantID int64, inputs []domain.AssignmentInput) ([]domain.ResolvedAssignment, error) {
	var result []domain.ResolvedAssignment
	err := u.tm.Do(ctx, func(ctx context.Context) error {
		if _, err := u.variants.LockVariant(ctx, variantID); err != nil {
			return err
		}
		rows, err := u.buildRows(ctx, domain.ScopeVariant, variantID, inputs)
		if err != nil {
			return err
		}
		if err := u.assignments.ReplaceVariantAssignments(ctx, variantID, rows); err != nil {
			return fmt.Errorf("replace variant assignments: %w", err)
		}
		if _, err := u.sync.RebuildOne(ctx, variantID); err != nil {
			return fmt.Errorf("rebuild attribute cache: %w", err)
		}
		result, err = u.assignments.ListAssignments(ctx, domain.ScopeVariant, variantID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().
		Int64("variant_id", variantID).
		Int("assignments", len(result)).
		Msg("Variant attributes replaced")
	return result, nil
}

// SaveProductAttribute replaces the product's rows for one attribute and
// rebuilds every variant of the product.
func (u *assignmentUsecase) SaveProductAttribute(ctx context.Context, productID int64, input domain.AssignmentInput) ([]domain.ResolvedAssignment, error) {
	var result []domain.ResolvedAssignment
	err := u.tm.Do(ctx, func(ctx context.Context) error {
		if err := u.requireProduct(ctx, productID); err != nil {
			return err
		}
		rows, err := u.buildRows(ctx, domain.ScopeProduct, productID, []domain.AssignmentInput{input})
		if err != nil {
			return err
		}
		if _, err := u.assignments.DeleteProductAssignments(ctx, productID, input.AttributeID); err != nil {
			return fmt.Errorf("clear product attribute: %w", err)
		}
		if err := u.assignments.InsertAssignments(ctx, rows); err != nil {
			return fmt.Errorf("insert product attribute: %w", err)
		}
		if _, err := u.sync.RebuildForProduct(ctx, productID); err != nil {
			return fmt.Errorf("rebuild attribute cache: %w", err)
		}
		result, err = u.assignments.ListAssignments(ctx, domain.ScopeProduct, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (u *assignmentUsecase) DeleteProductAttribute(ctx context.Context, productID, attributeID int64) error {
	return u.tm.Do(ctx, func(ctx context.Context) error {
		if err := u.requireProduct(ctx, productID); err != nil {
			return err
		}
		n, err := u.assignments.DeleteProductAssignments(ctx, productID, attributeID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NewNotFound("product attribute", attributeID)
		}
		if _, err := u.sync.RebuildForProduct(ctx, productID); err != nil {
			return fmt.Errorf("rebuild attribute cache: %w", err)
		}
		return nil
	})
}

// Assign adds one assignment. Single-valued attributes may be assigned once per owner.
func (u *assignmentUsecase) Assign(ctx context.Context, scope domain.AssignmentScope, ownerID int64, input domain.AssignmentInput) ([]domain.ResolvedAssignment, error) {
	if !scope.Valid() {
		return nil, domain.NewValidation("scope", "must be PRODUCT or VARIANT")
	}

	var result []domain.ResolvedAssignment
	err := u.tm.Do(ctx, func(ctx context.Context) error {
		if err := u.lockOwner(ctx, scope, ownerID); err != nil {
			return err
		}
		rows, err := u.buildRows(ctx, scope, ownerID, []domain.AssignmentInput{input})
		if err != nil {
			return err
		}

		existing, err := u.assignments.ListAssignments(ctx, scope, ownerID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.AttributeID == input.AttributeID && e.Kind != domain.KindMultiSelect {
				return &domain.ConflictError{Entity: "assignment", Detail: "attribute " + e.Key + " is already assigned"}
			}
		}

		if err := u.assignments.InsertAssignments(ctx, rows); err != nil {
			return err
		}
		if scope == domain.ScopeVariant {
			_, err = u.sync.RebuildOne(ctx, ownerID)
		} else {
			_, err = u.sync.RebuildForProduct(ctx, ownerID)
		}
		if err != nil {
			return fmt.Errorf("rebuild attribute cache: %w", err)
		}
		result, err = u.assignments.ListAssignments(ctx, scope, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (u *assignmentUsecase) ListFor(ctx context.Context, scope domain.AssignmentScope, ownerID int64) ([]domain.ResolvedAssignment, error) {
	switch scope {
	case domain.ScopeVariant:
		if _, err := u.variants.GetVariantRef(ctx, ownerID); err != nil {
			return nil, err
		}
	case domain.ScopeProduct:
		if err := u.requireProduct(ctx, ownerID); err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewValidation("scope", "must be PRODUCT or VARIANT")
	}
	return u.assignments.ListAssignments(ctx, scope, ownerID)
}

func (u *assignmentUsecase) lockOwner(ctx context.Context, scope domain.AssignmentScope, ownerID int64) error {
	if scope == domain.ScopeVariant {
		_, err := u.variants.LockVariant(ctx, ownerID)
		return err
	}
	return u.requireProduct(ctx, ownerID)
}

func (u *assignmentUsecase) requireProduct(ctx context.Context, productID int64) error {
	exists, err := u.variants.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewNotFound("product", productID)
	}
	return nil
}

// buildRows validates every input against its definition and value, then
// returns the rows to persist. It performs reads only.
func (u *assignmentUsecase) buildRows(ctx context.Context, scope domain.AssignmentScope, ownerID int64, inputs []domain.AssignmentInput) ([]domain.AttributeAssignment, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	attrIDs := make([]int64, 0, len(inputs))
	var valueIDs []int64
	for _, in := range inputs {
		attrIDs = append(attrIDs, in.AttributeID)
		if in.AttributeValueID != nil {
			valueIDs = append(valueIDs, *in.AttributeValueID)
		}
	}

	attrs, err := u.attrs.GetAttributesByIDs(ctx, attrIDs)
	if err != nil {
		return nil, err
	}
	attrByID := make(map[int64]domain.Attribute, len(attrs))
	for _, a := range attrs {
		attrByID[a.ID] = a
	}

	valueByID := map[int64]domain.AttributeValue{}
	if len(valueIDs) > 0 {
		values, err := u.attrs.GetValuesByIDs(ctx, valueIDs)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			valueByID[v.ID] = v
		}
	}

	seen := make(map[int64]bool, len(inputs))
	rows := make([]domain.AttributeAssignment, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("attributes[%d]", i)

		attr, ok := attrByID[in.AttributeID]
		if !ok {
			return nil, domain.NewNotFound("attribute", in.AttributeID)
		}
		if seen[attr.ID] && attr.Kind != domain.KindMultiSelect {
			return nil, domain.NewValidation(field+".attributeId", "attribute "+attr.Key+" is assigned more than once")
		}
		seen[attr.ID] = true

		if in.AttributeValueID != nil {
			v, ok := valueByID[*in.AttributeValueID]
			if !ok {
				return nil, domain.NewNotFound("attribute value", *in.AttributeValueID)
			}
			if v.AttributeID != attr.ID {
				return nil, domain.NewValidation(field+".attributeValueId", "does not belong to attribute "+attr.Key)
			}
		}

		custom := trimmedOrNil(in.CustomValue)
		if attr.DataType != domain.DataTypeBoolean && in.AttributeValueID == nil && custom == nil {
			return nil, domain.NewValidation(field, "attributeValueId or customValue is required for "+attr.Key)
		}

		numeric := in.NumericValue
		if attr.DataType == domain.DataTypeNumber && !numeric.Valid && custom != nil {
			d, err := decimal.NewFromString(*custom)
			if err != nil {
				if in.AttributeValueID == nil {
					return nil, domain.NewValidation(field+".customValue", "must be numeric for "+attr.Key)
				}
			} else {
				numeric = decimal.NewNullDecimal(d)
			}
		}

		row := domain.AttributeAssignment{
			AttributeID:      attr.ID,
			Scope:            scope,
			AttributeValueID: in.AttributeValueID,
			CustomValue:      custom,
			NumericValue:     numeric,
			DisplayOrder:     in.DisplayOrder,
			IsPrimary:        in.IsPrimary,
		}
		owner := ownerID
		if scope == domain.ScopeVariant {
			row.VariantID = &owner
		} else {
			row.ProductID = &owner
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
