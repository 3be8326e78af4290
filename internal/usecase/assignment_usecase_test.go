package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-backend/internal/domain"
)

func assignmentFixture() (*memStore, domain.AssignmentUsecase) {
	s, sync := syncFixture()
	s.addAttr(3, "weight", domain.KindNumber, domain.DataTypeNumber)
	s.addAttr(4, "tags", domain.KindMultiSelect, domain.DataTypeString)
	s.addAttr(5, "organic", domain.KindBoolean, domain.DataTypeBoolean)
	s.addValue(400, 4, "summer", "Summer")
	s.addValue(401, 4, "sale", "Sale")

	uc := NewAssignmentUsecase(memTx{s}, memAttributeRepo{s}, memAssignmentRepo{s}, memVariantRepo{s}, sync)
	return s, uc
}

func TestReplaceVariantAttributes(t *testing.T) {
	s, uc := assignmentFixture()

	got, err := uc.ReplaceVariantAttributes(context.Background(), 10, []domain.AssignmentInput{
		{AttributeID: 1, AttributeValueID: ptr(int64(101))},
		{AttributeID: 3, CustomValue: ptr(" 1.5 ")},
		{AttributeID: 5},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	cache := s.variants[10].AttributeCache
	assert.Equal(t, "red", cache["color"].Entry().Value)
	assert.Equal(t, "cotton", cache["material"].Entry().Value, "product scope still applies")
	assert.True(t, cache["weight"].Entry().Number.Decimal.Equal(dec("1.5")))
	assert.Equal(t, "true", cache["organic"].Entry().Value)

	for _, a := range got {
		if a.Key == "weight" {
			require.True(t, a.NumericValue.Valid, "numeric value derived from custom value")
			assert.Equal(t, "1.5", *a.CustomValue)
		}
	}
}

func TestReplaceVariantAttributes_EmptyClearsVariantScope(t *testing.T) {
	s, uc := assignmentFixture()

	got, err := uc.ReplaceVariantAttributes(context.Background(), 11, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "white", s.variants[11].AttributeCache["color"].Entry().Value)
}

func TestReplaceVariantAttributes_RejectsForeignValue(t *testing.T) {
	s, uc := assignmentFixture()
	before := len(s.assignments)

	_, err := uc.ReplaceVariantAttributes(context.Background(), 11, []domain.AssignmentInput{
		{AttributeID: 4, AttributeValueID: ptr(int64(400))},
		{AttributeID: 1, AttributeValueID: ptr(int64(200))},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "attributes[1].attributeValueId", verr.Field)
	assert.Len(t, s.assignments, before)
	assert.Zero(t, s.called("ReplaceVariantAssignments"))
	assert.Zero(t, s.called("SaveAttributeCache"))
}

func TestReplaceVariantAttributes_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		inputs []domain.AssignmentInput
		target error
	}{
		{"unknown attribute", []domain.AssignmentInput{{AttributeID: 99, CustomValue: ptr("x")}}, domain.ErrNotFound},
		{"unknown value", []domain.AssignmentInput{{AttributeID: 1, AttributeValueID: ptr(int64(999))}}, domain.ErrNotFound},
		{"no value", []domain.AssignmentInput{{AttributeID: 1, CustomValue: ptr("  ")}}, domain.ErrValidation},
		{"non numeric", []domain.AssignmentInput{{AttributeID: 3, CustomValue: ptr("heavy")}}, domain.ErrValidation},
		{"single value twice", []domain.AssignmentInput{
			{AttributeID: 1, AttributeValueID: ptr(int64(100))},
			{AttributeID: 1, AttributeValueID: ptr(int64(101))},
		}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, uc := assignmentFixture()
			_, err := uc.ReplaceVariantAttributes(context.Background(), 10, tt.inputs)
			assert.ErrorIs(t, err, tt.target)
			assert.Zero(t, s.called("ReplaceVariantAssignments"))
		})
	}
}

func TestReplaceVariantAttributes_MultiSelectAllowsRepeats(t *testing.T) {
	s, uc := assignmentFixture()

	got, err := uc.ReplaceVariantAttributes(context.Background(), 10, []domain.AssignmentInput{
		{AttributeID: 4, AttributeValueID: ptr(int64(400)), DisplayOrder: 2},
		{AttributeID: 4, AttributeValueID: ptr(int64(401)), DisplayOrder: 1},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "sale", s.variants[10].AttributeCache["tags"].Entry().Value)
}

func TestReplaceVariantAttributes_UnknownVariant(t *testing.T) {
	_, uc := assignmentFixture()

	_, err := uc.ReplaceVariantAttributes(context.Background(), 404, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplaceVariantAttributes_RollsBackWhenRebuildFails(t *testing.T) {
	s, uc := assignmentFixture()
	s.saveErr[11] = errors.New("disk full")
	before := len(s.assignments)

	_, err := uc.ReplaceVariantAttributes(context.Background(), 11, []domain.AssignmentInput{
		{AttributeID: 1, AttributeValueID: ptr(int64(100))},
		{AttributeID: 3, CustomValue: ptr("2")},
	})
	require.Error(t, err)
	assert.Len(t, s.assignments, before)
	assert.Equal(t, 1, s.called("ReplaceVariantAssignments"))
}

func TestSaveProductAttribute_RebuildsAllVariants(t *testing.T) {
	s, uc := assignmentFixture()

	got, err := uc.SaveProductAttribute(context.Background(), 1, domain.AssignmentInput{AttributeID: 2, CustomValue: ptr("linen")})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "linen", s.variants[10].AttributeCache["material"].Entry().Value)
	assert.Equal(t, "linen", s.variants[11].AttributeCache["material"].Entry().Value)
	assert.Equal(t, "red", s.variants[11].AttributeCache["color"].Entry().Value)
}

func TestSaveProductAttribute_UnknownProduct(t *testing.T) {
	s, uc := assignmentFixture()

	_, err := uc.SaveProductAttribute(context.Background(), 404, domain.AssignmentInput{AttributeID: 2, CustomValue: ptr("linen")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, s.called("DeleteProductAssignments"))
}

func TestDeleteProductAttribute(t *testing.T) {
	s, uc := assignmentFixture()
	ctx := context.Background()

	require.NoError(t, uc.DeleteProductAttribute(ctx, 1, 2))
	assert.NotContains(t, s.variants[10].AttributeCache, "material")

	err := uc.DeleteProductAttribute(ctx, 1, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssign_ConflictOnSingleValue(t *testing.T) {
	_, uc := assignmentFixture()

	_, err := uc.Assign(context.Background(), domain.ScopeProduct, 1, domain.AssignmentInput{AttributeID: 1, AttributeValueID: ptr(int64(101))})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAssign_VariantScope(t *testing.T) {
	s, uc := assignmentFixture()

	got, err := uc.Assign(context.Background(), domain.ScopeVariant, 20, domain.AssignmentInput{AttributeID: 4, AttributeValueID: ptr(int64(400))})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "summer", s.variants[20].AttributeCache["tags"].Entry().Value)
}

func TestAssign_InvalidScope(t *testing.T) {
	_, uc := assignmentFixture()

	_, err := uc.Assign(context.Background(), "CATEGORY", 1, domain.AssignmentInput{AttributeID: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListFor(t *testing.T) {
	_, uc := assignmentFixture()
	ctx := context.Background()

	rows, err := uc.ListFor(ctx, domain.ScopeProduct, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = uc.ListFor(ctx, domain.ScopeVariant, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
