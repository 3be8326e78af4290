package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/cache"
)

const (
	attributeCachePrefix     = "attributes:"
	cacheKeyAttributesAll    = "attributes:all"
	cacheKeyAttributesFilter = "attributes:filterable"
	cacheKeyDefinitionsByKey = "attributes:by-key"
)

var attributeKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

type AttributeUsecase struct {
	repo  domain.AttributeRepository
	cache cache.CacheService
	ttl   time.Duration
}

func NewAttributeUsecase(repo domain.AttributeRepository, cache cache.CacheService, ttl time.Duration) *AttributeUsecase {
	return &AttributeUsecase{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

func (uc *AttributeUsecase) ListAttributes(ctx context.Context, filterableOnly bool) ([]domain.Attribute, error) {
	key := cacheKeyAttributesAll
	if filterableOnly {
		key = cacheKeyAttributesFilter
	}
	return cache.Remember(uc.cache, key, uc.ttl, func() ([]domain.Attribute, error) {
		return uc.repo.ListAttributes(ctx, filterableOnly)
	})
}

func (uc *AttributeUsecase) GetAttribute(ctx context.Context, id int64) (*domain.Attribute, error) {
	return uc.repo.GetAttributeByID(ctx, id)
}

// DefinitionsByKey indexes every definition by key.
func (uc *AttributeUsecase) DefinitionsByKey(ctx context.Context) (map[string]domain.Attribute, error) {
	return cache.Remember(uc.cache, cacheKeyDefinitionsByKey, uc.ttl, func() (map[string]domain.Attribute, error) {
		attrs, err := uc.repo.ListAttributes(ctx, false)
		if err != nil {
			return nil, err
		}
		byKey := make(map[string]domain.Attribute, len(attrs))
		for _, a := range attrs {
			byKey[a.Key] = a
		}
		return byKey, nil
	})
}

func (uc *AttributeUsecase) CreateAttribute(ctx context.Context, attr *domain.Attribute) error {
	attr.Key = strings.TrimSpace(attr.Key)
	if !attributeKeyPattern.MatchString(attr.Key) {
		return domain.NewValidation("key", "must be lower snake case, at most 64 characters")
	}
	if err := normalizeDefinition(attr); err != nil {
		return err
	}
	if err := uc.repo.CreateAttribute(ctx, attr); err != nil {
		return err
	}
	uc.invalidate()
	return nil
}

func (uc *AttributeUsecase) UpdateAttribute(ctx context.Context, attr *domain.Attribute) error {
	existing, err := uc.repo.GetAttributeByID(ctx, attr.ID)
	if err != nil {
		return err
	}
	if attr.Key != "" && attr.Key != existing.Key {
		return domain.NewValidation("key", "is immutable")
	}
	attr.Key = existing.Key
	if err := normalizeDefinition(attr); err != nil {
		return err
	}
	if err := uc.repo.UpdateAttribute(ctx, attr); err != nil {
		return err
	}
	uc.invalidate()
	return nil
}

func (uc *AttributeUsecase) DeleteAttribute(ctx context.Context, id int64) error {
	if err := uc.repo.DeleteAttribute(ctx, id); err != nil {
		return err
	}
	uc.invalidate()
	return nil
}

func (uc *AttributeUsecase) CreateValue(ctx context.Context, value *domain.AttributeValue) error {
	attr, err := uc.repo.GetAttributeByID(ctx, value.AttributeID)
	if err != nil {
		return err
	}
	if err := normalizeValue(attr, value); err != nil {
		return err
	}
	if err := uc.repo.CreateValue(ctx, value); err != nil {
		return err
	}
	uc.invalidate()
	return nil
}

// UpdateValue changes a value's label or token. Variant caches pick the change
// up on their next rebuild.
func (uc *AttributeUsecase) UpdateValue(ctx context.Context, value *domain.AttributeValue) error {
	existing, err := uc.repo.GetValueByID(ctx, value.ID)
	if err != nil {
		return err
	}
	value.AttributeID = existing.AttributeID
	attr, err := uc.repo.GetAttributeByID(ctx, existing.AttributeID)
	if err != nil {
		return err
	}
	if err := normalizeValue(attr, value); err != nil {
		return err
	}
	if err := uc.repo.UpdateValue(ctx, value); err != nil {
		return err
	}
	uc.invalidate()
	return nil
}

func (uc *AttributeUsecase) DeleteValue(ctx context.Context, id int64) error {
	if err := uc.repo.DeleteValue(ctx, id); err != nil {
		return err
	}
	uc.invalidate()
	return nil
}

func (uc *AttributeUsecase) invalidate() {
	uc.cache.DeletePrefix(attributeCachePrefix)
}

func normalizeDefinition(attr *domain.Attribute) error {
	attr.Name = strings.TrimSpace(attr.Name)
	if attr.Name == "" {
		return domain.NewValidation("name", "is required")
	}
	if !attr.Kind.Valid() {
		return domain.NewValidation("kind", "unknown attribute kind")
	}
	if attr.DataType == "" {
		attr.DataType = domain.DefaultDataType(attr.Kind)
	}
	if !attr.DataType.Valid() {
		return domain.NewValidation("dataType", "unknown data type")
	}
	return nil
}

func normalizeValue(attr *domain.Attribute, value *domain.AttributeValue) error {
	value.Value = strings.TrimSpace(value.Value)
	if value.Value == "" {
		return domain.NewValidation("value", "is required")
	}
	switch attr.DataType {
	case domain.DataTypeNumber:
		if _, err := decimal.NewFromString(value.Value); err != nil {
			return domain.NewValidation("value", "must be numeric for attribute "+attr.Key)
		}
	case domain.DataTypeBoolean:
		if domain.ParseBoolToken(value.Value) {
			value.Value = "true"
		} else {
			value.Value = "false"
		}
	}
	value.Display = strings.TrimSpace(value.Display)
	if value.Display == "" {
		value.Display = value.Value
	}
	return nil
}
