package usecase

import (
	"catalog-backend/internal/domain"
)

// BuildAttributeCache derives a variant's attribute cache from the product-scope
// and variant-scope assignments. Variant entries replace product entries with the
// same key. The result depends only on its inputs.
func BuildAttributeCache(productRows, variantRows []domain.ResolvedAssignment) domain.AttributeCache {
	cache := domain.AttributeCache{}
	for key, v := range collapseScope(productRows) {
		cache[key] = v
	}
	for key, v := range collapseScope(variantRows) {
		cache[key] = v
	}
	return cache
}

// collapseScope keeps one entry per key. Multi-valued attributes resolve to the
// primary row, then lowest display order, then lowest id.
func collapseScope(rows []domain.ResolvedAssignment) map[string]domain.CachedValue {
	best := make(map[string]domain.ResolvedAssignment, len(rows))
	for _, row := range rows {
		if _, ok := cacheEntryFor(row); !ok {
			continue
		}
		cur, seen := best[row.Key]
		if !seen || preferredRow(row, cur) {
			best[row.Key] = row
		}
	}

	out := make(map[string]domain.CachedValue, len(best))
	for key, row := range best {
		entry, _ := cacheEntryFor(row)
		out[key] = domain.NewCachedValue(row.DataType, entry)
	}
	return out
}

func preferredRow(a, b domain.ResolvedAssignment) bool {
	if a.IsPrimary != b.IsPrimary {
		return a.IsPrimary
	}
	if a.DisplayOrder != b.DisplayOrder {
		return a.DisplayOrder < b.DisplayOrder
	}
	return a.ID < b.ID
}

// cacheEntryFor returns false for rows that carry nothing to cache, e.g. a
// reference to a deleted value with no custom fallback.
func cacheEntryFor(row domain.ResolvedAssignment) (domain.CacheEntry, bool) {
	entry := domain.CacheEntry{Kind: row.Kind, Number: row.NumericValue}

	switch {
	case row.ValueToken != nil:
		entry.Value = *row.ValueToken
		if row.ValueDisplay != nil && *row.ValueDisplay != "" {
			entry.Display = *row.ValueDisplay
		} else {
			entry.Display = entry.Value
		}
	case row.CustomValue != nil:
		entry.Value = *row.CustomValue
		entry.Display = entry.Value
	case row.AttributeValueID != nil:
		return domain.CacheEntry{}, false
	case row.DataType == domain.DataTypeBoolean:
		entry.Value = "true"
	case row.DataType == domain.DataTypeNumber && row.NumericValue.Valid:
		entry.Value = row.NumericValue.Decimal.String()
		entry.Display = entry.Value
	default:
		return domain.CacheEntry{}, false
	}
	return entry, true
}
