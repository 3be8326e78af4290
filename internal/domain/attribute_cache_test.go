package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCachedValue_PicksVariantByDataType(t *testing.T) {
	text := NewCachedValue(DataTypeString, CacheEntry{Value: "red", Display: "Red", Kind: KindColor})
	_, ok := text.(TextValue)
	assert.True(t, ok)
	assert.Equal(t, DataTypeString, text.DataType())

	date := NewCachedValue(DataTypeDate, CacheEntry{Value: "2024-05-01", Kind: KindDate})
	assert.Equal(t, DataTypeDate, date.DataType())

	num := NewCachedValue(DataTypeNumber, CacheEntry{Value: "7.5", Display: "7.5 h", Kind: KindNumber})
	nv, ok := num.(NumericValue)
	require.True(t, ok)
	require.True(t, nv.Number.Valid)
	assert.True(t, nv.Number.Decimal.Equal(decimal.RequireFromString("7.5")))

	flag := NewCachedValue(DataTypeBoolean, CacheEntry{Value: "Yes", Kind: KindBoolean})
	bv, ok := flag.(BooleanValue)
	require.True(t, ok)
	assert.True(t, bv.Flag)
	assert.Equal(t, "true", bv.Value)
	assert.Equal(t, "true", bv.Display)
}

func TestNewCachedValue_NonNumericNumber(t *testing.T) {
	v := NewCachedValue(DataTypeNumber, CacheEntry{Value: "about ten"})
	nv := v.(NumericValue)
	assert.False(t, nv.Number.Valid)
}

func TestAttributeCache_JSONRoundTrip(t *testing.T) {
	cache := AttributeCache{
		"color":     NewCachedValue(DataTypeString, CacheEntry{Value: "red", Display: "Red", Kind: KindColor}),
		"burn_time": NewCachedValue(DataTypeNumber, CacheEntry{Value: "8", Display: "8 hours", Kind: KindNumber}),
		"organic":   NewCachedValue(DataTypeBoolean, CacheEntry{Value: "true", Kind: KindBoolean}),
		"launched":  NewCachedValue(DataTypeDate, CacheEntry{Value: "2024-05-01", Display: "May 2024", Kind: KindDate}),
	}

	data, err := json.Marshal(cache)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"burn_time": {"value":"8","display":"8 hours","kind":"NUMBER","dataType":"NUMBER","numericValue":8},
		"color": {"value":"red","display":"Red","kind":"COLOR","dataType":"STRING"},
		"launched": {"value":"2024-05-01","display":"May 2024","kind":"DATE","dataType":"DATE"},
		"organic": {"value":"true","display":"true","kind":"BOOLEAN","dataType":"BOOLEAN"}
	}`, string(data))

	var decoded AttributeCache
	require.NoError(t, json.Unmarshal(data, &decoded))
	again, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
	assert.Equal(t, []string{"burn_time", "color", "launched", "organic"}, decoded.Keys())
}

func TestAttributeCache_MarshalIsDeterministic(t *testing.T) {
	build := func() AttributeCache {
		c := AttributeCache{}
		for i := 0; i < 20; i++ {
			key := fmt.Sprintf("k%02d", i)
			c[key] = NewCachedValue(DataTypeString, CacheEntry{Value: key, Display: key, Kind: KindText})
		}
		return c
	}
	a, err := json.Marshal(build())
	require.NoError(t, err)
	b, err := json.Marshal(build())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAttributeCache_NilMarshalsAsEmptyObject(t *testing.T) {
	var c AttributeCache
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestAttributeCache_UnknownDataTypeDecodesAsText(t *testing.T) {
	var c AttributeCache
	require.NoError(t, json.Unmarshal([]byte(`{"material":{"value":"oak","display":"Oak"}}`), &c))
	_, ok := c["material"].(TextValue)
	assert.True(t, ok)
}

func TestParseBoolToken(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", " on "} {
		assert.True(t, ParseBoolToken(s), s)
	}
	for _, s := range []string{"false", "0", "no", "", "maybe"} {
		assert.False(t, ParseBoolToken(s), s)
	}
}

func TestErrors_MatchSentinels(t *testing.T) {
	nf := fmt.Errorf("load: %w", NewNotFound("variant", int64(7)))
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.Equal(t, "load: variant 7 not found", nf.Error())

	ve := NewValidation("attributeValueId", "belongs to another attribute")
	assert.True(t, errors.Is(ve, ErrValidation))
	assert.False(t, errors.Is(ve, ErrNotFound))

	ce := &ConflictError{Entity: "attribute", Detail: "attributes_key_key"}
	assert.True(t, errors.Is(ce, ErrConflict))
}

func TestVariant_EffectivePrice(t *testing.T) {
	v := Variant{Price: decimal.NewFromInt(150000), SalePrice: decimal.NewNullDecimal(decimal.NewFromInt(100000))}
	assert.True(t, v.EffectivePrice().Equal(decimal.NewFromInt(100000)))

	v.SalePrice = decimal.NewNullDecimal(decimal.Zero)
	assert.True(t, v.EffectivePrice().Equal(decimal.NewFromInt(150000)))

	v.SalePrice = decimal.NullDecimal{}
	assert.True(t, v.EffectivePrice().Equal(decimal.NewFromInt(150000)))
}

func TestNumericRange_Contains(t *testing.T) {
	r := NumericRange{
		Min: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Max: decimal.NewNullDecimal(decimal.NewFromInt(20)),
	}
	assert.True(t, r.Contains(decimal.NewFromInt(10)))
	assert.True(t, r.Contains(decimal.NewFromInt(20)))
	assert.False(t, r.Contains(decimal.NewFromInt(21)))
	assert.True(t, NumericRange{}.Contains(decimal.NewFromInt(-5)))
}
