package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-backend/internal/domain"
)

func TestParseAttributeFilter(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "  ", nil},
		{"pairs", "color:red, size : M", map[string]string{"color": "red", "size": "M"}},
		{"value with colon", "time:10:30", map[string]string{"time": "10:30"}},
		{"last duplicate wins", "color:red,color:blue", map[string]string{"color": "blue"}},
		{"json", `{"color":"red","organic":true,"weight":1.50}`, map[string]string{"color": "red", "organic": "true", "weight": "1.50"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAttributeFilter(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAttributeFilter_Malformed(t *testing.T) {
	for _, raw := range []string{
		"color",
		"color:",
		":red",
		"color:red,,size:m",
		`{"color":`,
		`{"color":["red"]}`,
		`{"color":null}`,
		`{"":"red"}`,
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseAttributeFilter(raw)
			assert.ErrorIs(t, err, domain.ErrMalformedFilter)
		})
	}
}

func TestParseRangeFilter(t *testing.T) {
	got, err := ParseRangeFilter("weight:1..2.5,length:..30,width:4..")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.True(t, got["weight"].Min.Decimal.Equal(dec("1")))
	assert.True(t, got["weight"].Max.Decimal.Equal(dec("2.5")))
	assert.False(t, got["length"].Min.Valid)
	assert.True(t, got["length"].Max.Decimal.Equal(dec("30")))
	assert.True(t, got["width"].Min.Valid)
	assert.False(t, got["width"].Max.Valid)
}

func TestParseRangeFilter_Malformed(t *testing.T) {
	for _, raw := range []string{"weight", "weight:1-2", "weight:..", "weight:a..2", "weight:3..1", ":1..2"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseRangeFilter(raw)
			assert.ErrorIs(t, err, domain.ErrMalformedFilter)
		})
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("3, 5,8")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 8}, ids)

	_, err = ParseIDList("3,abc")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseIDList("0")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNormalizeAttributeValues(t *testing.T) {
	defs := map[string]domain.Attribute{
		"organic": {Key: "organic", DataType: domain.DataTypeBoolean},
		"color":   {Key: "color", DataType: domain.DataTypeString},
	}
	got := normalizeAttributeValues(map[string]string{"organic": "YES", "color": "Red", "unknown": "On"}, defs)
	assert.Equal(t, map[string]string{"organic": "true", "color": "Red", "unknown": "On"}, got)
}
