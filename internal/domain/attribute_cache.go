package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// CacheEntry holds the fields every cached attribute value carries.
type CacheEntry struct {
	Value   string              // canonical token, matched by containment lookups
	Display string              // human label
	Kind    AttributeKind       // kind of the definition at rebuild time
	Number  decimal.NullDecimal // copied from the assignment's numeric value
}

func (e CacheEntry) Entry() CacheEntry { return e }

// CachedValue is one denormalized entry of a variant's attribute cache.
// The set of implementations is closed: TextValue, NumericValue, BooleanValue.
type CachedValue interface {
	Entry() CacheEntry
	DataType() DataType
	isCachedValue()
}

// TextValue covers STRING and DATE data types.
type TextValue struct {
	CacheEntry
	Date bool
}

func (v TextValue) DataType() DataType {
	if v.Date {
		return DataTypeDate
	}
	return DataTypeString
}

func (TextValue) isCachedValue() {}

// NumericValue is a NUMBER entry. Number is invalid when the source value was not numeric.
type NumericValue struct {
	CacheEntry
}

func (NumericValue) DataType() DataType { return DataTypeNumber }
func (NumericValue) isCachedValue()     {}

type BooleanValue struct {
	CacheEntry
	Flag bool
}

func (BooleanValue) DataType() DataType { return DataTypeBoolean }
func (BooleanValue) isCachedValue()     {}

// NewCachedValue picks the variant for dataType.
func NewCachedValue(dataType DataType, e CacheEntry) CachedValue {
	switch dataType {
	case DataTypeBoolean:
		flag := ParseBoolToken(e.Value)
		e.Value = strconv.FormatBool(flag)
		if e.Display == "" {
			e.Display = e.Value
		}
		return BooleanValue{CacheEntry: e, Flag: flag}
	case DataTypeNumber:
		if !e.Number.Valid {
			if d, err := decimal.NewFromString(strings.TrimSpace(e.Value)); err == nil {
				e.Number = decimal.NewNullDecimal(d)
			}
		}
		return NumericValue{CacheEntry: e}
	case DataTypeDate:
		return TextValue{CacheEntry: e, Date: true}
	default:
		return TextValue{CacheEntry: e}
	}
}

// ParseBoolToken accepts the usual spellings of true; everything else is false.
func ParseBoolToken(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true
	}
	return false
}

// AttributeCache maps attribute key to its effective value for one variant.
type AttributeCache map[string]CachedValue

type cacheEntryWire struct {
	Value        string        `json:"value"`
	Display      string        `json:"display"`
	Kind         AttributeKind `json:"kind"`
	DataType     DataType      `json:"dataType"`
	NumericValue *json.Number  `json:"numericValue,omitempty"`
}

// MarshalJSON writes keys in sorted order so equal caches encode to equal bytes.
func (c AttributeCache) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	wire := make(map[string]cacheEntryWire, len(c))
	for key, v := range c {
		if v == nil {
			continue
		}
		e := v.Entry()
		w := cacheEntryWire{
			Value:    e.Value,
			Display:  e.Display,
			Kind:     e.Kind,
			DataType: v.DataType(),
		}
		if e.Number.Valid {
			n := json.Number(e.Number.Decimal.String())
			w.NumericValue = &n
		}
		wire[key] = w
	}
	return json.Marshal(wire)
}

func (c *AttributeCache) UnmarshalJSON(data []byte) error {
	var wire map[string]cacheEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode attribute cache: %w", err)
	}
	out := make(AttributeCache, len(wire))
	for key, w := range wire {
		e := CacheEntry{Value: w.Value, Display: w.Display, Kind: w.Kind}
		if w.NumericValue != nil {
			d, err := decimal.NewFromString(w.NumericValue.String())
			if err != nil {
				return fmt.Errorf("decode attribute cache %q: %w", key, err)
			}
			e.Number = decimal.NewNullDecimal(d)
		}
		out[key] = NewCachedValue(w.DataType, e)
	}
	*c = out
	return nil
}

// Keys returns the cache keys in sorted order.
func (c AttributeCache) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
