package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"catalog-backend/internal/domain"
)

// ParseAttributeFilter reads the attrs parameter, either `key:value,key2:value2`
// or a flat JSON object. Later duplicates win. Empty input yields nil.
func ParseAttributeFilter(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "{") {
		return parseAttributeJSON(raw)
	}

	out := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("%w: attrs pair %q", domain.ErrMalformedFilter, pair)
		}
		out[key] = value
	}
	return out, nil
}

func parseAttributeJSON(raw string) (map[string]string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFilter, err)
	}

	out := make(map[string]string, len(doc))
	for key, v := range doc {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: empty attrs key", domain.ErrMalformedFilter)
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" {
				return nil, fmt.Errorf("%w: empty value for %q", domain.ErrMalformedFilter, key)
			}
			out[key] = strings.TrimSpace(t)
		case json.Number:
			out[key] = t.String()
		case bool:
			out[key] = strconv.FormatBool(t)
		default:
			return nil, fmt.Errorf("%w: unsupported value for %q", domain.ErrMalformedFilter, key)
		}
	}
	return out, nil
}

// ParseRangeFilter reads the ranges parameter: `key:min..max` pairs separated by
// commas. Either bound may be omitted, not both.
func ParseRangeFilter(raw string) (map[string]domain.NumericRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := map[string]domain.NumericRange{}
	for _, pair := range strings.Split(raw, ",") {
		key, bounds, ok := strings.Cut(pair, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: ranges pair %q", domain.ErrMalformedFilter, pair)
		}
		lo, hi, ok := strings.Cut(bounds, "..")
		if !ok {
			return nil, fmt.Errorf("%w: ranges pair %q", domain.ErrMalformedFilter, pair)
		}
		r, err := ParseNumericRange(lo, hi)
		if err != nil {
			return nil, err
		}
		if r.IsOpen() {
			return nil, fmt.Errorf("%w: range for %q has no bounds", domain.ErrMalformedFilter, key)
		}
		out[key] = r
	}
	return out, nil
}

// ParseNumericRange parses optional decimal bounds; blank means open.
func ParseNumericRange(minRaw, maxRaw string) (domain.NumericRange, error) {
	var r domain.NumericRange
	var err error
	if r.Min, err = parseBound(minRaw); err != nil {
		return r, err
	}
	if r.Max, err = parseBound(maxRaw); err != nil {
		return r, err
	}
	if r.Min.Valid && r.Max.Valid && r.Min.Decimal.GreaterThan(r.Max.Decimal) {
		return r, fmt.Errorf("%w: min %s is greater than max %s", domain.ErrMalformedFilter, r.Min.Decimal, r.Max.Decimal)
	}
	return r, nil
}

func parseBound(raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q is not a number", domain.ErrMalformedFilter, raw)
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseIDList reads comma separated positive ids.
func ParseIDList(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, domain.NewValidation("brandIds", fmt.Sprintf("%q is not a valid id", part))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// normalizeAttributeValues canonicalizes values of known BOOLEAN attributes.
// Unknown keys are kept verbatim.
func normalizeAttributeValues(values map[string]string, defs map[string]domain.Attribute) map[string]string {
	if len(values) == 0 {
		return values
	}
	out := make(map[string]string, len(values))
	for key, v := range values {
		if def, ok := defs[key]; ok && def.DataType == domain.DataTypeBoolean {
			v = strconv.FormatBool(domain.ParseBoolToken(v))
		}
		out[key] = v
	}
	return out
}
