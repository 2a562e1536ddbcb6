// Package parameters handles the tunable Params of the game AIs: a flat map from parameter name to a
// number, an array of numbers or an enum string.
//
// Params are always scoped to a games.Key. The built-in defaults for each key are in Default, and the
// known keys of each game are described by SchemaFor.
package parameters

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/pkg/errors"
)

// Params represent the parameters of one game AI.
//
// Values are kept in a canonical form: float64, []float64 or string. Use Normalize after decoding
// from JSON or building from other types.
type Params map[string]any

// ErrInvalid is returned (wrapped) when Params don't conform to the schema of a game.
var ErrInvalid = errors.New("invalid parameters")

// NewFromConfigString create params from user's configuration string, e.g.:
//
//	"base_error=5,strategy=aggressive,position_weights=3;2;3;2;4;2;3;2;3"
//
// Values that parse as numbers are stored as float64, values with ";" as []float64 and everything
// else as strings. A key without a value is stored as an empty string.
func NewFromConfigString(config string) (Params, error) {
	params := make(Params)
	for _, part := range strings.Split(config, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		subParts := strings.SplitN(part, "=", 2) // Split into up to 2 parts to handle '=' in values
		key := strings.TrimSpace(subParts[0])
		if len(subParts) == 1 {
			params[key] = ""
			continue
		}
		value := strings.TrimSpace(subParts[1])
		if strings.Contains(value, ";") {
			var values []float64
			for _, v := range strings.Split(value, ";") {
				f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					return nil, errors.Wrapf(err, "failed to parse configuration %s=%q as a list of numbers", key, value)
				}
				values = append(values, f)
			}
			params[key] = values
			continue
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = f
			continue
		}
		params[key] = value
	}
	return params, nil
}

// Normalize converts p in place to the canonical value types (float64, []float64, string), and
// returns it. Values that can't be converted are left untouched, so that Validate can report them.
func (p Params) Normalize() Params {
	for key, value := range p {
		if v, ok := toCanonical(value); ok {
			p[key] = v
		}
	}
	return p
}

func toCanonical(value any) (any, bool) {
	if f, ok := toFloat(value); ok {
		return f, true
	}
	switch v := value.(type) {
	case string:
		return v, true
	case []float64:
		return slices.Clone(v), true
	case []int:
		return generics.SliceMap(v, func(e int) float64 { return float64(e) }), true
	case []any:
		out := make([]float64, len(v))
		for ii, e := range v {
			f, ok := toFloat(e)
			if !ok {
				return nil, false
			}
			out[ii] = f
		}
		return out, true
	}
	return nil, false
}

// toFloat converts numeric values, including json.Number, to float64.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	c := make(Params, len(p))
	for key, value := range p {
		if values, ok := value.([]float64); ok {
			value = slices.Clone(values)
		}
		c[key] = value
	}
	return c
}

// Equal returns whether p and other hold the same keys and values.
func (p Params) Equal(other Params) bool {
	if len(p) != len(other) {
		return false
	}
	for key, value := range p {
		otherValue, found := other[key]
		if !found {
			return false
		}
		a, _ := toCanonical(value)
		b, _ := toCanonical(otherValue)
		switch av := a.(type) {
		case []float64:
			bv, ok := b.([]float64)
			if !ok || !slices.Equal(av, bv) {
				return false
			}
		default:
			if a != b {
				return false
			}
		}
	}
	return true
}

// String returns the params in the configuration string format, sorted by key.
func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for key := range generics.SortedKeys(p) {
		parts = append(parts, fmt.Sprintf("%s=%s", key, FormatValue(p[key])))
	}
	return strings.Join(parts, ",")
}

// FormatValue formats a parameter value the same way NewFromConfigString parses it.
func FormatValue(value any) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []float64:
		return strings.Join(generics.SliceMap(v, func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }), ";")
	}
	return fmt.Sprint(value)
}

// PopParamOr is like GetParamOr, but it also deletes from the params map the retrieved parameter.
func PopParamOr[T interface {
	bool | int | float32 | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// GetParamOr attempts to convert a parameter to the given type if the key is present, or returns the
// defaultValue if not.
//
// Ints are rounded from stored floats, since trained values are smoothed averages.
// For bool types, a key without a value is interpreted as true.
func GetParamOr[T interface {
	bool | int | float32 | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	vAny := (any)(defaultValue)
	var t T
	toT := func(v any) T { return v.(T) }
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}
	switch vAny.(type) {
	case string:
		if s, ok := value.(string); ok {
			return toT(s), nil
		}
		return toT(FormatValue(value)), nil
	case int:
		f, err := numberOrParse(key, value)
		if err != nil {
			return t, err
		}
		return toT(int(math.Round(f))), nil
	case float32:
		f, err := numberOrParse(key, value)
		if err != nil {
			return t, err
		}
		return toT(float32(f)), nil
	case float64:
		f, err := numberOrParse(key, value)
		if err != nil {
			return t, err
		}
		return toT(f), nil
	case bool:
		if b, ok := value.(bool); ok {
			return toT(b), nil
		}
		s := strings.ToLower(FormatValue(value))
		if s == "" || s == "true" || s == "1" { // Empty value is considered "true"
			return toT(true), nil
		}
		if s == "false" || s == "0" {
			return toT(false), nil
		}
		return defaultValue, errors.Errorf("failed to parse configuration %s=%q to bool", key, s)
	}
	return defaultValue, nil
}

func numberOrParse(key string, value any) (float64, error) {
	if f, ok := toFloat(value); ok {
		return f, nil
	}
	if s, ok := value.(string); ok && s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to parse configuration %s=%q to a number", key, s)
		}
		return f, nil
	}
	return 0, errors.Errorf("parameter %q holds %T, not a number", key, value)
}

// GetSliceOr returns the array parameter key, or defaultValue if it is not present.
// The returned slice is a copy.
func GetSliceOr(params Params, key string, defaultValue []float64) ([]float64, error) {
	value, exists := params[key]
	if !exists {
		return slices.Clone(defaultValue), nil
	}
	canonical, ok := toCanonical(value)
	values, isSlice := canonical.([]float64)
	if !ok || !isSlice {
		return nil, errors.Errorf("parameter %q holds %T, not a list of numbers", key, value)
	}
	return slices.Clone(values), nil
}
