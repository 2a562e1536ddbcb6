package trainer

import (
	"slices"

	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"k8s.io/klog/v2"
)

// SmoothingAlpha is the weight of the suggestions average when blending it with the current value
// of a parameter: new = α·average + (1−α)·current. It bounds how far a single training run can move
// the parameters.
const SmoothingAlpha = 0.3

// Aggregate folds the suggested adjustments into current, which is not modified.
//
// For each numeric parameter of the schema, the values suggested for it are averaged and blended
// with the current value (see SmoothingAlpha), then clamped to the schema bounds. Arrays are
// averaged element-wise. Parameters nobody suggested keep their current value. Suggested keys
// unknown to the schema, non-numeric values and arrays of the wrong length are ignored.
//
// It returns the new parameters and the sorted list of unknown keys that were ignored.
func Aggregate(schema parameters.Schema, current parameters.Params, suggestions []*Suggestion) (parameters.Params, []string) {
	sums := make(map[string][]float64)
	counts := make(map[string]int)
	unknown := generics.MakeSet[string]()
	for _, s := range suggestions {
		if s == nil {
			continue
		}
		for key, value := range s.SuggestedAdjustments {
			spec, found := schema.Lookup(key)
			if !found {
				unknown.Insert(key)
				continue
			}
			if !spec.Numeric() {
				continue
			}
			values, ok := numericValues(spec, value)
			if !ok {
				klog.V(1).Infof("Ignoring suggested %s=%v: not a valid %s", key, value, spec.Kind)
				continue
			}
			sum := sums[key]
			if sum == nil {
				sum = make([]float64, len(values))
				sums[key] = sum
			}
			for ii, v := range values {
				sum[ii] += v
			}
			counts[key]++
		}
	}

	merged := current.Clone()
	if merged == nil {
		merged = make(parameters.Params)
	}
	for key, sum := range sums {
		spec, _ := schema.Lookup(key)
		n := float64(counts[key])
		currentValues, hasCurrent := numericValues(spec, current[key])
		blended := make([]float64, len(sum))
		for ii, total := range sum {
			avg := total / n
			if hasCurrent {
				avg = SmoothingAlpha*avg + (1-SmoothingAlpha)*currentValues[ii]
			}
			blended[ii] = spec.Clamp(avg)
		}
		if spec.Kind == parameters.Array {
			merged[key] = blended
		} else {
			merged[key] = blended[0]
		}
	}

	unknownKeys := slices.Collect(generics.SortedKeys(unknown))
	if len(unknownKeys) > 0 {
		klog.Warningf("Ignoring suggested parameters unknown to the schema: %v", unknownKeys)
	}
	return merged, unknownKeys
}

// numericValues returns the value of a numeric parameter as a slice: of one element for scalars, or
// of the schema length for arrays.
func numericValues(spec parameters.Spec, value any) ([]float64, bool) {
	switch v := value.(type) {
	case float64:
		if spec.Kind == parameters.Array {
			return nil, false
		}
		return []float64{v}, true
	case []float64:
		if spec.Kind != parameters.Array || len(v) != spec.Length {
			return nil, false
		}
		return v, true
	}
	return nil, false
}
