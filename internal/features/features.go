// Package features defines the canonical feature contract shared by
// training, evaluation, and prediction. The order of Names is the binding
// contract between a trained model and inference-time vectors.
package features

import (
	"encoding/json"
	"strconv"
)

// Count is the fixed length of every feature vector.
const Count = 10

var names = [Count]string{
	"work_hours_per_week",
	"meeting_hours_per_week",
	"email_count_per_day",
	"stress_level",
	"workload_score",
	"work_life_balance",
	"team_size",
	"remote_work_percentage",
	"overtime_hours",
	"deadline_pressure",
}

// Names returns the canonical feature names in contract order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Vectorize maps a raw record onto the canonical vector. Missing or
// non-numeric fields default to 0.0; the result always has Count elements.
func Vectorize(raw map[string]any) []float64 {
	v, _ := VectorizeReport(raw)
	return v
}

// VectorizeReport is Vectorize plus the list of fields that were defaulted,
// so callers can surface silent data-quality gaps instead of masking them.
func VectorizeReport(raw map[string]any) ([]float64, []string) {
	vec := make([]float64, Count)
	var defaulted []string
	for i, name := range names {
		val, ok := raw[name]
		if !ok {
			defaulted = append(defaulted, name)
			continue
		}
		f, ok := ToFloat(val)
		if !ok {
			defaulted = append(defaulted, name)
			continue
		}
		vec[i] = f
	}
	return vec, defaulted
}

// ToFloat coerces the value types seen in decoded JSON and CSV records.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
