package spec

import (
	"math"
	"reflect"
)

// FloatIn builds a spec for float64 values in [min, max]. Infinities and
// NaN are rejected unless allowed explicitly.
func FloatIn(min, max float64, infinite, nan bool) Spec {
	if min > max {
		badSpec("FloatIn requires min <= max, got %v > %v", min, max)
	}
	preds := []any{reflect.TypeOf(float64(0))}
	if !nan {
		preds = append(preds, func(v any) bool { return !math.IsNaN(v.(float64)) })
	}
	if !infinite {
		preds = append(preds, func(v any) bool { return !math.IsInf(v.(float64), 0) })
	}
	preds = append(preds,
		func(v any) bool { f := v.(float64); return math.IsNaN(f) || f >= min },
		func(v any) bool { f := v.(float64); return math.IsNaN(f) || f <= max },
	)
	span := max - min
	return WithGen(And(preds...), func(s *Source) any {
		return min + s.Float64()*span
	})
}
