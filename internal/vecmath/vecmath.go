// Package vecmath provides the vector helpers used by ranking, including
// lenient coercion of stored or externally supplied embeddings.
//
// Every function here is total. Malformed input degrades to a neutral
// value (zero similarity, shorter or empty vector) instead of an error.
package vecmath

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Normalize returns v scaled to unit length.
// A zero vector is returned unchanged (divided by 1).
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}

	mag := math.Sqrt(sum)
	if mag == 0 {
		mag = 1
	}

	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / mag
	}
	return out
}

// Magnitude returns the Euclidean norm of v
func Magnitude(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the dot product of the normalized inputs.
// It returns 0 when either vector is empty or their lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	na := Normalize(a)
	nb := Normalize(b)

	var dot float64
	for i := range na {
		dot += na[i] * nb[i]
	}
	return dot
}

// Coerce drops NaN and infinite elements, keeping order
func Coerce(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		out = append(out, x)
	}
	return out
}

// CoerceAny converts an arbitrary decoded sequence into a numeric vector.
// Numbers and numeric strings are kept; anything else is dropped.
func CoerceAny(raw []any) []float64 {
	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		f, ok := toFloat(item)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ParseJSON decodes a JSON array into a coerced numeric vector.
// Invalid JSON or a non-array document yields an empty vector.
func ParseJSON(data []byte) []float64 {
	if len(data) == 0 {
		return []float64{}
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return []float64{}
	}
	return CoerceAny(raw)
}

// MarshalJSON encodes a vector as a JSON array, never null
func MarshalJSON(v []float64) ([]byte, error) {
	if v == nil {
		v = []float64{}
	}
	return json.Marshal(Coerce(v))
}

func toFloat(item any) (float64, bool) {
	switch n := item.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
