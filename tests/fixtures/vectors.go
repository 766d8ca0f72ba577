package fixtures

import "math"

// GenerateTestVector returns a deterministic vector [seed, seed+0.001, ...].
func GenerateTestVector(dimension int, seed float32) []float32 {
	vec := make([]float32, dimension)
	for i := range vec {
		vec[i] = seed + float32(i)*0.001
	}
	return vec
}

// ZeroVector has no direction; its cosine with anything is 0.
func ZeroVector(dimension int) []float32 {
	return make([]float32, dimension)
}

// UnitVector has 1.0 at index and 0 elsewhere. An out-of-range index yields a zero vector.
func UnitVector(dimension, index int) []float32 {
	vec := make([]float32, dimension)
	if index >= 0 && index < dimension {
		vec[index] = 1.0
	}
	return vec
}

// AngleVector is the 2D unit vector at angle radians; its cosine with
// UnitVector(2, 0) is math.Cos(angle).
func AngleVector(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

// NormalizedVector is GenerateTestVector scaled to unit length.
func NormalizedVector(dimension int, seed float32) []float32 {
	vec := GenerateTestVector(dimension, seed)
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if norm := math.Sqrt(sum); norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
