package retrieval

import "math"

// Normalize scales v to unit length. A zero-norm vector is returned as a copy
// of itself rather than divided by zero; the input slice is never mutated.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return out
	}
	norm := float32(math.Sqrt(float64(sum)))
	for i := range out {
		out[i] /= norm
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b in [-1, 1].
// Either side being empty or zero-norm yields 0. A dimension mismatch is
// tolerated by truncating to the shorter vector.
func CosineSimilarity(a, b []float32) float32 {
	return dot(Normalize(a), Normalize(b))
}

// dot multiplies two unit vectors, truncating to the shorter length.
func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
