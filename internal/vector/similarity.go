// Package vector provides normalized-vector math, brute-force top-k
// search, and the float32 blob codec used by the store.
package vector

import "math"

// InnerProduct returns the inner product of two vectors. For unit-length
// vectors this equals cosine similarity.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of x. A zero vector is returned
// unchanged.
func Normalize(x []float32) []float32 {
	out := make([]float32, len(x))
	norm := L2Norm(x)
	if norm == 0 {
		copy(out, x)
		return out
	}
	inv := 1.0 / norm
	for i, v := range x {
		out[i] = float32(float64(v) * inv)
	}
	return out
}
