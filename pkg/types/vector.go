package types

import "math"

// Vector is a fixed-length embedding. The dimension is set by the active
// embedding provider at startup and validated on every insert.
type Vector []float32

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|), defined as 0 when either
// norm is 0 or the dimensions differ.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
