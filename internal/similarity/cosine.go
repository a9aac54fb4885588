package similarity

import "math"

// Cosine returns a similarity score in [0, 1] between two vectors, defined as
// 1 - cosine distance. The second return value is false when the inputs are
// not comparable: nil or empty vectors, a length mismatch, or non-finite
// components.
//
// Degenerate cases follow the ranking conventions of the query engine: two
// all-zero vectors are maximally similar (1.0) and a zero vector against a
// non-zero one is maximally dissimilar (0.0). Neither divides by zero.
func Cosine(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsInf(a[i], 0) || math.IsNaN(b[i]) || math.IsInf(b[i], 0) {
			return 0, false
		}
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 && normB == 0 {
		return 1.0, true
	}
	if normA == 0 || normB == 0 {
		return 0.0, true
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// 1 - distance where distance = 1 - cos; opposite vectors land at 0.
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, true
}
