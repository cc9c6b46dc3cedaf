package features

import "math"

// Cosine returns the cosine similarity of two vectors in [-1, 1]. Mismatched
// lengths or a zero-magnitude operand yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Blend moves old toward observed by the given rate; rate 0 keeps old and
// rate 1 adopts observed.
func Blend(old, observed, rate float64) float64 {
	return old*(1-rate) + observed*rate
}

// BlendVector blends element-wise into a fresh slice, leaving both inputs
// untouched. Mismatched lengths return a copy of old unchanged.
func BlendVector(old, observed []float64, rate float64) []float64 {
	out := make([]float64, len(old))
	if len(old) != len(observed) {
		copy(out, old)
		return out
	}
	for i := range old {
		out[i] = Blend(old[i], observed[i], rate)
	}
	return out
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
