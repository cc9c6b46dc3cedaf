package features

import (
	"math"
	"testing"
)

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float64{3, 1, 0, 1, 0, 14, 2}
	got := Cosine(v, v)
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected similarity 1 for identical vectors, got %v", got)
	}
}

func TestCosineOrthogonalVectors(t *testing.T) {
	got := Cosine([]float64{1, 0}, []float64{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Fatalf("expected similarity 0 for orthogonal vectors, got %v", got)
	}
}

func TestCosineDegenerateInputs(t *testing.T) {
	if got := Cosine([]float64{1, 2}, []float64{1, 2, 3}); got != 0 {
		t.Fatalf("mismatched lengths should yield 0, got %v", got)
	}
	if got := Cosine([]float64{0, 0, 0}, []float64{1, 2, 3}); got != 0 {
		t.Fatalf("zero-magnitude operand should yield 0, got %v", got)
	}
	if got := Cosine(nil, nil); got != 0 {
		t.Fatalf("empty vectors should yield 0, got %v", got)
	}
}

func TestBlendMovesTowardObserved(t *testing.T) {
	got := Blend(0.5, 1.0, 0.1)
	if math.Abs(got-0.55) > 1e-9 {
		t.Fatalf("expected 0.55, got %v", got)
	}
	if got := Blend(0.5, 1.0, 0); got != 0.5 {
		t.Fatalf("rate 0 should keep old, got %v", got)
	}
	if got := Blend(0.5, 1.0, 1); got != 1.0 {
		t.Fatalf("rate 1 should adopt observed, got %v", got)
	}
}

func TestBlendVectorLeavesInputsUntouched(t *testing.T) {
	old := []float64{0, 1}
	observed := []float64{1, 0}
	out := BlendVector(old, observed, 0.5)
	if math.Abs(out[0]-0.5) > 1e-9 || math.Abs(out[1]-0.5) > 1e-9 {
		t.Fatalf("unexpected blend result: %v", out)
	}
	out[0] = 99
	if old[0] != 0 || observed[0] != 1 {
		t.Fatalf("blend mutated its inputs: old=%v observed=%v", old, observed)
	}
}

func TestBlendVectorMismatchedLengths(t *testing.T) {
	old := []float64{1, 2, 3}
	out := BlendVector(old, []float64{1}, 0.5)
	if len(out) != len(old) {
		t.Fatalf("expected copy of old, got %v", out)
	}
	for i := range old {
		if out[i] != old[i] {
			t.Fatalf("expected copy of old at %d, got %v", i, out[i])
		}
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.5, 1},
	}
	for _, tc := range cases {
		if got := Clamp01(tc.in); got != tc.want {
			t.Fatalf("Clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
