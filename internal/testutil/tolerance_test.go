package testutil

import "testing"

func TestMaxAbsDiff(t *testing.T) {
	d, err := MaxAbsDiff([]float64{1, 2, 3}, []float64{1, 2.5, 2})
	if err != nil || d != 1 {
		t.Fatalf("MaxAbsDiff() = %v, %v, want 1", d, err)
	}

	if _, err := MaxAbsDiff([]float32{1}, []float32{1, 2}); err == nil {
		t.Fatal("length mismatch not reported")
	}
}

func TestRequireHelpersPass(t *testing.T) {
	RequireSilent(t, make([]float32, 8))
	RequireFinite(t, []float64{0, -1, 1e300})
	RequireNearlyEqual(t, []float64{1, 2}, []float64{1.0005, 2}, 1e-3)
}
