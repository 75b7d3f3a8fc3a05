package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireNearlyEqual fails t when got and want differ in length or any
// pair differs by more than eps.
func RequireNearlyEqual[T Sample](t *testing.T, got, want []T, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if d := math.Abs(float64(got[i]) - float64(want[i])); d > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > %v)", i, got[i], want[i], d, eps)
		}
	}
}

// RequireSilent fails t unless every sample is exactly zero.
func RequireSilent[T Sample](t *testing.T, data []T) {
	t.Helper()

	for i, v := range data {
		if v != 0 {
			t.Fatalf("index %d: got %v, want silence", i, v)
		}
	}
}

// RequireFinite fails t on any NaN or Inf.
func RequireFinite[T Sample](t *testing.T, data []T) {
	t.Helper()

	for i, v := range data {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// MaxAbsDiff returns the largest absolute difference between a and b.
func MaxAbsDiff[T Sample](a, b []T) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}

	worst := 0.0
	for i := range a {
		worst = max(worst, math.Abs(float64(a[i])-float64(b[i])))
	}

	return worst, nil
}
