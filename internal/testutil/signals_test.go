package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1, 48)
	if len(s) != 48 || s[0] != 0 {
		t.Fatalf("len %d first %v", len(s), s[0])
	}

	if math.Abs(s[12]-1) > 1e-12 {
		t.Fatalf("quarter period = %v, want 1", s[12])
	}

	s32 := Sine32(1000, 48000, 1, 48)
	for i := range s {
		if math.Abs(float64(s32[i])-s[i]) > 1e-7 {
			t.Fatalf("Sine32[%d] = %v, want %v", i, s32[i], s[i])
		}
	}
}

func TestNoiseSeeded(t *testing.T) {
	a := Noise(42, 0.5, 256)
	b := Noise(42, 0.5, 256)
	c := Noise(43, 0.5, 256)

	same := true

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d differs for equal seeds", i)
		}

		if a[i] < -0.5 || a[i] >= 0.5 {
			t.Fatalf("index %d = %v out of range", i, a[i])
		}

		same = same && a[i] == c[i]
	}

	if same {
		t.Fatal("different seeds produced the same noise")
	}
}

func TestDeinterleave(t *testing.T) {
	got := Deinterleave([]float32{1, -1, 2, -2, 3, -3}, 2)

	RequireNearlyEqual(t, got[0], []float32{1, 2, 3}, 0)
	RequireNearlyEqual(t, got[1], []float32{-1, -2, -3}, 0)

	if st := Stereo(4); len(st) != 2 || len(st[1]) != 4 {
		t.Fatalf("Stereo(4) = %v", st)
	}
}
