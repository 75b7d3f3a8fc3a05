package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}

func TestZero(t *testing.T) {
	buf := []float64{1, 2, 3}
	Zero(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestZero32(t *testing.T) {
	buf := []float32{1, -2, 3}
	Zero32(buf[1:])

	if buf[0] != 1 || buf[1] != 0 || buf[2] != 0 {
		t.Fatalf("buf = %v, want [1 0 0]", buf)
	}
}

func TestInterleave(t *testing.T) {
	left := []float64{1, 2, 3}
	right := []float64{-1, -2, -3}
	dst := make([]float32, 6)

	n := Interleave(dst, [][]float64{left, right}, 2, 3)
	if n != 3 {
		t.Fatalf("frames = %d, want 3", n)
	}

	want := []float32{1, -1, 2, -2, 3, -3}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestInterleaveMissingChannelIsSilent(t *testing.T) {
	dst := []float32{9, 9, 9, 9}

	n := Interleave(dst, [][]float64{{0.5, 0.25}}, 2, 4)
	if n != 2 {
		t.Fatalf("frames = %d, want 2 (clamped to dst)", n)
	}

	want := []float32{0.5, 0, 0.25, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}
