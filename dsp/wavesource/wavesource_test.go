package wavesource

import (
	"testing"

	"github.com/cwbudde/algo-soundgraph/engine/asset"
)

func TestRingPushGet(t *testing.T) {
	r := NewRing(4, 2)

	r.Push([]float32{1, 2, 3, 4})

	if got := r.Available(); got != 2 {
		t.Fatalf("Available() = %d, want 2", got)
	}

	dst := make([]float32, 3)
	if n := r.Get(dst); n != 2 || dst[0] != 1 || dst[1] != 2 {
		t.Fatalf("Get() = %d %v, want whole frame [1 2]", n, dst)
	}

	frame := make([]float32, 2)
	if !r.GetFrame(frame) || frame[0] != 3 || frame[1] != 4 {
		t.Fatalf("GetFrame() = %v", frame)
	}

	if r.GetFrame(frame) {
		t.Fatal("GetFrame() on empty ring = true")
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	r := NewRing(3, 1)

	r.Push([]float32{1, 2, 3, 4, 5})

	if r.Available() != 3 {
		t.Fatalf("Available() = %d, want 3", r.Available())
	}

	dst := make([]float32, 3)
	r.Get(dst)

	want := []float32{3, 4, 5}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Get() = %v, want %v", dst, want)
		}
	}
}

func TestRingWrapsAround(t *testing.T) {
	r := NewRing(4, 1)
	dst := make([]float32, 1)

	for i := range 20 {
		r.PushFrame([]float32{float32(i)})
		if !r.GetFrame(dst) || dst[0] != float32(i) {
			t.Fatalf("frame %d = %v", i, dst[0])
		}
	}

	r.PushStereo(7, 9)
	if l, rs, ok := r.GetStereo(); !ok || l != 7 || rs != 7 {
		t.Fatalf("mono GetStereo() = %v,%v,%v", l, rs, ok)
	}
}

func TestRingDoesNotAllocate(t *testing.T) {
	r := NewRing(64, 2)
	frame := []float32{0.5, -0.5}

	allocs := testing.AllocsPerRun(100, func() {
		r.PushFrame(frame)
		r.PushStereo(1, 2)
		r.GetFrame(frame)
		_, _, _ = r.GetStereo()
	})

	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}

func rampData(t *testing.T, frames int) *asset.Data {
	t.Helper()

	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(i)
	}

	d, err := asset.NewData(samples, 1, 48000)
	if err != nil {
		t.Fatalf("NewData() error = %v", err)
	}

	return d
}

func TestSourceRefillCopiesUntilEOF(t *testing.T) {
	s := NewSource(8)
	s.Publish(5, rampData(t, 20))

	if s.TotalFrames != 20 || s.WaveHandle != 5 {
		t.Fatalf("TotalFrames, WaveHandle = %d, %d", s.TotalFrames, s.WaveHandle)
	}

	var got []float32

	for {
		if s.Channels.Available() == 0 && !s.Refill() {
			break
		}

		l, r, ok := s.Channels.GetStereo()
		if !ok {
			t.Fatal("GetStereo() = false after Refill")
		}

		if l != r {
			t.Fatalf("mono frame split: %v %v", l, r)
		}

		got = append(got, l)
	}

	if len(got) != 20 {
		t.Fatalf("read %d frames, want 20", len(got))
	}

	for i, v := range got {
		if v != float32(i) {
			t.Fatalf("frame %d = %v", i, v)
		}
	}
}

func TestSourceSeekFrame(t *testing.T) {
	s := NewSource(4)
	s.Publish(1, rampData(t, 10))
	s.Refill()

	s.SeekFrame(7)

	if s.Channels.Available() != 0 || s.ReadPosition != 7 {
		t.Fatalf("after SeekFrame: avail=%d pos=%d", s.Channels.Available(), s.ReadPosition)
	}

	s.Refill()

	if l, _, _ := s.Channels.GetStereo(); l != 7 {
		t.Fatalf("first frame after SeekFrame = %v, want 7", l)
	}

	s.SeekFrame(100)
	if !s.AtEnd() {
		t.Fatal("SeekFrame past end not clamped to end")
	}

	s.SeekFrame(-3)
	if s.ReadPosition != 0 {
		t.Fatalf("SeekFrame(-3) pos = %d, want 0", s.ReadPosition)
	}
}

func TestSourceWithoutDataRefillFails(t *testing.T) {
	s := NewSource(0)

	if s.Refill() {
		t.Fatal("Refill() without data = true")
	}

	if s.Channels.Capacity() != DefaultRingFrames {
		t.Fatalf("Capacity() = %d", s.Channels.Capacity())
	}
}

func TestRefillCallbackRebind(t *testing.T) {
	type owner struct{ calls int }

	a, b := &owner{}, &owner{}
	cb := RefillCallback{Fn: func(_ *Source, ctx any) bool {
		ctx.(*owner).calls++
		return true
	}, Ctx: a}

	s := NewSource(4)
	s.OnRefill = cb.Rebind(b)
	s.Refill()

	if a.calls != 0 || b.calls != 1 {
		t.Fatalf("calls a=%d b=%d, want 0 and 1", a.calls, b.calls)
	}
}
