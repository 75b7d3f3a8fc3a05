package wavesource

import (
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/engine/asset"
)

// DefaultRingFrames is the ring size used by NewSource when frames <= 0.
const DefaultRingFrames = 1024

// RefillFunc tops up s's ring. It returns false only at end of data or on
// error.
type RefillFunc func(s *Source, ctx any) bool

// RefillCallback is a refill function plus the context it is called with.
// Whoever owns the context rebinds the callback when the context moves.
type RefillCallback struct {
	Fn  RefillFunc
	Ctx any
}

// Rebind returns a copy of c whose context is ctx.
func (c RefillCallback) Rebind(ctx any) RefillCallback {
	c.Ctx = ctx
	return c
}

// IsSet reports whether a function is installed.
func (c RefillCallback) IsSet() bool { return c.Fn != nil }

// Source is the per-asset pull point of a voice: a ring, the read cursor
// into decoded data, and the callback that refills the ring.
//
// Data is published by the audio thread after a background load
// completes; everything else is touched by the audio thread only.
type Source struct {
	Channels      *Ring
	TotalFrames   int64
	StartPosition int64
	ReadPosition  int64
	WaveHandle    asset.Handle
	OnRefill      RefillCallback

	data atomic.Pointer[asset.Data]
}

// NewSource returns a source with a stereo ring of frames frames.
func NewSource(frames int) *Source {
	if frames <= 0 {
		frames = DefaultRingFrames
	}

	return &Source{Channels: NewRing(frames, 2)}
}

// Data returns the published data, or nil.
func (s *Source) Data() *asset.Data {
	return s.data.Load()
}

// Publish installs d as the source's data, rewinds to frame 0 and sets the
// default copy refill. A nil d detaches the source.
func (s *Source) Publish(h asset.Handle, d *asset.Data) {
	s.data.Store(d)
	s.WaveHandle = h
	s.StartPosition = 0
	s.ReadPosition = 0
	s.TotalFrames = 0
	s.Channels.Clear()

	if d == nil {
		s.OnRefill = RefillCallback{}
		return
	}

	s.TotalFrames = d.Frames
	s.OnRefill = RefillCallback{Fn: CopyFromData}
}

// Refill calls the installed callback.
func (s *Source) Refill() bool {
	if !s.OnRefill.IsSet() {
		return false
	}

	return s.OnRefill.Fn(s, s.OnRefill.Ctx)
}

// SeekFrame drops buffered frames and moves the read cursor to frame,
// clamped into [0, TotalFrames].
func (s *Source) SeekFrame(frame int64) {
	s.Channels.Clear()
	s.ReadPosition = min(max(frame, 0), s.TotalFrames)
}

// AtEnd reports whether every frame has been copied into the ring.
func (s *Source) AtEnd() bool {
	return s.ReadPosition >= s.TotalFrames
}

// CopyFromData is the default RefillFunc: it copies frames from the
// published data at ReadPosition into the ring's free space.
func CopyFromData(s *Source, _ any) bool {
	d := s.data.Load()
	if d == nil || s.AtEnd() {
		return false
	}

	n := min(int64(s.Channels.Free()), s.TotalFrames-s.ReadPosition)
	if n <= 0 {
		return true
	}

	for i := range n {
		l, r := d.Frame(s.ReadPosition + i)
		s.Channels.PushStereo(l, r)
	}

	s.ReadPosition += n

	return true
}
