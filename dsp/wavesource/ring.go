// Package wavesource holds the per-voice buffers that sit between decoded
// asset data and the nodes that play it.
package wavesource

// Ring is a fixed-size circular buffer of interleaved float32 samples.
// Pushing past capacity drops the oldest frames; it never blocks and never
// allocates after NewRing. A Ring is owned by the audio thread.
type Ring struct {
	buf      []float32
	channels int
	read     int // sample index
	count    int // samples held
}

// NewRing returns a ring holding frames frames of channels samples each.
func NewRing(frames, channels int) *Ring {
	frames = max(frames, 1)
	channels = max(channels, 1)

	return &Ring{
		buf:      make([]float32, frames*channels),
		channels: channels,
	}
}

// Channels returns the samples per frame.
func (r *Ring) Channels() int { return r.channels }

// Capacity returns the size in frames.
func (r *Ring) Capacity() int { return len(r.buf) / r.channels }

// Available returns the number of whole frames that can be read.
func (r *Ring) Available() int { return r.count / r.channels }

// Free returns the number of frames that can be pushed without loss.
func (r *Ring) Free() int { return (len(r.buf) - r.count) / r.channels }

// Clear drops all buffered samples.
func (r *Ring) Clear() {
	r.read = 0
	r.count = 0
}

// Push appends interleaved samples, overwriting the oldest when full.
// Only whole frames are written.
func (r *Ring) Push(samples []float32) {
	samples = samples[:len(samples)-len(samples)%r.channels]
	if len(samples) > len(r.buf) {
		samples = samples[len(samples)-len(r.buf):]
	}

	for _, s := range samples {
		r.push(s)
	}
}

// PushFrame appends one frame. Missing channels are written as zero.
func (r *Ring) PushFrame(frame []float32) {
	for ch := range r.channels {
		var s float32
		if ch < len(frame) {
			s = frame[ch]
		}

		r.push(s)
	}
}

// PushStereo appends one frame from two samples. For a mono ring only l
// is kept.
func (r *Ring) PushStereo(l, rs float32) {
	r.push(l)

	if r.channels > 1 {
		r.push(rs)

		for ch := 2; ch < r.channels; ch++ {
			r.push(0)
		}
	}
}

func (r *Ring) push(s float32) {
	size := len(r.buf)
	if r.count == size {
		r.read = (r.read + 1) % size
		r.count--
	}

	r.buf[(r.read+r.count)%size] = s
	r.count++
}

// Get reads up to len(dst) samples, whole frames only, and returns how
// many samples were read.
func (r *Ring) Get(dst []float32) int {
	n := min(len(dst)-len(dst)%r.channels, r.count)
	size := len(r.buf)

	for i := range n {
		dst[i] = r.buf[(r.read+i)%size]
	}

	r.read = (r.read + n) % size
	r.count -= n

	return n
}

// GetFrame reads one frame into dst. It returns false when no whole frame
// is buffered; dst is then left untouched.
func (r *Ring) GetFrame(dst []float32) bool {
	if r.count < r.channels {
		return false
	}

	size := len(r.buf)
	for ch := range r.channels {
		if ch < len(dst) {
			dst[ch] = r.buf[(r.read+ch)%size]
		}
	}

	r.read = (r.read + r.channels) % size
	r.count -= r.channels

	return true
}

// GetStereo reads one frame as a stereo pair. A mono ring returns the
// sample on both sides.
func (r *Ring) GetStereo() (l, rs float32, ok bool) {
	if r.count < r.channels {
		return 0, 0, false
	}

	size := len(r.buf)
	l = r.buf[r.read]
	rs = l

	if r.channels > 1 {
		rs = r.buf[(r.read+1)%size]
	}

	r.read = (r.read + r.channels) % size
	r.count -= r.channels

	return l, rs, true
}
