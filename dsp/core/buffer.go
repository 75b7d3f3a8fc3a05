package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Zero32 sets all values in buf to 0.
func Zero32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

// Interleave writes frames of the planar channel buffers into dst as
// interleaved float32 samples and returns the number of frames written.
// Channels missing from src are written as silence.
func Interleave(dst []float32, src [][]float64, channels, frames int) int {
	if channels <= 0 {
		return 0
	}

	if maxFrames := len(dst) / channels; frames > maxFrames {
		frames = maxFrames
	}

	for ch := range channels {
		if ch >= len(src) || len(src[ch]) < frames {
			for f := range frames {
				dst[f*channels+ch] = 0
			}

			continue
		}

		in := src[ch]
		for f := range frames {
			dst[f*channels+ch] = float32(in[f])
		}
	}

	return frames
}
