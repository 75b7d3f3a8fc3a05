// Package hostaudio plays player sources on the system audio device.
//
// Every attached source gets its own device stream; the device mixes
// them. Build with the headless tag to drop the device backend.
package hostaudio

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/engine/player"
)

const bytesPerSample = 4

// stream adapts a Source to the io.Reader the device pulls float32 LE
// bytes from. Read runs on the device thread.
type stream struct {
	src    atomic.Pointer[player.Source]
	master *atomic.Uint64 // float64 bits, shared by the host
	buf    []float32
}

func newStream(src *player.Source, master *atomic.Uint64, frames int) *stream {
	s := &stream{
		master: master,
		buf:    make([]float32, frames*src.DataFormat().Channels),
	}
	s.src.Store(src)

	return s
}

// Read fills p with whole frames. A detached stream reads silence.
func (s *stream) Read(p []byte) (int, error) {
	src := s.src.Load()
	if src == nil {
		clear(p)
		return len(p), nil
	}

	channels := src.DataFormat().Channels
	frameBytes := channels * bytesPerSample
	frames := len(p) / frameBytes

	if frames == 0 {
		clear(p)
		return len(p), nil
	}

	if need := frames * channels; len(s.buf) < need {
		s.buf = make([]float32, need)
	}

	n := src.ReadPCMFrames(s.buf[:frames*channels], frames)
	gain := float32(math.Float64frombits(s.master.Load()))

	for i, v := range s.buf[:n*channels] {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v*gain))
	}

	written := n * frameBytes
	clear(p[written:])

	return len(p), nil
}

func (s *stream) detach() { s.src.Store(nil) }
