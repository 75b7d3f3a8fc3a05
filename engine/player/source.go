package player

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/dsp/analysis"
	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/soundgraph"
	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrNoHost is returned when a player is created without a host.
	ErrNoHost = errors.New("player: no host audio engine")
	// ErrUnknownSource is returned for source IDs the player does not hold.
	ErrUnknownSource = errors.New("player: unknown source")
	// ErrNotImplemented is returned by Seek for any frame but 0.
	ErrNotImplemented = errors.New("player: not implemented")
)

// Channel names one position in an interleaved frame.
type Channel uint8

const (
	ChannelMono Channel = iota
	ChannelLeft
	ChannelRight
)

// Format describes the PCM a Source produces: interleaved float32.
type Format struct {
	Channels   int
	SampleRate float64
	ChannelMap []Channel
}

// Source presents a graph as a pull-mode PCM source. ReadPCMFrames runs on
// the audio thread and does not allocate; the other methods are for the
// control thread.
type Source struct {
	id        uint32
	graph     *soundgraph.Graph
	channels  int
	blockSize int

	planar [][]float64
	chunk  [][]float64

	suspended atomic.Bool
	gain      atomic.Uint64 // float64 bits
	peak      atomic.Uint64 // float64 bits
}

// NewSource wraps g. channels is 1 or 2; blockSize bounds how many frames
// the graph renders per Process call.
func NewSource(id uint32, g *soundgraph.Graph, channels, blockSize int) (*Source, error) {
	if g == nil {
		return nil, fmt.Errorf("player: source %d: nil graph", id)
	}

	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("player: source %d: %d channels not supported", id, channels)
	}

	if blockSize <= 0 {
		blockSize = core.DefaultBlockSize
	}

	s := &Source{
		id:        id,
		graph:     g,
		channels:  channels,
		blockSize: blockSize,
		planar:    make([][]float64, channels),
		chunk:     make([][]float64, channels),
	}

	for ch := range s.planar {
		s.planar[ch] = make([]float64, blockSize)
	}

	s.gain.Store(math.Float64bits(1))

	return s, nil
}

// ID returns the player-assigned source ID.
func (s *Source) ID() uint32 { return s.id }

// Graph returns the graph the source renders.
func (s *Source) Graph() *soundgraph.Graph { return s.graph }

// DataFormat reports the output format.
func (s *Source) DataFormat() Format {
	f := Format{Channels: s.channels, SampleRate: s.graph.SampleRate()}
	if s.channels == 1 {
		f.ChannelMap = []Channel{ChannelMono}
	} else {
		f.ChannelMap = []Channel{ChannelLeft, ChannelRight}
	}

	return f
}

// Cursor returns the number of frames rendered since the last Seek(0).
func (s *Source) Cursor() uint64 { return s.graph.CurrentFrame() }

// Length is always 0: the output is generated and has no known length.
func (s *Source) Length() uint64 { return 0 }

// Seek rewinds the cursor. Only frame 0 is supported.
func (s *Source) Seek(frame uint64) error {
	if frame != 0 {
		return fmt.Errorf("%w: seek to frame %d", ErrNotImplemented, frame)
	}

	s.graph.ResetFrame()

	return nil
}

// SuspendProcessing makes reads return silence without running the graph.
func (s *Source) SuspendProcessing(suspend bool) { s.suspended.Store(suspend) }

// IsSuspended reports whether processing is suspended.
func (s *Source) IsSuspended() bool { return s.suspended.Load() }

// SetGain sets the linear gain applied to the graph output.
func (s *Source) SetGain(g float64) {
	if math.IsNaN(g) || g < 0 {
		g = 0
	}

	s.gain.Store(math.Float64bits(g))
}

// Gain returns the linear output gain.
func (s *Source) Gain() float64 { return math.Float64frombits(s.gain.Load()) }

// Peak returns the absolute peak of the last block read.
func (s *Source) Peak() float64 { return math.Float64frombits(s.peak.Load()) }

// ReadPCMFrames renders frames interleaved frames into out and returns the
// number written, limited by len(out).
func (s *Source) ReadPCMFrames(out []float32, frames int) int {
	frames = min(frames, len(out)/s.channels)
	peak := 0.0

	for done := 0; done < frames; {
		n := min(s.blockSize, frames-done)

		for ch := range s.planar {
			s.chunk[ch] = s.planar[ch][:n]
		}

		peak = max(peak, s.render(s.chunk, n))
		core.Interleave(out[done*s.channels:], s.chunk, s.channels, n)

		done += n
	}

	s.peak.Store(math.Float64bits(peak))

	return frames
}

// ReadPlanar renders frames frames into the channel buffers of out and
// returns the number written, limited by the shortest buffer.
func (s *Source) ReadPlanar(out [][]float64, frames int) int {
	for ch := range out {
		frames = min(frames, len(out[ch]))
	}

	peak := 0.0

	for done := 0; done < frames; {
		n := min(s.blockSize, frames-done)

		for ch := range s.chunk {
			if ch < len(out) {
				s.chunk[ch] = out[ch][done : done+n]
			} else {
				s.chunk[ch] = s.planar[ch][:n]
			}
		}

		peak = max(peak, s.render(s.chunk, n))
		done += n
	}

	s.peak.Store(math.Float64bits(peak))

	return frames
}

// render fills buf with n frames and returns their peak.
func (s *Source) render(buf [][]float64, n int) float64 {
	if s.suspended.Load() {
		for _, ch := range buf {
			core.Zero(ch[:n])
		}

		return 0
	}

	s.graph.Process(nil, buf, n)

	peak := 0.0
	gain := s.Gain()

	for _, ch := range buf {
		if gain != 1 {
			vecmath.ScaleBlock(ch[:n], ch[:n], gain)
		}

		peak = max(peak, analysis.PeakLevel(ch[:n]))
	}

	return peak
}
