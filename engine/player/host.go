package player

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// Host is the audio engine sources are played through.
type Host interface {
	SampleRate() float64
	Channels() int
	// Attach registers a source. The host pulls from it only between
	// Start and Stop.
	Attach(src *Source) error
	Detach(id uint32)
	Start(id uint32) error
	Stop(id uint32) error
	SetMasterVolume(v float64)
}

// OfflineHost mixes its started sources on demand. Render and Mix stand
// in for the audio callback.
type OfflineHost struct {
	rate     float64
	channels int

	mu      sync.Mutex
	sources map[uint32]*Source
	active  map[uint32]bool
	master  float64

	mix     [][]float64
	scratch [][]float64
}

// NewOfflineHost creates a host at sampleRate with 1 or 2 channels.
func NewOfflineHost(sampleRate float64, channels int) *OfflineHost {
	if channels < 1 || channels > 2 {
		channels = 2
	}

	if sampleRate <= 0 {
		sampleRate = core.DefaultProcessorConfig().SampleRate
	}

	return &OfflineHost{
		rate:     sampleRate,
		channels: channels,
		sources:  make(map[uint32]*Source),
		active:   make(map[uint32]bool),
		master:   1,
	}
}

func (h *OfflineHost) SampleRate() float64 { return h.rate }

func (h *OfflineHost) Channels() int { return h.channels }

func (h *OfflineHost) Attach(src *Source) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sources[src.ID()]; ok {
		return fmt.Errorf("player: source %d already attached", src.ID())
	}

	h.sources[src.ID()] = src

	return nil
}

func (h *OfflineHost) Detach(id uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sources, id)
	delete(h.active, id)
}

func (h *OfflineHost) Start(id uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sources[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSource, id)
	}

	h.active[id] = true

	return nil
}

func (h *OfflineHost) Stop(id uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.active, id)

	return nil
}

func (h *OfflineHost) SetMasterVolume(v float64) {
	h.mu.Lock()
	h.master = v
	h.mu.Unlock()
}

// MasterVolume returns the last volume set.
func (h *OfflineHost) MasterVolume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.master
}

// Render mixes frames frames of every started source into planar
// buffers owned by the host; they are valid until the next call.
func (h *OfflineHost) Render(frames int) [][]float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.mix = ensure(h.mix, h.channels, frames)
	h.scratch = ensure(h.scratch, h.channels, frames)

	for _, ch := range h.mix {
		core.Zero(ch)
	}

	ids := make([]uint32, 0, len(h.active))
	for id := range h.active {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		n := h.sources[id].ReadPlanar(h.scratch, frames)

		for ch := range h.mix {
			vecmath.AddBlockInPlace(h.mix[ch][:n], h.scratch[ch][:n])
		}
	}

	if h.master != 1 {
		for _, ch := range h.mix {
			vecmath.ScaleBlock(ch, ch, h.master)
		}
	}

	return h.mix
}

// Mix renders frames frames and interleaves them into dst. Samples of dst
// past the rendered frames are zeroed.
func (h *OfflineHost) Mix(dst []float32, frames int) int {
	frames = min(frames, len(dst)/h.channels)
	n := core.Interleave(dst, h.Render(frames), h.channels, frames)
	core.Zero32(dst[n*h.channels:])

	return n
}

func ensure(bufs [][]float64, channels, frames int) [][]float64 {
	if len(bufs) != channels {
		bufs = make([][]float64, channels)
	}

	for ch := range bufs {
		bufs[ch] = core.EnsureLen(bufs[ch], frames)
	}

	return bufs
}
