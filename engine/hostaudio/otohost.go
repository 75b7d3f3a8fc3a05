//go:build !headless

package hostaudio

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/engine/player"
	"github.com/ebitengine/oto/v3"
)

// DefaultBufferSize is the device buffer duration.
const DefaultBufferSize = 40 * time.Millisecond

type voice struct {
	stream *stream
	out    *oto.Player
}

// Host is a player.Host backed by an oto context.
type Host struct {
	ctx      *oto.Context
	rate     float64
	channels int
	frames   int
	logger   *slog.Logger

	master atomic.Uint64

	mu     sync.Mutex
	voices map[uint32]*voice
}

// Option configures New.
type Option func(*options)

type options struct {
	buffer time.Duration
	logger *slog.Logger
}

// WithBufferSize sets the device buffer duration.
func WithBufferSize(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.buffer = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New opens the audio device. Only one oto context may exist per process.
func New(sampleRate int, channels int, opts ...Option) (*Host, error) {
	o := options{buffer: DefaultBufferSize, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("hostaudio: %d channels not supported", channels)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   o.buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("hostaudio: open device: %w", err)
	}

	<-ready

	h := &Host{
		ctx:      ctx,
		rate:     float64(sampleRate),
		channels: channels,
		frames:   max(int(o.buffer.Seconds()*float64(sampleRate)), core.DefaultBlockSize),
		logger:   o.logger,
		voices:   make(map[uint32]*voice),
	}
	h.master.Store(math.Float64bits(1))

	return h, nil
}

func (h *Host) SampleRate() float64 { return h.rate }

func (h *Host) Channels() int { return h.channels }

func (h *Host) Attach(src *player.Source) error {
	if src.DataFormat().Channels != h.channels {
		return fmt.Errorf("hostaudio: source %d has %d channels, device %d",
			src.ID(), src.DataFormat().Channels, h.channels)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.voices[src.ID()]; ok {
		return fmt.Errorf("hostaudio: source %d already attached", src.ID())
	}

	st := newStream(src, &h.master, h.frames)
	h.voices[src.ID()] = &voice{stream: st, out: h.ctx.NewPlayer(st)}

	return nil
}

func (h *Host) Detach(id uint32) {
	h.mu.Lock()
	v, ok := h.voices[id]
	delete(h.voices, id)
	h.mu.Unlock()

	if !ok {
		return
	}

	v.stream.detach()

	if err := v.out.Close(); err != nil {
		h.logger.Warn("hostaudio: close stream", "source", id, "error", err)
	}
}

func (h *Host) voice(id uint32) (*voice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.voices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", player.ErrUnknownSource, id)
	}

	return v, nil
}

func (h *Host) Start(id uint32) error {
	v, err := h.voice(id)
	if err != nil {
		return err
	}

	if err := h.ctx.Err(); err != nil {
		return fmt.Errorf("hostaudio: device: %w", err)
	}

	v.out.Play()

	return nil
}

func (h *Host) Stop(id uint32) error {
	v, err := h.voice(id)
	if err != nil {
		return err
	}

	v.out.Pause()

	return nil
}

// SetMasterVolume scales every stream. It is applied as samples are read,
// so changes take effect within one device buffer.
func (h *Host) SetMasterVolume(vol float64) {
	h.master.Store(math.Float64bits(vol))
}

// Suspend pauses the device.
func (h *Host) Suspend() error { return h.ctx.Suspend() }

// Resume resumes the device.
func (h *Host) Resume() error { return h.ctx.Resume() }

// Close detaches every source.
func (h *Host) Close() error {
	h.mu.Lock()
	ids := make([]uint32, 0, len(h.voices))
	for id := range h.voices {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.Detach(id)
	}

	return nil
}

var _ player.Host = (*Host)(nil)
