// Package player runs sound graphs as voices on a host audio engine.
//
// A Player owns Sources (pull-mode adapters around graph instances) and
// their Sounds (voices). The host pulls audio on its own thread; Update,
// called from the control thread, drains the message ring graphs post
// events and log lines to, and advances voice fades.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/msgring"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
	"github.com/cwbudde/algo-soundgraph/dsp/soundgraph"
	"github.com/cwbudde/algo-soundgraph/engine/asset"
)

// DefaultRingCapacity is the message ring size.
const DefaultRingCapacity = 1024

// Event is a graph output event delivered on the control thread.
type Event struct {
	Source   uint32
	Node     uint64
	Endpoint ident.ID
	Frame    uint64
	Value    float32
}

// Option configures New.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	blockSize int
	ringSize  int
	onEvent   func(Event)
	loader    asset.Submitter
	registry  *node.Registry
}

// WithLogger sets the logger ring messages are forwarded to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithBlockSize sets the graph block size (default 512).
func WithBlockSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.blockSize = n
		}
	}
}

// WithRingCapacity sets the message ring size.
func WithRingCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.ringSize = n
		}
	}
}

// WithEventHandler receives graph events during Update.
func WithEventHandler(fn func(Event)) Option {
	return func(c *config) { c.onEvent = fn }
}

// WithLoader sets the asset loader wave players use.
func WithLoader(l asset.Submitter) Option {
	return func(c *config) { c.loader = l }
}

// WithRegistry sets the node registry graphs are built from.
func WithRegistry(r *node.Registry) Option {
	return func(c *config) { c.registry = r }
}

// Player is the registry of live voices.
type Player struct {
	host   Host
	logger *slog.Logger
	cfg    config
	ring   *msgring.Ring

	mu      sync.Mutex
	sounds  map[uint32]*Sound
	nextID  uint32
	master  float64
	dropped uint64
}

// New creates a player on host.
func New(host Host, opts ...Option) (*Player, error) {
	if host == nil {
		return nil, ErrNoHost
	}

	cfg := config{blockSize: core.DefaultBlockSize, ringSize: DefaultRingCapacity}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &Player{
		host:   host,
		logger: cfg.logger,
		cfg:    cfg,
		ring:   msgring.New(cfg.ringSize),
		sounds: make(map[uint32]*Sound),
		master: 1,
	}, nil
}

// Ring returns the message ring shared by all sources.
func (p *Player) Ring() *msgring.Ring { return p.ring }

// CreateSource instantiates p at the host's sample rate and registers it
// suspended. The returned ID is never reused.
func (p *Player) CreateSource(proto *soundgraph.Prototype) (*Sound, error) {
	opts := []soundgraph.Option{
		soundgraph.WithProcessorOptions(
			core.WithSampleRate(p.host.SampleRate()),
			core.WithBlockSize(p.cfg.blockSize),
		),
		soundgraph.WithRing(p.ring),
		soundgraph.WithRegistry(p.cfg.registry),
	}

	if p.cfg.loader != nil {
		opts = append(opts, soundgraph.WithLoader(p.cfg.loader))
	}

	g, err := soundgraph.Instantiate(proto, opts...)
	if err != nil {
		return nil, fmt.Errorf("player: create source: %w", err)
	}

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	g.SetSourceID(id)

	src, err := NewSource(id, g, p.host.Channels(), p.cfg.blockSize)
	if err != nil {
		_ = g.Close()
		return nil, err
	}

	src.SuspendProcessing(true)

	if err := p.host.Attach(src); err != nil {
		_ = g.Close()
		return nil, fmt.Errorf("player: attach source %d: %w", id, err)
	}

	s := newSound(src, p.host)

	p.mu.Lock()
	p.sounds[id] = s
	p.mu.Unlock()

	p.logger.Debug("player: source created", "source", id, "graph", g.Name())

	return s, nil
}

// Sound returns the voice with the given ID.
func (p *Player) Sound(id uint32) (*Sound, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sounds[id]

	return s, ok
}

// IDs returns the live source IDs in creation order.
func (p *Player) IDs() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.idsLocked()
}

func (p *Player) idsLocked() []uint32 {
	ids := make([]uint32, 0, len(p.sounds))
	for id := range p.sounds {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

func (p *Player) sound(id uint32) (*Sound, error) {
	s, ok := p.Sound(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSource, id)
	}

	return s, nil
}

// Play starts the voice id.
func (p *Player) Play(id uint32) error {
	s, err := p.sound(id)
	if err != nil {
		return err
	}

	if err := s.Play(); err != nil {
		p.logger.Warn("player: play failed", "source", id, "error", err)
		return err
	}

	return nil
}

// Pause suspends the voice id.
func (p *Player) Pause(id uint32) error {
	s, err := p.sound(id)
	if err != nil {
		return err
	}

	s.Pause()

	return nil
}

// Stop stops the voice id immediately.
func (p *Player) Stop(id uint32) error {
	s, err := p.sound(id)
	if err != nil {
		return err
	}

	s.Stop()

	return nil
}

// RemoveSource stops, detaches and closes the voice id.
func (p *Player) RemoveSource(id uint32) error {
	p.mu.Lock()
	s, ok := p.sounds[id]
	delete(p.sounds, id)
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSource, id)
	}

	return p.release(s)
}

func (p *Player) release(s *Sound) error {
	s.Stop()
	p.host.Detach(s.ID())

	return s.source.graph.Close()
}

// SetMasterVolume clamps v to [0, 2] and applies it to the host.
func (p *Player) SetMasterVolume(v float64) {
	v = clampVolume(v)

	p.mu.Lock()
	p.master = v
	p.mu.Unlock()

	p.host.SetMasterVolume(v)
}

// MasterVolume returns the last master volume set.
func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.master
}

// Update drains the message ring, forwarding log lines to the logger and
// events to the event handler, then advances every voice by dt seconds.
func (p *Player) Update(dt float64) {
	p.ring.Drain(p.dispatch)

	if d := p.ring.Dropped(); d != p.dropped {
		p.logger.Warn("player: message ring overflowed", "dropped", d-p.dropped)
		p.dropped = d
	}

	p.mu.Lock()
	sounds := make([]*Sound, 0, len(p.sounds))
	for _, id := range p.idsLocked() {
		sounds = append(sounds, p.sounds[id])
	}
	p.mu.Unlock()

	for _, s := range sounds {
		s.Update(dt)
	}
}

func (p *Player) dispatch(m *msgring.Message) {
	if m.IsEvent {
		if p.cfg.onEvent != nil {
			p.cfg.onEvent(Event{Source: m.Source, Node: m.Node, Endpoint: m.Endpoint, Frame: m.Frame, Value: m.Value})
		}

		return
	}

	p.logger.Log(context.Background(), slogLevel(m.Level), m.Text(),
		"source", m.Source,
		"node", m.Node,
		"frame", m.Frame)
}

func slogLevel(l msgring.Level) slog.Level {
	switch l {
	case msgring.LevelDebug:
		return slog.LevelDebug
	case msgring.LevelInfo:
		return slog.LevelInfo
	case msgring.LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Close removes every voice.
func (p *Player) Close() error {
	p.mu.Lock()
	sounds := p.sounds
	p.sounds = make(map[uint32]*Sound)
	p.mu.Unlock()

	var errs []error

	for _, s := range sounds {
		if err := p.release(s); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
