package soundgraph

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/msgring"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

type step struct {
	proc  node.Processor
	links []func()
}

// graphInput is a named value that fans out to node parameters.
type graphInput struct {
	ID      ident.ID
	Name    string
	Kind    node.Kind
	Default node.Value

	targets []*node.Parameter
}

func (in *graphInput) set(v node.Value) {
	v = v.Convert(in.Kind)
	for _, p := range in.targets {
		_ = p.Set(v.Convert(p.Kind))
	}
}

func (in *graphInput) value() node.Value {
	if len(in.targets) == 0 {
		return in.Default
	}

	return in.targets[0].Value().Convert(in.Kind)
}

type paramWrite struct {
	param *node.Parameter
	value node.Value
}

// InputInfo describes a graph input.
type InputInfo struct {
	ID      ident.ID
	Name    string
	Kind    node.Kind
	Default node.Value
	Value   node.Value
}

// Graph is a runnable instance of a Prototype. Its structure is fixed;
// only parameter values and the play state change while it runs.
//
// Process belongs to the audio thread. Play, Stop, SetInput, SetParameter,
// SendEvent and QueuePatch may be called from the control thread at any
// time. Close must not race with Process.
type Graph struct {
	name        string
	fingerprint uint64
	cfg         core.ProcessorConfig

	byUUID        map[uint64]node.Processor
	steps         []step
	endpoint      *endpoint
	endpointLinks []func()

	inputs     map[ident.ID]*graphInput
	inputOrder []ident.ID

	ring     *msgring.Ring
	sourceID atomic.Uint32

	playing atomic.Bool
	frame   atomic.Uint64
	pending atomic.Pointer[[]paramWrite]
}

// Name returns the prototype name.
func (g *Graph) Name() string { return g.name }

// Fingerprint returns the hash of the prototype the graph was built from.
func (g *Graph) Fingerprint() uint64 { return g.fingerprint }

// SampleRate returns the rate the nodes were initialised with.
func (g *Graph) SampleRate() float64 { return g.cfg.SampleRate }

// BlockSize returns the configured block size.
func (g *Graph) BlockSize() int { return g.cfg.BlockSize }

// SetSourceID tags ring messages with the owning source.
func (g *Graph) SetSourceID(id uint32) { g.sourceID.Store(id) }

// SetRing replaces the message ring. Call before processing starts.
func (g *Graph) SetRing(r *msgring.Ring) { g.ring = r }

// Order returns node UUIDs in processing order.
func (g *Graph) Order() []uint64 {
	out := make([]uint64, len(g.steps))
	for i, st := range g.steps {
		out[i] = st.proc.Base().UUID()
	}

	return out
}

// Node returns the processor with the given UUID.
func (g *Graph) Node(uuid uint64) (node.Processor, bool) {
	p, ok := g.byUUID[uuid]

	return p, ok
}

// Play starts processing. OnPlay fires on the next frame.
func (g *Graph) Play() {
	g.endpoint.finished.Store(false)
	g.endpoint.play.SetDirty()
	g.playing.Store(true)
}

// Stop stops processing; Process then outputs silence.
func (g *Graph) Stop() {
	g.playing.Store(false)
}

// IsPlaying reports whether Play was called without a later Stop.
func (g *Graph) IsPlaying() bool { return g.playing.Load() }

// IsFinished reports whether OnFinished reached the graph endpoint since
// the last Play.
func (g *Graph) IsFinished() bool { return g.endpoint.finished.Load() }

// CurrentFrame returns the number of frames processed while playing.
func (g *Graph) CurrentFrame() uint64 { return g.frame.Load() }

// ResetFrame rewinds the frame counter to zero.
func (g *Graph) ResetFrame() { g.frame.Store(0) }

// Inputs describes the graph inputs in declaration order.
func (g *Graph) Inputs() []InputInfo {
	out := make([]InputInfo, 0, len(g.inputOrder))
	for _, id := range g.inputOrder {
		in := g.inputs[id]
		out = append(out, InputInfo{ID: id, Name: in.Name, Kind: in.Kind, Default: in.Default, Value: in.value()})
	}

	return out
}

// Input returns the current value of graph input id.
func (g *Graph) Input(id ident.ID) (node.Value, bool) {
	in, ok := g.inputs[id]
	if !ok {
		return node.Value{}, false
	}

	return in.value(), true
}

// SetInput writes v, converted to the input's kind, to every parameter
// the input drives. The audio thread sees it at its next read.
func (g *Graph) SetInput(id ident.ID, v node.Value) error {
	in, ok := g.inputs[id]
	if !ok {
		return fmt.Errorf("soundgraph: %s: %w", id, ErrUnknownInput)
	}

	in.set(v)

	return nil
}

// SetParameter writes one node parameter directly.
func (g *Graph) SetParameter(uuid uint64, param ident.ID, v node.Value) error {
	p, ok := g.byUUID[uuid]
	if !ok {
		return fmt.Errorf("soundgraph: %w: node %d", ErrInvalidGraph, uuid)
	}

	return p.Base().SetParameter(param, v)
}

// SendEvent latches input event id on node uuid.
func (g *Graph) SendEvent(uuid uint64, id ident.ID, value float32) error {
	p, ok := g.byUUID[uuid]
	if !ok {
		return fmt.Errorf("soundgraph: %w: node %d", ErrInvalidGraph, uuid)
	}

	return p.Base().SendEvent(id, value)
}

// QueuePatch stages input values to be applied together at the top of
// the next Process call. Unknown inputs are reported and skipped; a patch
// queued before the previous one was applied replaces it.
func (g *Graph) QueuePatch(values map[ident.ID]node.Value) error {
	writes := make([]paramWrite, 0, len(values))

	var errs []error

	for _, id := range sortedIDs(values) {
		in, ok := g.inputs[id]
		if !ok {
			errs = append(errs, fmt.Errorf("soundgraph: %s: %w", id, ErrUnknownInput))
			continue
		}

		v := values[id].Convert(in.Kind)
		for _, p := range in.targets {
			writes = append(writes, paramWrite{param: p, value: v.Convert(p.Kind)})
		}
	}

	g.pending.Store(&writes)

	return errors.Join(errs...)
}

// Process renders frames frames. in holds zero, one or two input channels;
// out holds one or two output channels of at least frames samples. A
// stopped graph writes silence.
func (g *Graph) Process(in, out [][]float64, frames int) {
	if w := g.pending.Swap(nil); w != nil {
		for _, pw := range *w {
			_ = pw.param.Set(pw.value)
		}
	}

	if !g.playing.Load() {
		for _, ch := range out {
			core.Zero(ch[:min(frames, len(ch))])
		}

		return
	}

	frame := g.frame.Load()

	for f := range frames {
		g.frame.Store(frame)
		g.processFrame(in, f)

		l, r := g.endpoint.output()

		if len(out) > 0 {
			out[0][f] = float64(l)
		}

		if len(out) > 1 {
			out[1][f] = float64(r)
		}

		frame++
	}

	g.frame.Store(frame)
}

func (g *Graph) processFrame(in [][]float64, f int) {
	ep := g.endpoint

	ep.inLeft, ep.inRight = 0, 0
	if len(in) > 0 && f < len(in[0]) {
		ep.inLeft = float32(in[0][f])
		ep.inRight = ep.inLeft
	}

	if len(in) > 1 && f < len(in[1]) {
		ep.inRight = float32(in[1][f])
	}

	ep.Process()

	for _, link := range g.endpointLinks {
		link()
	}

	for i := range g.steps {
		st := &g.steps[i]
		st.proc.Process()

		for _, link := range st.links {
			link()
		}
	}
}

// PostEvent implements node.Sink.
func (g *Graph) PostEvent(uuid uint64, endpoint ident.ID, value float32) {
	if g.ring == nil {
		return
	}

	msg := msgring.Message{
		Frame:    g.frame.Load(),
		Source:   g.sourceID.Load(),
		Node:     uuid,
		Endpoint: endpoint,
		Level:    msgring.LevelInfo,
		IsEvent:  true,
		Value:    value,
	}
	g.ring.Push(&msg)
}

// PostLog implements node.Sink.
func (g *Graph) PostLog(uuid uint64, level msgring.Level, text string) {
	if g.ring == nil {
		return
	}

	msg := msgring.Message{
		Frame:  g.frame.Load(),
		Source: g.sourceID.Load(),
		Node:   uuid,
		Level:  level,
	}
	msg.SetText(text)
	g.ring.Push(&msg)
}

// Close releases node resources, waiting for background work the nodes
// started. Never call it from the audio thread.
func (g *Graph) Close() error {
	var errs []error

	for _, p := range g.byUUID {
		if c, ok := p.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func sortedIDs[V any](m map[ident.ID]V) []ident.ID {
	ids := make([]ident.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
