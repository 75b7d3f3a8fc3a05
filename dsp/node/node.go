// Package node provides the base every sound graph node embeds: its
// parameter registry, input and output events, outputs, and the two-pass
// endpoint wiring that binds a node's input fields to its own parameters.
package node

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/msgring"
)

// Processor is a node in a compiled graph.
//
// Init is called once after endpoints are registered and inputs bound.
// Process is called once per produced sample (or frame, for stereo
// nodes) on the audio thread; it must not allocate, lock or panic.
type Processor interface {
	Base() *Node
	Init(sampleRate float64, blockSize int) error
	Process()
}

// Sink receives events and log lines posted by nodes on the audio thread.
type Sink interface {
	PostEvent(node uint64, endpoint ident.ID, value float32)
	PostLog(node uint64, level msgring.Level, text string)
}

// Node holds the state shared by every node type. Concrete nodes embed it.
type Node struct {
	name     string
	typeName string
	uuid     uint64

	sampleRate float64
	blockSize  int
	sink       Sink

	params     map[ident.ID]*Parameter
	paramOrder []ident.ID

	mu       sync.Mutex // guards inEvents; never taken on the audio thread
	inEvents map[ident.ID]InputEvent

	outEvents []*OutputEvent
	outputs   map[ident.ID]Output
	outOrder  []ident.ID
	arrays    map[ident.ID]*arrayInput
}

// Base returns n. Embedding Node makes a type satisfy half of Processor.
func (n *Node) Base() *Node { return n }

// Init is the default no-op initialiser.
func (n *Node) Init(float64, int) error { return nil }

// SetIdentity assigns the node's UUID, debug name and registered type.
func (n *Node) SetIdentity(uuid uint64, name, typeName string) {
	n.uuid = uuid
	n.name = name
	n.typeName = typeName
}

// UUID returns the node's stable identifier within its graph.
func (n *Node) UUID() uint64 { return n.uuid }

// Name returns the debug name.
func (n *Node) Name() string { return n.name }

// TypeName returns the registry type the node was created from.
func (n *Node) TypeName() string { return n.typeName }

// SampleRate returns the rate cached at Init.
func (n *Node) SampleRate() float64 { return n.sampleRate }

// BlockSize returns the block size cached at Init.
func (n *Node) BlockSize() int { return n.blockSize }

// SetSink sets where events and log lines go. Call before processing.
func (n *Node) SetSink(s Sink) { n.sink = s }

// Log posts a log line through the sink. text should be a constant
// string; it is copied into a fixed-size slot.
func (n *Node) Log(level msgring.Level, text string) {
	if n.sink != nil {
		n.sink.PostLog(n.uuid, level, text)
	}
}

// Warn posts a warning through the sink.
func (n *Node) Warn(text string) {
	n.Log(msgring.LevelWarn, text)
}

// AddParameter registers a parameter named name with default def and
// returns it. Re-adding an existing name returns ErrDuplicateEndpoint.
func (n *Node) AddParameter(name string, def Value) (*Parameter, error) {
	if !def.IsValid() {
		return nil, fmt.Errorf("node: parameter %q: %w", name, ErrTypeMismatch)
	}

	id := ident.New(name)
	if _, exists := n.params[id]; exists {
		return nil, fmt.Errorf("node: parameter %q: %w", name, ErrDuplicateEndpoint)
	}

	if n.params == nil {
		n.params = make(map[ident.ID]*Parameter)
	}

	p := newParameter(id, name, def)
	n.params[id] = p
	n.paramOrder = append(n.paramOrder, id)

	return p, nil
}

// Parameter returns the parameter registered under id, or nil.
func (n *Node) Parameter(id ident.ID) *Parameter {
	return n.params[id]
}

// Parameters returns the parameters in registration order.
func (n *Node) Parameters() []*Parameter {
	out := make([]*Parameter, 0, len(n.paramOrder))
	for _, id := range n.paramOrder {
		out = append(out, n.params[id])
	}

	return out
}

// SetParameter stores v into parameter id. Safe from the control thread
// while the graph is processing.
func (n *Node) SetParameter(id ident.ID, v Value) error {
	p := n.params[id]
	if p == nil {
		return fmt.Errorf("node %s: %s: %w", n.name, id, ErrParameterNotFound)
	}

	return p.Set(v)
}

// GetParameter reads parameter id as T.
func GetParameter[T Scalar](n *Node, id ident.ID) (T, bool) {
	s, ok := SlotOf[T](n.params[id])
	if !ok {
		var zero T
		return zero, false
	}

	return s.Load(), true
}

// AddInEvent registers handler under id, replacing any previous handler.
func (n *Node) AddInEvent(id ident.ID, handler func(float32)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.inEvents == nil {
		n.inEvents = make(map[ident.ID]InputEvent)
	}

	n.inEvents[id] = InputEvent{ID: id, Owner: n, Handler: handler}
}

// InEvent returns the input event registered under id.
func (n *Node) InEvent(id ident.ID) (InputEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ev, ok := n.inEvents[id]

	return ev, ok
}

// InEventIDs returns the IDs of all input events.
func (n *Node) InEventIDs() []ident.ID {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]ident.ID, 0, len(n.inEvents))
	for id := range n.inEvents {
		ids = append(ids, id)
	}

	return ids
}

// SendEvent delivers value to input event id. Handlers only latch, so
// this is safe from the control thread while the graph is processing.
func (n *Node) SendEvent(id ident.ID, value float32) error {
	ev, ok := n.InEvent(id)
	if !ok {
		return fmt.Errorf("node %s: %s: %w", n.name, id, ErrEventNotFound)
	}

	ev.Handler(value)

	return nil
}

// OutEvent returns the output event registered under id, or nil.
func (n *Node) OutEvent(id ident.ID) *OutputEvent {
	for _, ev := range n.outEvents {
		if ev.ID == id {
			return ev
		}
	}

	return nil
}

// OutEvents returns every registered output event.
func (n *Node) OutEvents() []*OutputEvent {
	return n.outEvents
}

func (n *Node) addOutEvent(name string, ev *OutputEvent) error {
	id := ident.New(name)
	if n.OutEvent(id) != nil {
		return fmt.Errorf("node: out event %q: %w", name, ErrDuplicateEndpoint)
	}

	ev.ID = id
	ev.owner = n
	n.outEvents = append(n.outEvents, ev)

	return nil
}

// Output returns the value output registered under id.
func (n *Node) Output(id ident.ID) (Output, bool) {
	o, ok := n.outputs[id]

	return o, ok
}

// Outputs returns the value outputs in registration order.
func (n *Node) Outputs() []Output {
	out := make([]Output, 0, len(n.outOrder))
	for _, id := range n.outOrder {
		out = append(out, n.outputs[id])
	}

	return out
}

func (n *Node) addOutput(o Output) error {
	if _, exists := n.outputs[o.ID]; exists {
		return fmt.Errorf("node: output %q: %w", o.ID, ErrDuplicateEndpoint)
	}

	if n.outputs == nil {
		n.outputs = make(map[ident.ID]Output)
	}

	n.outputs[o.ID] = o
	n.outOrder = append(n.outOrder, o.ID)

	return nil
}

// Initialize caches sample rate and block size on the base and runs p.Init.
func Initialize(p Processor, sampleRate float64, blockSize int) error {
	base := p.Base()
	base.sampleRate = sampleRate
	base.blockSize = blockSize

	err := p.Init(sampleRate, blockSize)
	if err != nil {
		return fmt.Errorf("node %s (%s): init: %w", base.name, base.typeName, err)
	}

	return nil
}
