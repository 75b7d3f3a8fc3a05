package node

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
)

// Described is implemented by node types that list their endpoints.
// Describe is called twice: once to register parameters, events and
// outputs, and once to bind input fields to the registered parameters.
// It must describe the same endpoints in the same order both times.
type Described interface {
	Describe(d *Describer)
}

type describeMode uint8

const (
	modeRegister describeMode = iota
	modeBind
)

// Describer is passed to Describe. Use the package-level Input, Const,
// Event, EventValue, ValueOut, OutEvent and Array functions on it.
type Describer struct {
	n    *Node
	mode describeMode
	err  error
}

func (d *Describer) fail(err error) {
	d.err = errors.Join(d.err, err)
}

// RegisterEndpoints walks p's description and creates its parameters,
// input events, output events and outputs. It is a no-op for nodes that
// are not Described; those wire themselves in their constructor.
func RegisterEndpoints(p Processor) error {
	desc, ok := p.(Described)
	if !ok {
		return nil
	}

	d := &Describer{n: p.Base(), mode: modeRegister}
	desc.Describe(d)

	if d.err != nil {
		return fmt.Errorf("node %s: register endpoints: %w", p.Base().name, d.err)
	}

	return nil
}

// InitializeInputs walks p's description again and points every input
// field at the slot of its parameter. Const fields receive the parameter's
// current value. A field whose parameter is missing or of another kind is
// left nil and reported.
func InitializeInputs(p Processor) error {
	desc, ok := p.(Described)
	if !ok {
		return nil
	}

	d := &Describer{n: p.Base(), mode: modeBind}
	desc.Describe(d)

	if d.err != nil {
		return fmt.Errorf("node %s: initialize inputs: %w", p.Base().name, d.err)
	}

	return nil
}

// Input describes a pointer input: a parameter named name with default
// def whose slot is bound into *field.
func Input[T Scalar](d *Describer, name string, field **Slot[T], def T) {
	name = ident.Canonical(name)

	switch d.mode {
	case modeRegister:
		if _, err := d.n.AddParameter(name, ValueOf(def)); err != nil {
			d.fail(err)
		}
	case modeBind:
		slot, ok := SlotOf[T](d.n.params[ident.New(name)])
		if !ok {
			*field = nil
			d.fail(fmt.Errorf("input %q: %w", name, ErrParameterNotFound))

			return
		}

		*field = slot
	}
}

// Const describes a value input: a parameter seeded from *field's current
// value. The field is refreshed from the parameter when inputs are bound,
// so it acts as an init-time constant.
func Const[T Scalar](d *Describer, name string, field *T) {
	name = ident.Canonical(name)

	switch d.mode {
	case modeRegister:
		if _, err := d.n.AddParameter(name, ValueOf(*field)); err != nil {
			d.fail(err)
		}
	case modeBind:
		slot, ok := SlotOf[T](d.n.params[ident.New(name)])
		if !ok {
			d.fail(fmt.Errorf("const %q: %w", name, ErrParameterNotFound))
			return
		}

		*field = slot.Load()
	}
}

// Event describes a 0-argument input event.
func Event(d *Describer, name string, fn func()) {
	if d.mode != modeRegister {
		return
	}

	d.n.AddInEvent(ident.New(ident.Canonical(name)), func(float32) { fn() })
}

// EventValue describes an input event that receives the payload.
func EventValue(d *Describer, name string, fn func(float32)) {
	if d.mode != modeRegister {
		return
	}

	d.n.AddInEvent(ident.New(ident.Canonical(name)), fn)
}

// ValueOut describes a value output written by Process.
func ValueOut[T Scalar](d *Describer, name string, field *T) {
	if d.mode != modeRegister {
		return
	}

	id := ident.New(ident.Canonical(name))
	if err := d.n.addOutput(outputOf(id, field)); err != nil {
		d.fail(err)
	}
}

// OutEvent describes an output event owned by the node.
func OutEvent(d *Describer, name string, ev *OutputEvent) {
	if d.mode != modeRegister {
		return
	}

	if err := d.n.addOutEvent(ident.Canonical(name), ev); err != nil {
		d.fail(err)
	}
}

// Element is the set of array element types.
type Element interface {
	float32 | int32
}

type arrayInput struct {
	kind Kind
	set  func([]Value)
	len  func() int
}

// Array describes an array input filled from the prototype before Init.
// Arrays are immutable once the graph is processing.
func Array[T Element](d *Describer, name string, field *[]T) {
	if d.mode != modeRegister {
		return
	}

	id := ident.New(ident.Canonical(name))
	if d.n.arrays == nil {
		d.n.arrays = make(map[ident.ID]*arrayInput)
	}

	if _, exists := d.n.arrays[id]; exists {
		d.fail(fmt.Errorf("array %q: %w", name, ErrDuplicateEndpoint))
		return
	}

	kind := kindOf[T]()
	d.n.arrays[id] = &arrayInput{
		kind: kind,
		set: func(values []Value) {
			out := make([]T, len(values))
			for i, v := range values {
				out[i] = fromBits[T](v.Convert(kind).bits)
			}

			*field = out
		},
		len: func() int { return len(*field) },
	}
}

// SetArray replaces the array input id. Construction-time only.
func (n *Node) SetArray(id ident.ID, values []Value) error {
	a := n.arrays[id]
	if a == nil {
		return fmt.Errorf("node %s: array %s: %w", n.name, id, ErrParameterNotFound)
	}

	a.set(values)

	return nil
}

// ArrayLen returns the current length of array input id.
func (n *Node) ArrayLen(id ident.ID) int {
	a := n.arrays[id]
	if a == nil {
		return 0
	}

	return a.len()
}

// ArrayKind returns the element kind of array input id.
func (n *Node) ArrayKind(id ident.ID) (Kind, bool) {
	a := n.arrays[id]
	if a == nil {
		return KindInvalid, false
	}

	return a.kind, true
}
