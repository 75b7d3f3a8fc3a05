package node

import (
	"fmt"
	"unsafe"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
)

// Parameter is one named, typed input of a node. Its current value lives
// in an atomic cell shared with the node's bound input field.
type Parameter struct {
	ID          ident.ID
	DisplayName string
	Kind        Kind
	Default     Value

	cell Slot[float32] // encoding is shared by all kinds, see bits
}

func newParameter(id ident.ID, name string, def Value) *Parameter {
	p := &Parameter{
		ID:          id,
		DisplayName: name,
		Kind:        def.kind,
		Default:     def,
	}
	p.cell.cell.Store(def.bits)

	return p
}

// Value returns the current value.
func (p *Parameter) Value() Value {
	return Value{kind: p.Kind, bits: p.cell.cell.Load()}
}

// Set stores v. The kinds must match exactly.
func (p *Parameter) Set(v Value) error {
	if v.kind != p.Kind {
		return fmt.Errorf("%w: parameter %s is %s, got %s", ErrTypeMismatch, p.ID, p.Kind, v.kind)
	}

	p.cell.cell.Store(v.bits)

	return nil
}

// store writes v converted to the parameter's kind.
func (p *Parameter) store(v Value) {
	p.cell.cell.Store(v.Convert(p.Kind).bits)
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.cell.cell.Store(p.Default.bits)
}

// SlotOf returns the typed cell of p, or false if T does not match its kind.
func SlotOf[T Scalar](p *Parameter) (*Slot[T], bool) {
	if p == nil || p.Kind != kindOf[T]() {
		return nil, false
	}

	// Slot[T] has the same layout for every T.
	return (*Slot[T])(unsafe.Pointer(&p.cell)), true
}
