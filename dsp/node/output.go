package node

import (
	"fmt"
	"unsafe"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
)

// Output is a value a node writes during Process. Readers observe the
// field directly; connections copy it into downstream parameters.
type Output struct {
	ID   ident.ID
	Kind Kind

	ptr unsafe.Pointer
}

func outputOf[T Scalar](id ident.ID, field *T) Output {
	return Output{ID: id, Kind: kindOf[T](), ptr: unsafe.Pointer(field)}
}

// Load reads the output field. Only the audio thread may call it while
// the graph is processing.
func (o Output) Load() Value {
	switch o.Kind {
	case KindFloat:
		return Float(*(*float32)(o.ptr))
	case KindInt:
		return Int(*(*int32)(o.ptr))
	case KindBool:
		return Bool(*(*bool)(o.ptr))
	default:
		return Value{}
	}
}

// Float returns the output as float32 (see Value.Float).
func (o Output) Float() float32 {
	return o.Load().Float()
}

// Link returns a closure that copies src into dst, converting between
// kinds. Graphs run it after src's node has processed.
func Link(src Output, dst *Parameter) (func(), error) {
	if src.ptr == nil || dst == nil {
		return nil, fmt.Errorf("node: link: %w", ErrOutputNotFound)
	}

	if src.Kind == KindFloat && dst.Kind == KindFloat {
		from := (*float32)(src.ptr)
		to := &dst.cell

		return func() { to.Store(*from) }, nil
	}

	return func() { dst.store(src.Load()) }, nil
}
