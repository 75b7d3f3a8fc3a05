package nodes

import (
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

// Type names registered by DefaultRegistry.
const (
	TypeSine            = "SineOscillator"
	TypeSquare          = "SquareOscillator"
	TypeSawtooth        = "SawtoothOscillator"
	TypeTriangle        = "TriangleOscillator"
	TypeNoise           = "Noise"
	TypeAD              = "ADEnvelope"
	TypeADSR            = "ADSREnvelope"
	TypeRepeatTrigger   = "RepeatTrigger"
	TypeTriggerCounter  = "TriggerCounter"
	TypeDelayedTrigger  = "DelayedTrigger"
	TypeBPMToSeconds    = "BPMToSeconds"
	TypeFrequencyToNote = "FrequencyToNote"
	TypeWavePlayer      = "WavePlayer"
)

func constant[P node.Processor](build func() P) node.Factory {
	return func(node.Context) (node.Processor, error) {
		return build(), nil
	}
}

// registerTyped registers the float and int variants of the typed math,
// music and array nodes, named <Base>Float and <Base>Int.
func registerTyped[T Number](r *node.Registry, suffix string) {
	for _, op := range []BinaryOp{OpAdd, OpSubtract, OpMultiply, OpDivide, OpMin, OpMax, OpModulo, OpPower} {
		r.MustRegister(op.String()+suffix, constant(func() *Binary[T] { return NewBinary[T](op) }))
	}

	r.MustRegister("Clamp"+suffix, constant(NewClamp[T]))
	r.MustRegister("MapRange"+suffix, constant(NewMapRange[T]))
	r.MustRegister("Abs"+suffix, constant(NewAbs[T]))
	r.MustRegister("NoteToFrequency"+suffix, constant(NewNoteToFrequency[T]))
	r.MustRegister("Get"+suffix, constant(NewGet[T]))
	r.MustRegister("GetRandom"+suffix, constant(NewGetRandom[T]))
	r.MustRegister("Random"+suffix, constant(NewRandom[T]))
}

// Register adds every node type in this package to r.
func Register(r *node.Registry) {
	r.MustRegister(TypeSine, constant(func() *Oscillator { return NewOscillator(WaveSine) }))
	r.MustRegister(TypeSquare, constant(func() *Oscillator { return NewOscillator(WaveSquare) }))
	r.MustRegister(TypeSawtooth, constant(func() *Oscillator { return NewOscillator(WaveSaw) }))
	r.MustRegister(TypeTriangle, constant(func() *Oscillator { return NewOscillator(WaveTriangle) }))
	r.MustRegister(TypeNoise, constant(NewNoise))
	r.MustRegister(TypeAD, constant(NewAD))
	r.MustRegister(TypeADSR, constant(NewADSR))
	r.MustRegister(TypeRepeatTrigger, constant(NewRepeatTrigger))
	r.MustRegister(TypeTriggerCounter, constant(NewTriggerCounter))
	r.MustRegister(TypeDelayedTrigger, constant(NewDelayedTrigger))
	r.MustRegister(TypeBPMToSeconds, constant(NewBPMToSeconds))
	r.MustRegister(TypeFrequencyToNote, constant(NewFrequencyToNote))
	r.MustRegister(TypeWavePlayer, func(ctx node.Context) (node.Processor, error) {
		return NewWavePlayer(ctx.Loader), nil
	})

	registerTyped[float32](r, "Float")
	registerTyped[int32](r, "Int")
}

// DefaultRegistry returns a registry with every node type in this package.
func DefaultRegistry() *node.Registry {
	r := node.NewRegistry()
	Register(r)

	return r
}
