package nodes

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

// Waveform selects the shape an Oscillator produces.
type Waveform uint8

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

// Oscillator is a phase-accumulating periodic source.
//
// Inputs: Frequency (Hz), Amplitude (clamped to [0,1]), Phase (offset in
// cycles) and, for squares, PulseWidth. Output: Value. Event ResetPhase
// restarts the cycle.
type Oscillator struct {
	node.Node

	wave Waveform

	frequency  *node.Slot[float32]
	amplitude  *node.Slot[float32]
	phaseIn    *node.Slot[float32]
	pulseWidth *node.Slot[float32]

	value float32

	phase      float64
	resetPhase node.Flag
}

// NewOscillator returns an oscillator of the given waveform.
func NewOscillator(wave Waveform) *Oscillator {
	return &Oscillator{wave: wave}
}

func (o *Oscillator) Describe(d *node.Describer) {
	node.Input(d, "Frequency", &o.frequency, 440)
	node.Input(d, "Amplitude", &o.amplitude, 1)
	node.Input(d, "Phase", &o.phaseIn, 0)

	if o.wave == WaveSquare {
		node.Input(d, "PulseWidth", &o.pulseWidth, 0.5)
	}

	node.Event(d, "ResetPhase", o.resetPhase.SetDirty)
	node.ValueOut(d, "Value", &o.value)
}

func (o *Oscillator) Init(float64, int) error {
	o.phase = 0
	return nil
}

// Phase returns the accumulated phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

func (o *Oscillator) Process() {
	if o.resetPhase.CheckAndResetIfDirty() {
		o.phase = 0
	}

	sr := o.SampleRate()
	if sr <= 1e-6 || o.frequency == nil || o.amplitude == nil {
		o.value = 0
		return
	}

	amp := core.Clamp(float64(o.amplitude.Load()), 0, 1)
	p := wrap(o.phase + float64(load(o.phaseIn, 0)))

	var s float64

	switch o.wave {
	case WaveSine:
		s = math.Sin(2 * math.Pi * p)
	case WaveSquare:
		pw := core.Clamp(float64(load(o.pulseWidth, 0.5)), 0, 1)
		if p < pw {
			s = 1
		} else {
			s = -1
		}
	case WaveSaw:
		s = 2*p - 1
	case WaveTriangle:
		s = 1 - 4*math.Abs(p-0.5)
	}

	o.value = float32(amp * s)

	inc := float64(o.frequency.Load()) / sr
	if math.IsNaN(inc) || math.IsInf(inc, 0) {
		inc = 0
	}

	o.phase = wrap(o.phase + inc)
}

// wrap maps x into [0,1), negatives included.
func wrap(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}

	return core.Wrap01(x)
}
