package nodes

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

const defaultBPM = 120

// BPMToSecondsValue returns 60/clamp(bpm, 1, 1000); non-finite input
// counts as 120.
func BPMToSecondsValue(bpm float32) float32 {
	b := float64(bpm)
	if !core.IsFinite(b) {
		b = defaultBPM
	}

	return float32(60 / core.Clamp(b, 1, 1000))
}

// NoteToFrequencyValue returns 440 * 2^((clamp(note,0,127)-69)/12).
func NoteToFrequencyValue(note float64) float32 {
	if math.IsNaN(note) {
		note = 69
	}

	n := core.Clamp(note, 0, 127)

	return float32(440 * math.Pow(2, (n-69)/12))
}

// FrequencyToNoteValue returns the MIDI note for frequency hz, clamped to
// [0, 127]. hz <= 0 gives 0.
func FrequencyToNoteValue(hz float32) float32 {
	f := float64(hz)
	if !(f > 0) || math.IsInf(f, 0) {
		return 0
	}

	return float32(core.Clamp(69+12*math.Log2(f/440), 0, 127))
}

// BPMToSeconds outputs the length of one beat.
type BPMToSeconds struct {
	node.Node

	bpm     *node.Slot[float32]
	seconds float32
}

func NewBPMToSeconds() *BPMToSeconds { return &BPMToSeconds{} }

func (b *BPMToSeconds) Describe(d *node.Describer) {
	node.Input(d, "BPM", &b.bpm, defaultBPM)
	node.ValueOut(d, "Seconds", &b.seconds)
}

func (b *BPMToSeconds) Process() {
	b.seconds = BPMToSecondsValue(load(b.bpm, defaultBPM))
}

// NoteToFrequency converts a MIDI note to Hz.
type NoteToFrequency[T Number] struct {
	node.Node

	note      *node.Slot[T]
	frequency float32
}

func NewNoteToFrequency[T Number]() *NoteToFrequency[T] { return &NoteToFrequency[T]{} }

func (n *NoteToFrequency[T]) Describe(d *node.Describer) {
	node.Input(d, "MIDINote", &n.note, 69)
	node.ValueOut(d, "Frequency", &n.frequency)
}

func (n *NoteToFrequency[T]) Process() {
	if n.note == nil {
		n.frequency = 0
		return
	}

	n.frequency = NoteToFrequencyValue(float64(n.note.Load()))
}

// FrequencyToNote converts Hz to a fractional MIDI note.
type FrequencyToNote struct {
	node.Node

	frequency *node.Slot[float32]
	note      float32
}

func NewFrequencyToNote() *FrequencyToNote { return &FrequencyToNote{} }

func (f *FrequencyToNote) Describe(d *node.Describer) {
	node.Input(d, "Frequency", &f.frequency, 440)
	node.ValueOut(d, "MIDINote", &f.note)
}

func (f *FrequencyToNote) Process() {
	f.note = FrequencyToNoteValue(load(f.frequency, 0))
}
