package nodes

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

func TestBPMToSecondsInverts(t *testing.T) {
	for _, bpm := range []float32{0.001, 0.5, 1, 60, 90, 120, 174.5, 999, 1000, 5000} {
		got := 60 / float64(BPMToSecondsValue(bpm))
		want := math.Min(math.Max(float64(bpm), 1), 1000)

		if math.Abs(got-want) > want*1e-6 {
			t.Fatalf("60/BPMToSeconds(%v) = %v, want %v", bpm, got, want)
		}
	}
}

func TestBPMToSecondsNonFinite(t *testing.T) {
	for _, bpm := range []float32{float32(math.NaN()), float32(math.Inf(1))} {
		if got := BPMToSecondsValue(bpm); got != 0.5 {
			t.Fatalf("BPMToSeconds(%v) = %v, want 0.5", bpm, got)
		}
	}
}

func TestNoteFrequencyInversion(t *testing.T) {
	for f := 20.0; f <= 12543.85; f *= 1.01 {
		note := FrequencyToNoteValue(float32(f))
		back := float64(NoteToFrequencyValue(float64(note)))
		cents := 1200 * math.Abs(math.Log2(back/f))

		if cents > 1 {
			t.Fatalf("f=%v -> note %v -> %v: %v cents", f, note, back, cents)
		}
	}
}

func TestNoteFrequencyClamps(t *testing.T) {
	if got := NoteToFrequencyValue(69); got != 440 {
		t.Fatalf("NoteToFrequency(69) = %v", got)
	}

	if got, want := NoteToFrequencyValue(500), NoteToFrequencyValue(127); got != want {
		t.Fatalf("NoteToFrequency(500) = %v, want %v", got, want)
	}

	if got := FrequencyToNoteValue(0); got != 0 {
		t.Fatalf("FrequencyToNote(0) = %v", got)
	}

	if got := FrequencyToNoteValue(-5); got != 0 {
		t.Fatalf("FrequencyToNote(-5) = %v", got)
	}

	if got := FrequencyToNoteValue(20000); got != 127 {
		t.Fatalf("FrequencyToNote(20000) = %v", got)
	}
}

func TestMusicNodes(t *testing.T) {
	b := build(t, NewBPMToSeconds(), 48000)
	set(t, b, "BPM", node.Float(240))
	b.Process()

	if b.seconds != 0.25 {
		t.Fatalf("BPMToSeconds node = %v", b.seconds)
	}

	n := build(t, NewNoteToFrequency[int32](), 48000)
	set(t, n, "MIDINote", node.Int(81))
	n.Process()

	if n.frequency != 880 {
		t.Fatalf("NoteToFrequency(81) = %v", n.frequency)
	}

	f := build(t, NewFrequencyToNote(), 48000)
	set(t, f, "Frequency", node.Float(220))
	f.Process()

	if f.note != 57 {
		t.Fatalf("FrequencyToNote(220) = %v", f.note)
	}
}
