package nodes

import (
	"testing"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

func setArray(t *testing.T, p node.Processor, values ...node.Value) {
	t.Helper()

	if err := p.Base().SetArray(ident.New("Array"), values); err != nil {
		t.Fatalf("SetArray() error = %v", err)
	}
}

func TestGetClampsAndWarns(t *testing.T) {
	g := NewGet[float32]()
	sink := &logSink{}
	g.SetSink(sink)
	build(t, g, 48000)
	setArray(t, g, node.Float(1), node.Float(2), node.Float(3))

	set(t, g, "Index", node.Int(1))
	g.Process()

	if g.element != 2 {
		t.Fatalf("Get(1) = %v", g.element)
	}

	set(t, g, "Index", node.Int(7))
	g.Process()
	g.Process()

	if g.element != 3 {
		t.Fatalf("Get(7) = %v, want clamped 3", g.element)
	}

	if len(sink.logs) != 1 {
		t.Fatalf("warnings = %v, want one", sink.logs)
	}

	set(t, g, "Index", node.Int(-4))
	g.Process()

	if g.element != 1 || len(sink.logs) != 2 {
		t.Fatalf("Get(-4) = %v, warnings = %d", g.element, len(sink.logs))
	}
}

func TestGetEmptyArray(t *testing.T) {
	g := build(t, NewGet[int32](), 48000)
	g.Process()

	if g.element != 0 {
		t.Fatalf("empty Get = %v", g.element)
	}
}

func TestGetRandomStaysInRange(t *testing.T) {
	g := build(t, NewGetRandom[int32](), 48000)
	setArray(t, g, node.Int(10), node.Int(20), node.Int(30), node.Int(40), node.Int(50))
	set(t, g, "Seed", node.Int(3))
	set(t, g, "Min", node.Int(3))
	set(t, g, "Max", node.Int(1))
	send(t, g, "Reset")

	seen := map[int32]bool{}

	for range 200 {
		send(t, g, "Next")
		g.Process()
		seen[g.element] = true
	}

	for v := range seen {
		if v < 20 || v > 40 {
			t.Fatalf("element %d outside swapped range [1,3]", v)
		}
	}

	if len(seen) != 3 {
		t.Fatalf("seen %v, want all of 20, 30, 40", seen)
	}
}

func TestRandomDeterministicAndClamped(t *testing.T) {
	render := func() []float32 {
		r := build(t, NewRandom[float32](), 48000)
		set(t, r, "Seed", node.Int(11))
		set(t, r, "Min", node.Float(-5000))
		set(t, r, "Max", node.Float(5000))
		send(t, r, "Reset")

		out := make([]float32, 100)
		for i := range out {
			send(t, r, "Next")
			r.Process()
			out[i] = r.value
		}

		return out
	}

	a, b := render(), render()

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}

		if a[i] < -1000 || a[i] > 1000 {
			t.Fatalf("value %v outside ±1000", a[i])
		}
	}
}

func TestRandomIntClamped(t *testing.T) {
	r := build(t, NewRandom[int32](), 48000)
	set(t, r, "Seed", node.Int(5))
	set(t, r, "Min", node.Int(-1_000_000))
	set(t, r, "Max", node.Int(-200_000))
	send(t, r, "Reset")

	for range 50 {
		send(t, r, "Next")
		r.Process()

		if r.value != -100000 {
			t.Fatalf("value = %d, want -100000 when both bounds clamp", r.value)
		}
	}
}

func TestRandomWaitsForNext(t *testing.T) {
	r := build(t, NewRandom[float32](), 48000)
	set(t, r, "Min", node.Float(5))
	set(t, r, "Max", node.Float(6))

	fired := counter(t, r, "OnNext")
	r.Process()

	if *fired != 0 || r.value != 0 {
		t.Fatalf("Random produced %v without Next", r.value)
	}
}
