package soundgraph

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

const patchJSON = `{
  "name": "counter",
  "nodes": [
    {"type": "TriggerCounter", "uuid": 2, "params": {"StepSize": 3, "ResetCount": 4}},
    {"type": "RepeatTrigger", "uuid": 1, "params": {"Period": 0.01}},
    {"type": "GetFloat", "uuid": 3, "arrays": {"Array": [0.1, 0.2, 0.3, 1.0]}}
  ],
  "connections": [
    {"from": 2, "fromPort": "Count", "to": 3, "toPort": "Index"},
    {"from": 3, "fromPort": "Element", "to": 0, "toPort": "OutLeft"}
  ],
  "events": [
    {"from": 0, "fromPort": "OnPlay", "to": 1, "toPort": "Start"},
    {"from": 1, "fromPort": "OnTrigger", "to": 2, "toPort": "Trigger"}
  ],
  "inputs": [
    {"name": "Rate", "type": "float", "default": 0.02, "targets": [{"node": 1, "param": "Period"}]}
  ]
}`

func TestParsePrototype(t *testing.T) {
	p, err := ParsePrototype([]byte(patchJSON))
	if err != nil {
		t.Fatalf("ParsePrototype() error = %v", err)
	}

	if p.Name != "counter" || len(p.Nodes) != 3 || len(p.Connections) != 2 || len(p.Events) != 2 {
		t.Fatalf("parsed %+v", p)
	}

	g := mustInstantiate(t, p)

	counter, _ := g.Node(2)
	if got, _ := node.GetParameter[float32](counter.Base(), ident.New("StepSize")); got != 3 {
		t.Fatalf("StepSize = %v, want 3", got)
	}

	if got, _ := node.GetParameter[int32](counter.Base(), ident.New("ResetCount")); got != 4 {
		t.Fatalf("ResetCount = %d, want 4", got)
	}

	timer, _ := g.Node(1)
	if got, _ := node.GetParameter[float32](timer.Base(), ident.New("Period")); got != 0.02 {
		t.Fatalf("Period = %v, want input default 0.02", got)
	}

	getter, _ := g.Node(3)
	if n := getter.Base().ArrayLen(ident.New("Array")); n != 4 {
		t.Fatalf("ArrayLen = %d, want 4", n)
	}
}

func TestParsePrototypeRejectsGarbage(t *testing.T) {
	_, err := ParsePrototype([]byte(`{"nodes": [`))
	if !errors.Is(err, ErrInvalidGraph) {
		t.Fatalf("ParsePrototype() error = %v, want ErrInvalidGraph", err)
	}

	p, err := ParsePrototype([]byte(`{"nodes": [], "inputs": [{"name": "Pos", "type": "vector"}]}`))
	if err != nil {
		t.Fatalf("ParsePrototype() error = %v", err)
	}

	if _, err := Instantiate(p); err == nil {
		t.Fatal("Instantiate() accepted an unknown input kind")
	}
}

func TestLoadPrototype(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	if err := os.WriteFile(path, []byte(patchJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPrototype(path)
	if err != nil {
		t.Fatalf("LoadPrototype() error = %v", err)
	}

	if p.Name != "counter" {
		t.Fatalf("Name = %q", p.Name)
	}

	if _, err := LoadPrototype(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("LoadPrototype(missing) error = nil")
	}
}

func TestFingerprintStable(t *testing.T) {
	a, _ := ParsePrototype([]byte(patchJSON))
	b, _ := ParsePrototype([]byte(patchJSON))

	fa, err := a.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}

	fb, _ := b.Fingerprint()
	if fa != fb {
		t.Fatalf("fingerprints differ: %x vs %x", fa, fb)
	}

	b.Nodes[0].Params["StepSize"] = 4

	if fc, _ := b.Fingerprint(); fc == fa {
		t.Fatal("fingerprint ignored a parameter change")
	}

	g := mustInstantiate(t, a)
	if g.Fingerprint() != fa || g.Name() != "counter" {
		t.Fatalf("graph fingerprint %x name %q", g.Fingerprint(), g.Name())
	}
}

func TestCompileOrdersAndIsIdempotent(t *testing.T) {
	p, _ := ParsePrototype([]byte(patchJSON))

	first, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	q, err := ParsePrototype(first)
	if err != nil {
		t.Fatalf("ParsePrototype(compiled) error = %v", err)
	}

	// Events do not constrain order; only the value connection 2 -> 3 does.
	want := []uint64{2, 1, 3}
	for i, n := range q.Nodes {
		if n.UUID != want[i] {
			t.Fatalf("compiled order %d = %d, want %d", i, n.UUID, want[i])
		}
	}

	second, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile(compiled) error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("recompile changed output:\n%s\n%s", first, second)
	}

	if len(p.Nodes) != 3 || p.Nodes[0].UUID != 2 {
		t.Fatal("Compile modified its input")
	}
}

func TestPrototypeCompiler(t *testing.T) {
	c := PrototypeCompiler{}

	if c.Version() != CompilerVersion {
		t.Fatalf("Version() = %q", c.Version())
	}

	if _, err := c.Compile([]byte(patchJSON), "counter.json"); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	bad := `{"nodes": [{"type": "AddFloat", "uuid": 1}], "connections": [{"from": 1, "fromPort": "Out", "to": 1, "toPort": "Value2"}]}`

	_, err := c.Compile([]byte(bad), "loop.json")
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Compile(cycle) error = %v, want ErrCycle", err)
	}
}

func TestCounterGraphRuns(t *testing.T) {
	p, _ := ParsePrototype([]byte(patchJSON))
	g := mustInstantiate(t, p)
	g.Play()

	out := stereo(4800)
	g.Process(nil, out, 4800)

	seen := map[float64]bool{}
	for _, v := range out[0] {
		seen[float64(float32(v))] = true
	}

	if len(seen) < 2 {
		t.Fatalf("counter graph produced %d distinct values", len(seen))
	}
}
