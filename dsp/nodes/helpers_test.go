package nodes

import (
	"testing"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/msgring"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

func build[P node.Processor](t *testing.T, p P, sampleRate float64) P {
	t.Helper()

	if err := node.RegisterEndpoints(p); err != nil {
		t.Fatalf("RegisterEndpoints() error = %v", err)
	}

	if err := node.InitializeInputs(p); err != nil {
		t.Fatalf("InitializeInputs() error = %v", err)
	}

	if err := node.Initialize(p, sampleRate, 512); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	return p
}

func set(t *testing.T, p node.Processor, name string, v node.Value) {
	t.Helper()

	if err := p.Base().SetParameter(ident.New(name), v); err != nil {
		t.Fatalf("SetParameter(%s) error = %v", name, err)
	}
}

func send(t *testing.T, p node.Processor, name string) {
	t.Helper()

	if err := p.Base().SendEvent(ident.New(name), 1); err != nil {
		t.Fatalf("SendEvent(%s) error = %v", name, err)
	}
}

func counter(t *testing.T, p node.Processor, name string) *int {
	t.Helper()

	ev := p.Base().OutEvent(ident.New(name))
	if ev == nil {
		t.Fatalf("out event %s not found", name)
	}

	n := new(int)
	ev.Connect(func(float32) { *n++ })

	return n
}

func output(t *testing.T, p node.Processor, name string) node.Output {
	t.Helper()

	o, ok := p.Base().Output(ident.New(name))
	if !ok {
		t.Fatalf("output %s not found", name)
	}

	return o
}

type logSink struct {
	logs []string
}

func (s *logSink) PostEvent(uint64, ident.ID, float32) {}

func (s *logSink) PostLog(_ uint64, _ msgring.Level, text string) {
	s.logs = append(s.logs, text)
}
