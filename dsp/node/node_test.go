package node

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/msgring"
)

type gainNode struct {
	Node

	in    *Slot[float32]
	gain  *Slot[float32]
	mute  *Slot[bool]
	steps int32
	table []float32

	out     float32
	clipped OutputEvent
	reset   Flag
	last    float32
}

func (g *gainNode) Describe(d *Describer) {
	Input(d, "m_InValue", &g.in, 0)
	Input(d, "Gain", &g.gain, 1)
	Input(d, "Mute", &g.mute, false)
	Const(d, "Steps", &g.steps)
	Array(d, "Table", &g.table)
	Event(d, "Reset", g.reset.SetDirty)
	EventValue(d, "Poke", func(v float32) { g.last = v })
	ValueOut(d, "m_OutValue", &g.out)
	OutEvent(d, "OnClipped", &g.clipped)
}

func (g *gainNode) Process() {
	if g.reset.CheckAndResetIfDirty() {
		g.out = 0
	}

	if g.mute.Load() {
		g.out = 0
		return
	}

	g.out = g.in.Load() * g.gain.Load()
	if g.out > 1 {
		g.clipped.Fire(g.out)
	}
}

func newGain(t *testing.T) *gainNode {
	t.Helper()

	g := &gainNode{steps: 4}
	g.SetIdentity(7, "gain", "Gain")

	if err := RegisterEndpoints(g); err != nil {
		t.Fatalf("RegisterEndpoints() error = %v", err)
	}

	if err := InitializeInputs(g); err != nil {
		t.Fatalf("InitializeInputs() error = %v", err)
	}

	return g
}

type recordSink struct {
	events []ident.ID
	values []float32
	logs   []string
}

func (s *recordSink) PostEvent(_ uint64, id ident.ID, v float32) {
	s.events = append(s.events, id)
	s.values = append(s.values, v)
}

func (s *recordSink) PostLog(_ uint64, _ msgring.Level, text string) {
	s.logs = append(s.logs, text)
}

func TestDescribeRegistersCanonicalNames(t *testing.T) {
	g := newGain(t)

	var names []string
	for _, p := range g.Parameters() {
		names = append(names, p.DisplayName)
	}

	want := []string{"Value", "Gain", "Mute", "Steps"}
	if len(names) != len(want) {
		t.Fatalf("parameters = %v, want %v", names, want)
	}

	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("parameters = %v, want %v", names, want)
		}
	}

	if _, ok := g.Output(ident.New("Value")); !ok {
		t.Fatal("output Value not registered")
	}

	if g.OutEvent(ident.New("OnClipped")) == nil {
		t.Fatal("out event OnClipped not registered")
	}

	if _, ok := g.InEvent(ident.New("Reset")); !ok {
		t.Fatal("in event Reset not registered")
	}
}

func TestBoundInputsFollowParameters(t *testing.T) {
	g := newGain(t)

	if err := g.SetParameter(ident.New("Value"), Float(0.5)); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}

	if err := g.SetParameter(ident.New("Gain"), Float(0.5)); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}

	g.Process()

	if g.out != 0.25 {
		t.Fatalf("out = %v, want 0.25", g.out)
	}

	if got, ok := GetParameter[float32](&g.Node, ident.New("Gain")); !ok || got != 0.5 {
		t.Fatalf("GetParameter() = %v,%v", got, ok)
	}

	if err := g.SetParameter(ident.New("Mute"), Bool(true)); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}

	g.Process()

	if g.out != 0 {
		t.Fatalf("muted out = %v, want 0", g.out)
	}
}

func TestConstIsSeededAndRefreshedAtBind(t *testing.T) {
	g := &gainNode{steps: 4}
	if err := RegisterEndpoints(g); err != nil {
		t.Fatalf("RegisterEndpoints() error = %v", err)
	}

	p := g.Parameter(ident.New("Steps"))
	if p == nil || p.Default.Int() != 4 {
		t.Fatalf("Steps default = %+v", p)
	}

	if err := p.Set(Int(9)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := InitializeInputs(g); err != nil {
		t.Fatalf("InitializeInputs() error = %v", err)
	}

	if g.steps != 9 {
		t.Fatalf("steps = %d, want 9", g.steps)
	}
}

func TestSetParameterErrors(t *testing.T) {
	g := newGain(t)

	if err := g.SetParameter(ident.New("Missing"), Float(1)); !errors.Is(err, ErrParameterNotFound) {
		t.Fatalf("missing parameter error = %v", err)
	}

	if err := g.SetParameter(ident.New("Gain"), Int(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("wrong kind error = %v", err)
	}
}

func TestDuplicateParameterRejected(t *testing.T) {
	var n Node
	if _, err := n.AddParameter("X", Float(0)); err != nil {
		t.Fatalf("AddParameter() error = %v", err)
	}

	if _, err := n.AddParameter("X", Float(0)); !errors.Is(err, ErrDuplicateEndpoint) {
		t.Fatalf("duplicate error = %v", err)
	}
}

func TestEventsLatchAndFire(t *testing.T) {
	g := newGain(t)
	sink := &recordSink{}
	g.SetSink(sink)

	var downstream []float32
	g.clipped.Connect(func(v float32) { downstream = append(downstream, v) })

	_ = g.SetParameter(ident.New("Value"), Float(2))
	g.Process()

	if len(downstream) != 1 || downstream[0] != 2 {
		t.Fatalf("downstream = %v, want [2]", downstream)
	}

	if len(sink.events) != 1 || sink.events[0] != ident.New("OnClipped") {
		t.Fatalf("sink events = %v", sink.events)
	}

	if err := g.SendEvent(ident.New("Poke"), 3); err != nil {
		t.Fatalf("SendEvent() error = %v", err)
	}

	if g.last != 3 {
		t.Fatalf("last = %v, want 3", g.last)
	}

	if err := g.SendEvent(ident.New("Nope"), 0); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("SendEvent(missing) error = %v", err)
	}
}

func TestFlagCoalesces(t *testing.T) {
	var f Flag

	f.SetDirty()
	f.SetDirty()
	f.SetDirty()

	if !f.CheckAndResetIfDirty() {
		t.Fatal("first check = false")
	}

	if f.CheckAndResetIfDirty() {
		t.Fatal("second check = true, want coalesced")
	}
}

func TestArrayInput(t *testing.T) {
	g := newGain(t)
	id := ident.New("Table")

	if kind, ok := g.ArrayKind(id); !ok || kind != KindFloat {
		t.Fatalf("ArrayKind() = %v,%v", kind, ok)
	}

	if err := g.SetArray(id, []Value{Float(1), Int(2), Bool(true)}); err != nil {
		t.Fatalf("SetArray() error = %v", err)
	}

	if g.ArrayLen(id) != 3 || g.table[1] != 2 || g.table[2] != 1 {
		t.Fatalf("table = %v", g.table)
	}

	if err := g.SetArray(ident.New("Other"), nil); !errors.Is(err, ErrParameterNotFound) {
		t.Fatalf("SetArray(missing) error = %v", err)
	}
}

func TestLinkConvertsKinds(t *testing.T) {
	src := newGain(t)
	dst := newGain(t)

	out, _ := src.Output(ident.New("Value"))

	toGain, err := Link(out, dst.Parameter(ident.New("Gain")))
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	toMute, err := Link(out, dst.Parameter(ident.New("Mute")))
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	src.out = 0.75
	toGain()
	toMute()

	if got := dst.Parameter(ident.New("Gain")).Value().Float(); got != 0.75 {
		t.Fatalf("Gain = %v, want 0.75", got)
	}

	if !dst.Parameter(ident.New("Mute")).Value().Bool() {
		t.Fatal("Mute = false, want true")
	}

	if _, err := Link(Output{}, dst.Parameter(ident.New("Gain"))); !errors.Is(err, ErrOutputNotFound) {
		t.Fatalf("Link(empty) error = %v", err)
	}
}

func TestInitializeCachesRate(t *testing.T) {
	g := newGain(t)

	if err := Initialize(g, 44100, 256); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if g.SampleRate() != 44100 || g.BlockSize() != 256 {
		t.Fatalf("rate,block = %v,%v", g.SampleRate(), g.BlockSize())
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	g := newGain(t)
	g.SetSink(&recordSink{})
	_ = g.SetParameter(ident.New("Value"), Float(0.5))

	allocs := testing.AllocsPerRun(100, g.Process)
	if allocs != 0 {
		t.Fatalf("Process allocs = %v, want 0", allocs)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("Gain", func(Context) (Processor, error) { return &gainNode{}, nil })

	if err := r.Register("Gain", func(Context) (Processor, error) { return nil, nil }); err == nil {
		t.Fatal("duplicate Register() error = nil")
	}

	if _, err := r.New("Missing", Context{}); !errors.Is(err, ErrUnknownNodeType) {
		t.Fatalf("New(missing) error = %v", err)
	}

	p, err := r.New("Gain", Context{SampleRate: 48000})
	if err != nil || p == nil {
		t.Fatalf("New() = %v,%v", p, err)
	}

	if types := r.Types(); len(types) != 1 || types[0] != "Gain" {
		t.Fatalf("Types() = %v", types)
	}
}
