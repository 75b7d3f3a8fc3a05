package nodes

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

func binaryFloat(t *testing.T, op BinaryOp, a, b float32) float32 {
	t.Helper()

	n := build(t, NewBinary[float32](op), 48000)
	set(t, n, "Value1", node.Float(a))
	set(t, n, "Value2", node.Float(b))
	n.Process()

	return n.Out()
}

func binaryInt(t *testing.T, op BinaryOp, a, b int32) int32 {
	t.Helper()

	n := build(t, NewBinary[int32](op), 48000)

	first, second := "Value1", "Value2"
	if op == OpPower {
		first, second = "Base", "Exponent"
	}

	set(t, n, first, node.Int(a))
	set(t, n, second, node.Int(b))
	n.Process()

	return n.Out()
}

func TestBinaryFloat(t *testing.T) {
	tests := []struct {
		op   BinaryOp
		a, b float32
		want float32
	}{
		{OpAdd, 1.5, 2, 3.5},
		{OpSubtract, 1.5, 2, -0.5},
		{OpMultiply, 1.5, 2, 3},
		{OpDivide, 3, 2, 1.5},
		{OpDivide, 1, 0, 1 / epsilon32},
		{OpMin, 1, -2, -2},
		{OpMax, 1, -2, 1},
		{OpModulo, 5.5, 2, 1.5},
		{OpModulo, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if got := binaryFloat(t, tt.op, tt.a, tt.b); got != tt.want {
				t.Fatalf("%s(%v, %v) = %v, want %v", tt.op, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestBinaryInt(t *testing.T) {
	tests := []struct {
		name string
		op   BinaryOp
		a, b int32
		want int32
	}{
		{"add", OpAdd, 2, 3, 5},
		{"divide", OpDivide, 7, 2, 3},
		{"divide by zero", OpDivide, 7, 0, 7},
		{"modulo by zero", OpModulo, 7, 0, 0},
		{"modulo min by -1", OpModulo, math.MinInt32, -1, 0},
		{"power", OpPower, 3, 4, 81},
		{"power 2^30", OpPower, 2, 30, 1 << 30},
		{"power overflow", OpPower, 2, 31, 0},
		{"power negative base overflow", OpPower, -2, 33, 0},
		{"power huge exponent", OpPower, 2, 64, 0},
		{"power negative exponent", OpPower, 2, -1, 0},
		{"power one", OpPower, 1, -70, 1},
		{"power minus one odd", OpPower, -1, -3, -1},
		{"power minus one even", OpPower, -1, 100, 1},
		{"power zero zero", OpPower, 0, 0, 1},
		{"power negative base", OpPower, -3, 3, -27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := binaryInt(t, tt.op, tt.a, tt.b); got != tt.want {
				t.Fatalf("%s(%d, %d) = %d, want %d", tt.op, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	c := build(t, NewClamp[float32](), 48000)
	set(t, c, "In", node.Float(2))
	c.Process()

	if c.out != 1 {
		t.Fatalf("Clamp(2, 0, 1) = %v", c.out)
	}

	set(t, c, "In", node.Float(-2))
	c.Process()

	if c.out != 0 {
		t.Fatalf("Clamp(-2, 0, 1) = %v", c.out)
	}
}

func TestMapRange(t *testing.T) {
	m := build(t, NewMapRange[float32](), 48000)
	set(t, m, "In", node.Float(0.25))
	set(t, m, "OutRangeMin", node.Float(100))
	set(t, m, "OutRangeMax", node.Float(200))
	m.Process()

	if m.out != 125 {
		t.Fatalf("MapRange(0.25) = %v, want 125", m.out)
	}

	set(t, m, "In", node.Float(3))
	m.Process()

	if m.out != 200 {
		t.Fatalf("clamped MapRange(3) = %v, want 200", m.out)
	}

	set(t, m, "Clamped", node.Bool(false))
	m.Process()

	if m.out != 400 {
		t.Fatalf("unclamped MapRange(3) = %v, want 400", m.out)
	}

	set(t, m, "InRangeMax", node.Float(0))
	m.Process()

	if m.out != 100 {
		t.Fatalf("degenerate range = %v, want OutRangeMin", m.out)
	}
}

func TestMapRangeIntNoOverflow(t *testing.T) {
	m := build(t, NewMapRange[int32](), 48000)
	set(t, m, "In", node.Int(math.MaxInt32))
	set(t, m, "InRangeMin", node.Int(math.MinInt32))
	set(t, m, "InRangeMax", node.Int(math.MaxInt32))
	set(t, m, "OutRangeMin", node.Int(0))
	set(t, m, "OutRangeMax", node.Int(1000))
	m.Process()

	if m.out != 1000 {
		t.Fatalf("MapRange int = %d, want 1000", m.out)
	}
}

func TestAbs(t *testing.T) {
	a := build(t, NewAbs[int32](), 48000)
	set(t, a, "Value", node.Int(math.MinInt32))
	a.Process()

	if a.out != math.MaxInt32 {
		t.Fatalf("Abs(MinInt32) = %d", a.out)
	}

	f := build(t, NewAbs[float32](), 48000)
	set(t, f, "Value", node.Float(-0.5))
	f.Process()

	if f.out != 0.5 {
		t.Fatalf("Abs(-0.5) = %v", f.out)
	}
}

func TestNilInputsGiveNeutralOutput(t *testing.T) {
	b := NewBinary[float32](OpAdd)
	b.out = 5
	b.Process()

	if b.out != 0 {
		t.Fatalf("unbound Binary out = %v, want 0", b.out)
	}

	o := NewOscillator(WaveSine)
	o.value = 1
	o.Process()

	if o.value != 0 {
		t.Fatalf("unbound oscillator = %v, want 0", o.value)
	}
}
