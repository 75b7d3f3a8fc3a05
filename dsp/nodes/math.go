package nodes

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

const epsilon32 = 1.1920929e-07

// BinaryOp selects the operation of a Binary node.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpMin
	OpMax
	OpModulo
	OpPower
)

var binaryNames = [...]string{
	OpAdd:      "Add",
	OpSubtract: "Subtract",
	OpMultiply: "Multiply",
	OpDivide:   "Divide",
	OpMin:      "Min",
	OpMax:      "Max",
	OpModulo:   "Modulo",
	OpPower:    "Power",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}

	return "Unknown"
}

// Binary applies op to Value1 and Value2 (Base and Exponent for Power).
type Binary[T Number] struct {
	node.Node

	op     BinaryOp
	value1 *node.Slot[T]
	value2 *node.Slot[T]
	out    T
}

// NewBinary returns a binary math node.
func NewBinary[T Number](op BinaryOp) *Binary[T] {
	return &Binary[T]{op: op}
}

func (b *Binary[T]) Describe(d *node.Describer) {
	var one T = 1

	switch b.op {
	case OpPower:
		node.Input(d, "Base", &b.value1, 0)
		node.Input(d, "Exponent", &b.value2, one)
	case OpDivide, OpModulo:
		node.Input(d, "Value1", &b.value1, 0)
		node.Input(d, "Value2", &b.value2, one)
	case OpMultiply:
		node.Input(d, "Value1", &b.value1, one)
		node.Input(d, "Value2", &b.value2, one)
	default:
		node.Input(d, "Value1", &b.value1, 0)
		node.Input(d, "Value2", &b.value2, 0)
	}

	node.ValueOut(d, "Out", &b.out)
}

// Out returns the last result.
func (b *Binary[T]) Out() T { return b.out }

func (b *Binary[T]) Process() {
	if b.value1 == nil || b.value2 == nil {
		b.out = 0
		return
	}

	x, y := b.value1.Load(), b.value2.Load()

	switch b.op {
	case OpAdd:
		b.out = x + y
	case OpSubtract:
		b.out = x - y
	case OpMultiply:
		b.out = x * y
	case OpDivide:
		b.out = divide(x, y)
	case OpMin:
		b.out = min(x, y)
	case OpMax:
		b.out = max(x, y)
	case OpModulo:
		b.out = modulo(x, y)
	case OpPower:
		b.out = power(x, y)
	}
}

func divide[T Number](x, y T) T {
	if y != 0 {
		return x / y
	}

	if isFloat[T]() {
		return T(float32(x) / epsilon32)
	}

	return x
}

func modulo[T Number](x, y T) T {
	if isFloat[T]() {
		if y == 0 {
			return 0
		}

		return T(math.Mod(float64(x), float64(y)))
	}

	if y == 0 || (int32(y) == -1) {
		return 0
	}

	return T(int32(x) % int32(y))
}

func power[T Number](base, exp T) T {
	if isFloat[T]() {
		r := math.Pow(float64(base), float64(exp))
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return 0
		}

		return T(r)
	}

	return T(powInt32(int32(base), int32(exp)))
}

// powInt32 raises base to exp, returning 0 on overflow or for negative
// exponents of bases other than ±1.
func powInt32(base, exp int32) int32 {
	switch base {
	case 0:
		if exp == 0 {
			return 1
		}

		return 0
	case 1:
		return 1
	case -1:
		if exp%2 == 0 {
			return 1
		}

		return -1
	}

	if exp < 0 || exp > 63 {
		return 0
	}

	result, b := int64(1), int64(base)
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result *= b
			if result > math.MaxInt32 || result < math.MinInt32 {
				return 0
			}
		}

		if e > 1 {
			b *= b
			if b > math.MaxInt32 || b < -math.MaxInt32 {
				return 0
			}
		}
	}

	return int32(result)
}

// Clamp limits In to [Min, Max]. An inverted range yields Min.
type Clamp[T Number] struct {
	node.Node

	in  *node.Slot[T]
	lo  *node.Slot[T]
	hi  *node.Slot[T]
	out T
}

func NewClamp[T Number]() *Clamp[T] { return &Clamp[T]{} }

func (c *Clamp[T]) Describe(d *node.Describer) {
	node.Input(d, "In", &c.in, 0)
	node.Input(d, "Min", &c.lo, 0)
	node.Input(d, "Max", &c.hi, 1)
	node.ValueOut(d, "Out", &c.out)
}

func (c *Clamp[T]) Process() {
	if c.in == nil || c.lo == nil || c.hi == nil {
		c.out = 0
		return
	}

	lo, hi := c.lo.Load(), c.hi.Load()
	c.out = max(min(c.in.Load(), hi), lo)
}

// MapRange maps In from [InRangeMin, InRangeMax] onto
// [OutRangeMin, OutRangeMax], optionally clamping to the output range.
// A degenerate input range yields OutRangeMin.
type MapRange[T Number] struct {
	node.Node

	in      *node.Slot[T]
	inMin   *node.Slot[T]
	inMax   *node.Slot[T]
	outMin  *node.Slot[T]
	outMax  *node.Slot[T]
	clamped *node.Slot[bool]
	out     T
}

func NewMapRange[T Number]() *MapRange[T] { return &MapRange[T]{} }

func (m *MapRange[T]) Describe(d *node.Describer) {
	node.Input(d, "In", &m.in, 0)
	node.Input(d, "InRangeMin", &m.inMin, 0)
	node.Input(d, "InRangeMax", &m.inMax, 1)
	node.Input(d, "OutRangeMin", &m.outMin, 0)
	node.Input(d, "OutRangeMax", &m.outMax, 1)
	node.Input(d, "Clamped", &m.clamped, true)
	node.ValueOut(d, "Out", &m.out)
}

func (m *MapRange[T]) Process() {
	if m.in == nil || m.inMin == nil || m.inMax == nil || m.outMin == nil || m.outMax == nil {
		m.out = 0
		return
	}

	x := float64(m.in.Load())
	a, b := float64(m.inMin.Load()), float64(m.inMax.Load())
	c, e := float64(m.outMin.Load()), float64(m.outMax.Load())

	if a == b {
		m.out = m.outMin.Load()
		return
	}

	r := c + (x-a)*(e-c)/(b-a)

	if load(m.clamped, true) {
		r = max(min(r, max(c, e)), min(c, e))
	}

	if isFloat[T]() {
		m.out = T(r)
		return
	}

	m.out = T(saturate32(r))
}

func saturate32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}

// Abs outputs |Value|. The int form maps MinInt32 to MaxInt32.
type Abs[T Number] struct {
	node.Node

	value *node.Slot[T]
	out   T
}

func NewAbs[T Number]() *Abs[T] { return &Abs[T]{} }

func (a *Abs[T]) Describe(d *node.Describer) {
	node.Input(d, "Value", &a.value, 0)
	node.ValueOut(d, "Out", &a.out)
}

func (a *Abs[T]) Process() {
	if a.value == nil {
		a.out = 0
		return
	}

	v := a.value.Load()

	switch {
	case v >= 0:
		a.out = v
	case !isFloat[T]() && int32(v) == math.MinInt32:
		a.out = T(int32(math.MaxInt32))
	default:
		a.out = -v
	}
}
