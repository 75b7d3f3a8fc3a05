package nodes

import (
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

const (
	randomFloatLimit = 1000
	randomIntLimit   = 100000
)

// Get outputs Array[Index]. Out-of-range indices clamp to the array and
// post a warning when the index changes. An empty array outputs zero.
type Get[T Number] struct {
	node.Node

	array []T
	index *node.Slot[int32]

	element T

	lastWarned int32
	warned     bool
}

func NewGet[T Number]() *Get[T] { return &Get[T]{} }

func (g *Get[T]) Describe(d *node.Describer) {
	node.Array(d, "Array", &g.array)
	node.Input(d, "Index", &g.index, 0)
	node.ValueOut(d, "Element", &g.element)
}

func (g *Get[T]) Process() {
	if len(g.array) == 0 || g.index == nil {
		g.element = 0
		return
	}

	i := g.index.Load()
	clamped := min(max(i, 0), int32(len(g.array)-1))

	if clamped != i && (!g.warned || g.lastWarned != i) {
		g.Warn("Get: index out of range, clamped")
		g.warned = true
		g.lastWarned = i
	}

	g.element = g.array[clamped]
}

// GetRandom outputs a random element of Array between indices Min and Max
// (clamped to the array, swapped if inverted) on every Next event.
type GetRandom[T Number] struct {
	node.Node

	array []T
	lo    *node.Slot[int32]
	hi    *node.Slot[int32]
	seed  *node.Slot[int32]

	element T
	onNext  node.OutputEvent

	next  node.Flag
	reset node.Flag
	rng   rng
}

func NewGetRandom[T Number]() *GetRandom[T] { return &GetRandom[T]{} }

func (g *GetRandom[T]) Describe(d *node.Describer) {
	node.Array(d, "Array", &g.array)
	node.Input(d, "Min", &g.lo, 0)
	node.Input(d, "Max", &g.hi, 1<<30)
	node.Input(d, "Seed", &g.seed, -1)
	node.Event(d, "Next", g.next.SetDirty)
	node.Event(d, "Reset", g.reset.SetDirty)
	node.ValueOut(d, "Element", &g.element)
	node.OutEvent(d, "OnNext", &g.onNext)
}

func (g *GetRandom[T]) Init(float64, int) error {
	g.rng.seed(load(g.seed, -1))
	return nil
}

func (g *GetRandom[T]) Process() {
	if g.reset.CheckAndResetIfDirty() {
		g.rng.seed(load(g.seed, -1))
	}

	if !g.next.CheckAndResetIfDirty() {
		return
	}

	if len(g.array) == 0 {
		g.element = 0
		return
	}

	last := int64(len(g.array) - 1)
	lo := min(max(int64(load(g.lo, 0)), 0), last)
	hi := min(max(int64(load(g.hi, 0)), 0), last)

	if lo > hi {
		lo, hi = hi, lo
	}

	g.element = g.array[g.rng.intRange(lo, hi)]
	g.onNext.Fire(float32(g.element))
}

// Random outputs a uniform value in [Min, Max] on every Next event.
// Float bounds are clamped to ±1000, int bounds to ±100000.
type Random[T Number] struct {
	node.Node

	lo   *node.Slot[T]
	hi   *node.Slot[T]
	seed *node.Slot[int32]

	value  T
	onNext node.OutputEvent

	next  node.Flag
	reset node.Flag
	rng   rng
}

func NewRandom[T Number]() *Random[T] { return &Random[T]{} }

func (r *Random[T]) Describe(d *node.Describer) {
	node.Input(d, "Min", &r.lo, 0)
	node.Input(d, "Max", &r.hi, 1)
	node.Input(d, "Seed", &r.seed, -1)
	node.Event(d, "Next", r.next.SetDirty)
	node.Event(d, "Reset", r.reset.SetDirty)
	node.ValueOut(d, "Value", &r.value)
	node.OutEvent(d, "OnNext", &r.onNext)
}

func (r *Random[T]) Init(float64, int) error {
	r.rng.seed(load(r.seed, -1))
	return nil
}

func (r *Random[T]) Process() {
	if r.reset.CheckAndResetIfDirty() {
		r.rng.seed(load(r.seed, -1))
	}

	if !r.next.CheckAndResetIfDirty() {
		return
	}

	if r.lo == nil || r.hi == nil {
		r.value = 0
		return
	}

	lo, hi := r.lo.Load(), r.hi.Load()
	if lo > hi {
		lo, hi = hi, lo
	}

	if isFloat[T]() {
		a := min(max(float64(lo), -randomFloatLimit), randomFloatLimit)
		b := min(max(float64(hi), -randomFloatLimit), randomFloatLimit)
		r.value = T(a + (b-a)*r.rng.float64())
	} else {
		a := min(max(int64(lo), -randomIntLimit), randomIntLimit)
		b := min(max(int64(hi), -randomIntLimit), randomIntLimit)
		r.value = T(r.rng.intRange(a, b))
	}

	r.onNext.Fire(float32(r.value))
}
