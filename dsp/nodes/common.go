package nodes

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

// Number is the element set of the typed math and array nodes.
type Number interface {
	float32 | int32
}

func load[T node.Scalar](s *node.Slot[T], def T) T {
	if s == nil {
		return def
	}

	return s.Load()
}

func isFloat[T Number]() bool {
	var zero T
	_, ok := any(zero).(float32)

	return ok
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// seedSource resolves a seed input: -1 asks for a clock-derived seed.
func seedSource(seed int32) uint64 {
	if seed == -1 {
		return uint64(time.Now().UnixNano())
	}

	return uint64(uint32(seed))
}

// rng is a PCG generator that reseeds without allocating.
type rng struct {
	pcg  rand.PCG
	rand *rand.Rand
}

func (r *rng) seed(seed int32) {
	s := seedSource(seed)
	r.pcg.Seed(s, s^0x9e3779b97f4a7c15)

	if r.rand == nil {
		r.rand = rand.New(&r.pcg)
	}
}

func (r *rng) float64() float64 { return r.rand.Float64() }

// intRange returns a uniform int in [lo, hi].
func (r *rng) intRange(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}

	return lo + r.rand.Int64N(hi-lo+1)
}
