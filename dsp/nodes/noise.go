package nodes

import (
	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

// Noise colours.
const (
	NoiseWhite int32 = iota
	NoisePink
	NoiseBrown
)

// Noise generates white, pink or brown noise.
//
// Inputs: Seed (-1 seeds from the clock at Init), Type and Amplitude.
// Changing Type while running reseeds and clears the filter state, so a
// given seed always produces the same sequence for a given colour.
type Noise struct {
	node.Node

	seed      *node.Slot[int32]
	noiseType *node.Slot[int32]
	amplitude *node.Slot[float32]

	value float32

	rng     rng
	current int32
	pink    [7]float64
	brown   float64
}

func NewNoise() *Noise { return &Noise{} }

func (n *Noise) Describe(d *node.Describer) {
	node.Input(d, "Seed", &n.seed, -1)
	node.Input(d, "Type", &n.noiseType, NoiseWhite)
	node.Input(d, "Amplitude", &n.amplitude, 1)
	node.ValueOut(d, "Value", &n.value)
}

func (n *Noise) Init(float64, int) error {
	n.current = load(n.noiseType, NoiseWhite)
	n.reset()

	return nil
}

func (n *Noise) reset() {
	n.rng.seed(load(n.seed, -1))
	n.pink = [7]float64{}
	n.brown = 0
}

func (n *Noise) Process() {
	if n.amplitude == nil {
		n.value = 0
		return
	}

	if t := load(n.noiseType, NoiseWhite); t != n.current {
		n.current = t
		n.reset()
	}

	white := n.rng.float64()*2 - 1

	var s float64

	switch n.current {
	case NoisePink:
		s = n.nextPink(white)
	case NoiseBrown:
		n.brown = core.FlushDenormals(core.Clamp(n.brown*0.9999+white*0.02, -1, 1))
		s = n.brown
	default:
		s = white
	}

	amp := core.Clamp(float64(n.amplitude.Load()), 0, 1)
	n.value = float32(amp * s)
}

// nextPink is Paul Kellet's refined pink filter.
func (n *Noise) nextPink(white float64) float64 {
	b := &n.pink
	b[0] = 0.99886*b[0] + white*0.0555179
	b[1] = 0.99332*b[1] + white*0.0750759
	b[2] = 0.96900*b[2] + white*0.1538520
	b[3] = 0.86650*b[3] + white*0.3104856
	b[4] = 0.55000*b[4] + white*0.5329522
	b[5] = -0.7616*b[5] - white*0.0168980
	out := b[0] + b[1] + b[2] + b[3] + b[4] + b[5] + b[6] + white*0.5362
	b[6] = white * 0.115926

	return core.Clamp(out*0.11, -1, 1)
}
