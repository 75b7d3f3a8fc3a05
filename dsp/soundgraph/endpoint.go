package soundgraph

import (
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

const endpointType = "GraphEndpoint"

// endpoint is the reserved node through which audio and lifecycle events
// enter and leave a graph.
type endpoint struct {
	node.Node

	inLeft  float32
	inRight float32

	outLeft  *node.Slot[float32]
	outRight *node.Slot[float32]

	onPlay node.OutputEvent

	play     node.Flag
	finished atomic.Bool
}

func (e *endpoint) Describe(d *node.Describer) {
	node.ValueOut(d, "InLeft", &e.inLeft)
	node.ValueOut(d, "InRight", &e.inRight)
	node.Input(d, "OutLeft", &e.outLeft, 0)
	node.Input(d, "OutRight", &e.outRight, 0)
	node.OutEvent(d, "OnPlay", &e.onPlay)
	node.Event(d, "OnFinished", func() { e.finished.Store(true) })
}

func (e *endpoint) Process() {
	if e.play.CheckAndResetIfDirty() {
		e.onPlay.Fire(1)
	}
}

func (e *endpoint) output() (l, r float32) {
	return load(e.outLeft), load(e.outRight)
}

func load(s *node.Slot[float32]) float32 {
	if s == nil {
		return 0
	}

	return s.Load()
}
