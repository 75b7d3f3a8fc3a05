package nodes

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

// EnvelopeStage is the segment an envelope is in.
type EnvelopeStage uint8

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

const minCurve = 0.1

// stage advances normalised progress through one timed segment.
type stage struct {
	progress float64
}

// step returns the shaped progress before advancing and whether the
// segment finished. A duration <= 0 finishes immediately at full shape.
func (s *stage) step(seconds, curve, sampleRate float64) (shape float64, done bool) {
	if seconds <= 0 || sampleRate <= 0 {
		s.progress = 0
		return 1, true
	}

	curve = max(curve, minCurve)
	shape = core.FlushDenormals(math.Pow(min(s.progress, 1), 1/curve))
	s.progress += 1 / (seconds * sampleRate)

	if s.progress >= 1 {
		s.progress = 0
		return shape, true
	}

	return shape, false
}

// ADSR is an attack/decay/sustain/release envelope.
//
// Trigger starts the attack from the current level; Release starts the
// release from the current level. OnTrigger, OnRelease and OnComplete fire
// on the frames those transitions happen. With Looping set, the envelope
// releases as soon as sustain is reached and retriggers when complete.
type ADSR struct {
	node.Node

	attack       *node.Slot[float32]
	decay        *node.Slot[float32]
	sustain      *node.Slot[float32]
	release      *node.Slot[float32]
	attackCurve  *node.Slot[float32]
	decayCurve   *node.Slot[float32]
	releaseCurve *node.Slot[float32]
	looping      *node.Slot[bool]

	envelope float32

	onTrigger  node.OutputEvent
	onRelease  node.OutputEvent
	onComplete node.OutputEvent

	trigger  node.Flag
	released node.Flag

	stage        EnvelopeStage
	seg          stage
	level        float64
	startLevel   float64
	releaseLevel float64
}

func NewADSR() *ADSR { return &ADSR{} }

func (e *ADSR) Describe(d *node.Describer) {
	node.Input(d, "AttackTime", &e.attack, 0.01)
	node.Input(d, "DecayTime", &e.decay, 0.1)
	node.Input(d, "SustainLevel", &e.sustain, 0.7)
	node.Input(d, "ReleaseTime", &e.release, 0.2)
	node.Input(d, "AttackCurve", &e.attackCurve, 1)
	node.Input(d, "DecayCurve", &e.decayCurve, 1)
	node.Input(d, "ReleaseCurve", &e.releaseCurve, 1)
	node.Input(d, "Looping", &e.looping, false)
	node.Event(d, "Trigger", e.trigger.SetDirty)
	node.Event(d, "Release", e.released.SetDirty)
	node.ValueOut(d, "Envelope", &e.envelope)
	node.OutEvent(d, "OnTrigger", &e.onTrigger)
	node.OutEvent(d, "OnRelease", &e.onRelease)
	node.OutEvent(d, "OnComplete", &e.onComplete)
}

// Stage returns the current segment.
func (e *ADSR) Stage() EnvelopeStage { return e.stage }

func (e *ADSR) Process() {
	if e.trigger.CheckAndResetIfDirty() {
		e.start()
	}

	if e.released.CheckAndResetIfDirty() && e.stage != StageIdle && e.stage != StageRelease {
		e.beginRelease()
	}

	e.level = e.advance()
	e.envelope = float32(e.level)
}

func (e *ADSR) start() {
	e.startLevel = e.level
	e.stage = StageAttack
	e.seg = stage{}
	e.onTrigger.Fire(1)
}

func (e *ADSR) beginRelease() {
	e.releaseLevel = e.level
	e.stage = StageRelease
	e.seg = stage{}
	e.onRelease.Fire(1)
}

func (e *ADSR) advance() float64 {
	sr := e.SampleRate()
	sustain := core.Clamp(float64(load(e.sustain, 0)), 0, 1)

	// Bounded: each pass either returns or moves to a later stage.
	for range 5 {
		switch e.stage {
		case StageAttack:
			shape, done := e.seg.step(float64(load(e.attack, 0)), float64(load(e.attackCurve, 1)), sr)
			out := e.startLevel + (1-e.startLevel)*shape

			if done {
				e.stage = StageDecay
				if float64(load(e.attack, 0)) <= 0 {
					continue
				}
			}

			return out
		case StageDecay:
			shape, done := e.seg.step(float64(load(e.decay, 0)), float64(load(e.decayCurve, 1)), sr)
			out := 1 - (1-sustain)*shape

			if done {
				e.stage = StageSustain
				if float64(load(e.decay, 0)) <= 0 {
					continue
				}
			}

			return out
		case StageSustain:
			if load(e.looping, false) {
				e.level = sustain
				e.beginRelease()

				continue
			}

			return sustain
		case StageRelease:
			shape, done := e.seg.step(float64(load(e.release, 0)), float64(load(e.releaseCurve, 1)), sr)
			out := e.releaseLevel * (1 - shape)

			if done {
				e.stage = StageIdle
				e.onComplete.Fire(1)

				if load(e.looping, false) {
					e.level = 0
					e.start()
				}

				if float64(load(e.release, 0)) <= 0 {
					return 0
				}
			}

			return out
		default:
			return 0
		}
	}

	return e.level
}

// AD is a one-shot attack/decay envelope. With Looping set it retriggers
// on completion.
type AD struct {
	node.Node

	attack      *node.Slot[float32]
	decay       *node.Slot[float32]
	attackCurve *node.Slot[float32]
	decayCurve  *node.Slot[float32]
	looping     *node.Slot[bool]

	envelope float32

	onTrigger  node.OutputEvent
	onComplete node.OutputEvent

	trigger node.Flag

	stage      EnvelopeStage
	seg        stage
	level      float64
	startLevel float64
}

func NewAD() *AD { return &AD{} }

func (e *AD) Describe(d *node.Describer) {
	node.Input(d, "AttackTime", &e.attack, 0.01)
	node.Input(d, "DecayTime", &e.decay, 0.5)
	node.Input(d, "AttackCurve", &e.attackCurve, 1)
	node.Input(d, "DecayCurve", &e.decayCurve, 1)
	node.Input(d, "Looping", &e.looping, false)
	node.Event(d, "Trigger", e.trigger.SetDirty)
	node.ValueOut(d, "Envelope", &e.envelope)
	node.OutEvent(d, "OnTrigger", &e.onTrigger)
	node.OutEvent(d, "OnComplete", &e.onComplete)
}

// Stage returns the current segment.
func (e *AD) Stage() EnvelopeStage { return e.stage }

func (e *AD) Process() {
	if e.trigger.CheckAndResetIfDirty() {
		e.start()
	}

	e.level = e.advance()
	e.envelope = float32(e.level)
}

func (e *AD) start() {
	e.startLevel = e.level
	e.stage = StageAttack
	e.seg = stage{}
	e.onTrigger.Fire(1)
}

func (e *AD) advance() float64 {
	sr := e.SampleRate()

	for range 3 {
		switch e.stage {
		case StageAttack:
			shape, done := e.seg.step(float64(load(e.attack, 0)), float64(load(e.attackCurve, 1)), sr)
			out := e.startLevel + (1-e.startLevel)*shape

			if done {
				e.stage = StageDecay
				if float64(load(e.attack, 0)) <= 0 {
					continue
				}
			}

			return out
		case StageDecay:
			shape, done := e.seg.step(float64(load(e.decay, 0)), float64(load(e.decayCurve, 1)), sr)
			out := 1 - shape

			if done {
				e.stage = StageIdle
				e.onComplete.Fire(1)

				if load(e.looping, false) {
					e.level = 0
					e.start()
				}

				if float64(load(e.decay, 0)) <= 0 {
					return 0
				}
			}

			return out
		default:
			return 0
		}
	}

	return e.level
}
