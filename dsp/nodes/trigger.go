package nodes

import (
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

const (
	minRepeatPeriod = 0.001
	maxCatchUp      = 64
)

// RepeatTrigger fires OnTrigger every Period seconds between Start and
// Stop. Start fires immediately. Periods missed after a shortened Period
// are caught up on the next frames, keeping the overshoot.
type RepeatTrigger struct {
	node.Node

	period *node.Slot[float32]

	onTrigger node.OutputEvent

	start node.Flag
	stop  node.Flag

	playing bool
	counter float64
}

func NewRepeatTrigger() *RepeatTrigger { return &RepeatTrigger{} }

func (r *RepeatTrigger) Describe(d *node.Describer) {
	node.Input(d, "Period", &r.period, 0.2)
	node.Event(d, "Start", r.start.SetDirty)
	node.Event(d, "Stop", r.stop.SetDirty)
	node.OutEvent(d, "OnTrigger", &r.onTrigger)
}

// Playing reports whether the trigger is running.
func (r *RepeatTrigger) Playing() bool { return r.playing }

func (r *RepeatTrigger) Process() {
	if r.start.CheckAndResetIfDirty() {
		r.playing = true
		r.counter = 0
		r.onTrigger.Fire(1)
	}

	if r.stop.CheckAndResetIfDirty() {
		r.playing = false
	}

	sr := r.SampleRate()
	if !r.playing || sr <= 0 || r.period == nil {
		return
	}

	period := max(float64(r.period.Load()), minRepeatPeriod)
	if math.IsNaN(period) || math.IsInf(period, 0) {
		return
	}

	r.counter += 1 / sr

	for fired := 0; r.counter >= period; fired++ {
		if fired == maxCatchUp {
			r.counter = math.Mod(r.counter, period)
			break
		}

		r.counter -= period
		r.onTrigger.Fire(1)
	}
}

// TriggerCounter counts Trigger events. Value is StartValue +
// StepSize*Count. When ResetCount > 0 and Count reaches it, the counter
// resets at the end of that frame, after OnTrigger, unless a manual Reset
// was handled in the same frame.
type TriggerCounter struct {
	node.Node

	startValue *node.Slot[float32]
	stepSize   *node.Slot[float32]
	resetCount *node.Slot[int32]

	count int32
	value float32

	onTrigger node.OutputEvent
	onReset   node.OutputEvent

	trigger node.Flag
	reset   node.Flag
}

func NewTriggerCounter() *TriggerCounter { return &TriggerCounter{} }

func (c *TriggerCounter) Describe(d *node.Describer) {
	node.Input(d, "StartValue", &c.startValue, 0)
	node.Input(d, "StepSize", &c.stepSize, 1)
	node.Input(d, "ResetCount", &c.resetCount, 0)
	node.Event(d, "Trigger", c.trigger.SetDirty)
	node.Event(d, "Reset", c.reset.SetDirty)
	node.ValueOut(d, "Count", &c.count)
	node.ValueOut(d, "Value", &c.value)
	node.OutEvent(d, "OnTrigger", &c.onTrigger)
	node.OutEvent(d, "OnReset", &c.onReset)
}

func (c *TriggerCounter) Init(float64, int) error {
	c.count = 0
	c.value = load(c.startValue, 0)

	return nil
}

// Count returns the current count.
func (c *TriggerCounter) Count() int32 { return c.count }

func (c *TriggerCounter) Process() {
	manual := c.reset.CheckAndResetIfDirty()
	if manual {
		c.doReset()
	}

	if !c.trigger.CheckAndResetIfDirty() {
		return
	}

	c.count++
	c.value = load(c.startValue, 0) + load(c.stepSize, 1)*float32(c.count)
	c.onTrigger.Fire(c.value)

	// The auto reset runs last so a manual reset in the same frame wins.
	if rc := load(c.resetCount, 0); !manual && rc > 0 && c.count >= rc {
		c.doReset()
	}
}

func (c *TriggerCounter) doReset() {
	c.count = 0
	c.value = load(c.startValue, 0)
	c.onReset.Fire(c.value)
}

// DelayedTrigger fires OnTrigger DelayTime seconds after Trigger.
// Retriggering restarts the delay; Reset cancels it.
type DelayedTrigger struct {
	node.Node

	delay *node.Slot[float32]

	onTrigger node.OutputEvent
	onReset   node.OutputEvent

	trigger node.Flag
	reset   node.Flag

	waiting bool
	counter float64
}

func NewDelayedTrigger() *DelayedTrigger { return &DelayedTrigger{} }

func (t *DelayedTrigger) Describe(d *node.Describer) {
	node.Input(d, "DelayTime", &t.delay, 0.5)
	node.Event(d, "Trigger", t.trigger.SetDirty)
	node.Event(d, "Reset", t.reset.SetDirty)
	node.OutEvent(d, "OnTrigger", &t.onTrigger)
	node.OutEvent(d, "OnReset", &t.onReset)
}

func (t *DelayedTrigger) Process() {
	if t.reset.CheckAndResetIfDirty() {
		t.waiting = false
		t.counter = 0
		t.onReset.Fire(1)
	}

	if t.trigger.CheckAndResetIfDirty() {
		t.waiting = true
		t.counter = 0
	}

	if !t.waiting {
		return
	}

	if t.counter >= float64(load(t.delay, 0)) {
		t.waiting = false
		t.onTrigger.Fire(1)

		return
	}

	if sr := t.SampleRate(); sr > 0 {
		t.counter += 1 / sr
	}
}
