package node

import (
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
)

// Flag is a single-reader dirty latch. Any number of SetDirty calls
// between two reads collapse into one.
type Flag struct {
	dirty atomic.Bool
}

// SetDirty raises the latch.
func (f *Flag) SetDirty() {
	f.dirty.Store(true)
}

// CheckAndResetIfDirty reports whether the latch was raised and clears it.
func (f *Flag) CheckAndResetIfDirty() bool {
	return f.dirty.Swap(false)
}

// IsDirty reports the latch without clearing it.
func (f *Flag) IsDirty() bool {
	return f.dirty.Load()
}

// InputEvent is a handler registered under an ID on its owner node.
// Handlers must only latch state (Flag, Slot); they run on whichever
// thread delivers the event.
type InputEvent struct {
	ID      ident.ID
	Owner   *Node
	Handler func(value float32)
}

// OutputEvent is an event source owned by a node. Firing it calls every
// connected input handler synchronously and posts a record to the owner's
// sink. Connections are made before processing starts.
type OutputEvent struct {
	ID ident.ID

	owner   *Node
	targets []func(float32)
}

// Connect adds handler to the event's targets. Not safe during processing.
func (e *OutputEvent) Connect(handler func(float32)) {
	if handler != nil {
		e.targets = append(e.targets, handler)
	}
}

// Targets returns the number of connected handlers.
func (e *OutputEvent) Targets() int {
	return len(e.targets)
}

// Fire delivers value to every target and to the owner's sink.
func (e *OutputEvent) Fire(value float32) {
	for _, t := range e.targets {
		t(value)
	}

	if e.owner != nil && e.owner.sink != nil {
		e.owner.sink.PostEvent(e.owner.uuid, e.ID, value)
	}
}
