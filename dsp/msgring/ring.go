// Package msgring is a bounded, lock-free multi-producer single-consumer
// queue of fixed-size messages. Audio threads push log lines and graph
// events; the main thread drains them. Slots are plain values, so neither
// Push nor Pop allocates.
package msgring

import (
	"runtime"
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
)

// TextSize is the capacity of a message's inline text.
const TextSize = 112

// Level is the severity of a log message.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// Message is one ring slot. Event messages carry Value; log messages
// carry Text.
type Message struct {
	Frame    uint64
	Source   uint32
	Node     uint64
	Endpoint ident.ID
	Level    Level
	IsEvent  bool
	Value    float32

	textLen uint8
	text    [TextSize]byte
}

// SetText copies s into the inline buffer, truncating at TextSize bytes.
func (m *Message) SetText(s string) {
	m.textLen = uint8(copy(m.text[:], s))
}

// Text returns the inline text. It allocates and is meant for the consumer.
func (m *Message) Text() string {
	return string(m.text[:m.textLen])
}

type cell struct {
	seq atomic.Uint64
	msg Message
}

// Ring is a bounded MPSC queue (Vyukov sequence-cell design).
type Ring struct {
	cells   []cell
	mask    uint64
	head    atomic.Uint64 // next write ticket
	tail    atomic.Uint64 // next read ticket (single consumer)
	dropped atomic.Uint64
}

// New returns a ring whose capacity is size rounded up to a power of two
// (minimum 2).
func New(size int) *Ring {
	n := 2
	for n < size {
		n <<= 1
	}

	r := &Ring{
		cells: make([]cell, n),
		mask:  uint64(n - 1),
	}

	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}

	return r
}

// Cap returns the number of slots.
func (r *Ring) Cap() int {
	return len(r.cells)
}

// Push copies msg into the ring. It returns false and counts a drop when
// the ring is full; producers never wait.
func (r *Ring) Push(msg *Message) bool {
	for {
		pos := r.head.Load()
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()

		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if r.head.CompareAndSwap(pos, pos+1) {
				c.msg = *msg
				c.seq.Store(pos + 1)

				return true
			}
		case diff < 0:
			r.dropped.Add(1)
			return false
		default:
			runtime.Gosched()
		}
	}
}

// Pop moves the oldest message into dst. It returns false when the ring is
// empty or the next slot is still being written. Only one goroutine may pop.
func (r *Ring) Pop(dst *Message) bool {
	pos := r.tail.Load()
	c := &r.cells[pos&r.mask]

	if c.seq.Load() != pos+1 {
		return false
	}

	*dst = c.msg
	c.seq.Store(pos + r.mask + 1)
	r.tail.Store(pos + 1)

	return true
}

// Drain pops every available message and hands it to fn. It returns the
// number of messages drained.
func (r *Ring) Drain(fn func(*Message)) int {
	var (
		msg Message
		n   int
	)

	for r.Pop(&msg) {
		fn(&msg)
		n++
	}

	return n
}

// Dropped returns how many pushes were rejected because the ring was full.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}
