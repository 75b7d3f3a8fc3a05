package hostaudio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-soundgraph/dsp/nodes"
	"github.com/cwbudde/algo-soundgraph/dsp/soundgraph"
	"github.com/cwbudde/algo-soundgraph/engine/player"
)

func playingSource(t *testing.T, channels int) *player.Source {
	t.Helper()

	p, err := player.New(player.NewOfflineHost(48000, channels))
	if err != nil {
		t.Fatalf("player.New() error = %v", err)
	}

	t.Cleanup(func() { _ = p.Close() })

	s, err := p.CreateSource(&soundgraph.Prototype{
		Nodes: []soundgraph.NodeSpec{
			{Type: nodes.TypeSine, UUID: 1, Params: map[string]any{"Frequency": 1000, "Amplitude": 1}},
		},
		Connections: []soundgraph.Connection{
			{From: 1, FromPort: "Value", To: soundgraph.EndpointUUID, ToPort: "OutLeft"},
			{From: 1, FromPort: "Value", To: soundgraph.EndpointUUID, ToPort: "OutRight"},
		},
	})
	if err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}

	if err := s.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	return s.Source()
}

func sampleAt(p []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p[i*bytesPerSample:]))
}

func TestStreamEncodesFloat32LE(t *testing.T) {
	var master atomic.Uint64
	master.Store(math.Float64bits(0.5))

	src := playingSource(t, 2)
	st := newStream(src, &master, 16)

	// Larger than the preallocated buffer and not a whole frame.
	p := make([]byte, 100*2*bytesPerSample+3)

	n, err := st.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("Read() = %d, %v", n, err)
	}

	want := 0.5 * math.Sin(2*math.Pi*1000*10/48000)
	if l, r := sampleAt(p, 20), sampleAt(p, 21); math.Abs(float64(l)-want) > 1e-4 || l != r {
		t.Fatalf("frame 10 = (%v, %v), want %v", l, r, want)
	}

	for i, b := range p[len(p)-3:] {
		if b != 0 {
			t.Fatalf("partial frame byte %d = %d, want 0", i, b)
		}
	}

	if src.Cursor() != 100 {
		t.Fatalf("Cursor() = %d, want 100", src.Cursor())
	}
}

func TestDetachedStreamIsSilent(t *testing.T) {
	var master atomic.Uint64
	master.Store(math.Float64bits(1))

	st := newStream(playingSource(t, 1), &master, 64)
	st.detach()

	p := make([]byte, 64)
	for i := range p {
		p[i] = 0xff
	}

	if n, err := st.Read(p); err != nil || n != len(p) {
		t.Fatalf("Read() = %d, %v", n, err)
	}

	for i, b := range p {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}
