package player

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

// PlayState is the transport state of a voice.
type PlayState uint8

const (
	Stopped PlayState = iota
	Playing
	Paused
	Stopping
)

func (s PlayState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Parameter IDs every Sound exposes through ParameterValue and
// SetParameterValue. Other IDs are forwarded to the graph's inputs.
var (
	VolumeID   = ident.New("Volume")
	PitchID    = ident.New("Pitch")
	PriorityID = ident.New("Priority")
	LoopingID  = ident.New("Looping")
)

// DefaultStopFadeMs is the fade StopFade uses for a non-positive duration.
const DefaultStopFadeMs = 10

type fade struct {
	active   bool
	start    float64
	target   float64
	duration float64
	elapsed  float64
}

// step advances the fade by dt seconds and returns the current value.
func (f *fade) step(dt float64) (v float64, done bool) {
	f.elapsed += dt
	if f.duration <= 0 || f.elapsed >= f.duration {
		f.active = false
		return f.target, true
	}

	return f.start + (f.target-f.start)*f.elapsed/f.duration, false
}

// Vec3 is a position, velocity or direction for downstream spatialisers.
type Vec3 struct{ X, Y, Z float32 }

// Sound is one voice: a Source plus transport state, volume and pitch
// fades, priority and 3D attributes. It belongs to the control thread.
type Sound struct {
	source *Source
	host   Host

	state PlayState
	next  PlayState

	priority uint8
	volume   float64
	pitch    float64

	volumeFade fade
	pitchFade  fade
	stopAtFade bool

	position    Vec3
	velocity    Vec3
	orientation Vec3

	looping  bool
	ready    bool
	finished bool
}

func newSound(src *Source, host Host) *Sound {
	return &Sound{
		source:   src,
		host:     host,
		priority: 128,
		volume:   1,
		pitch:    1,
		ready:    true,
	}
}

// Source returns the pull source the voice drives.
func (s *Sound) Source() *Source { return s.source }

// ID returns the source ID.
func (s *Sound) ID() uint32 { return s.source.id }

// State returns the transport state.
func (s *Sound) State() PlayState { return s.state }

// IsPlaying reports whether the voice is playing or fading out to stop.
func (s *Sound) IsPlaying() bool { return s.state == Playing || s.state == Stopping }

// IsFading reports whether a volume fade is running.
func (s *Sound) IsFading() bool { return s.volumeFade.active }

// IsFinished reports whether the graph signalled completion.
func (s *Sound) IsFinished() bool { return s.finished }

// IsReadyToPlay reports whether the voice holds a usable graph.
func (s *Sound) IsReadyToPlay() bool { return s.ready }

// Play starts or resumes the voice. When the host refuses, processing is
// suspended again and the previous state kept.
func (s *Sound) Play() error {
	if !s.ready {
		return fmt.Errorf("player: source %d: not ready", s.source.id)
	}

	prev := s.state
	resume := prev == Paused

	s.source.SuspendProcessing(false)

	if err := s.host.Start(s.source.id); err != nil {
		s.source.SuspendProcessing(true)
		return fmt.Errorf("player: play source %d: %w", s.source.id, err)
	}

	if !resume {
		s.finished = false
		s.source.graph.Play()
	}

	s.state = Playing
	s.next = Playing

	return nil
}

// Pause suspends processing, keeping graph state.
func (s *Sound) Pause() {
	if s.state != Playing && s.state != Stopping {
		return
	}

	s.source.SuspendProcessing(true)
	_ = s.host.Stop(s.source.id)
	s.state = Paused
	s.next = Paused
}

// Stop halts the voice immediately and cancels every fade.
func (s *Sound) Stop() {
	s.volumeFade = fade{}
	s.pitchFade = fade{}
	s.stopAtFade = false

	s.source.graph.Stop()
	s.source.SuspendProcessing(true)
	_ = s.host.Stop(s.source.id)

	s.state = Stopped
	s.next = Stopped
}

// StopFade fades the volume to zero over ms milliseconds, then stops.
func (s *Sound) StopFade(ms int32) {
	if s.state != Playing {
		s.Stop()
		return
	}

	if ms <= 0 {
		ms = DefaultStopFadeMs
	}

	s.FadeTo(0, float64(ms)/1000)
	s.stopAtFade = true
	s.state = Stopping
	s.next = Stopped
}

// StopFadeFrames is StopFade with the duration given in frames at the
// source's sample rate.
func (s *Sound) StopFadeFrames(frames uint64) {
	s.StopFade(FramesToMs(frames, s.source.graph.SampleRate()))
}

// FramesToMs converts a frame count to milliseconds, saturating at the
// int32 range.
func FramesToMs(frames uint64, sampleRate float64) int32 {
	if sampleRate <= 0 {
		return 0
	}

	ms := math.Round(float64(frames) * 1000 / sampleRate)
	if ms >= math.MaxInt32 {
		return math.MaxInt32
	}

	return int32(ms)
}

// FadeTo moves the volume to target over seconds of Update time.
func (s *Sound) FadeTo(target, seconds float64) {
	s.volumeFade = fade{active: true, start: s.volume, target: clampVolume(target), duration: seconds}
	s.stopAtFade = false
}

// FadeIn fades from silence to target.
func (s *Sound) FadeIn(seconds, target float64) {
	s.setVolume(0)
	s.FadeTo(target, seconds)
}

// FadeOut fades from the current volume to target.
func (s *Sound) FadeOut(seconds, target float64) {
	s.FadeTo(target, seconds)
}

// PitchTo moves the pitch to target over seconds of Update time.
func (s *Sound) PitchTo(target, seconds float64) {
	s.pitchFade = fade{active: true, start: s.pitch, target: clampPitch(target), duration: seconds}
}

// Update advances fades by dt seconds and picks up graph completion. A
// volume fade that ends at zero, or one started by StopFade, stops the
// voice.
func (s *Sound) Update(dt float64) {
	if s.volumeFade.active {
		v, done := s.volumeFade.step(dt)
		s.setVolume(v)

		if done && (s.stopAtFade || s.volumeFade.target == 0) && s.state != Stopped {
			s.Stop()
		}
	}

	if s.pitchFade.active {
		v, _ := s.pitchFade.step(dt)
		s.setPitch(v)
	}

	if s.state == Playing && s.source.graph.IsFinished() {
		s.finished = true
		s.Stop()
	}
}

// Volume returns the linear volume.
func (s *Sound) Volume() float64 { return s.volume }

// SetVolume sets the linear volume and cancels a running volume fade.
func (s *Sound) SetVolume(v float64) {
	s.volumeFade = fade{}
	s.stopAtFade = false
	s.setVolume(v)
}

// VolumeDB returns the volume in decibels; -Inf when silent.
func (s *Sound) VolumeDB() float64 { return core.LinearToDB(s.volume) }

// SetVolumeDB sets the volume in decibels.
func (s *Sound) SetVolumeDB(db float64) {
	s.SetVolume(core.DBToLinear(db))
}

func (s *Sound) setVolume(v float64) {
	s.volume = clampVolume(v)
	s.source.SetGain(s.volume)
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return core.Clamp(v, 0, 2)
}

func clampPitch(p float64) float64 {
	if math.IsNaN(p) {
		return 1
	}

	return core.Clamp(p, 0.01, 8)
}

// Pitch returns the pitch ratio.
func (s *Sound) Pitch() float64 { return s.pitch }

// SetPitch sets the pitch ratio. It reaches the graph through an input
// named Pitch when the graph declares one.
func (s *Sound) SetPitch(p float64) {
	s.pitchFade = fade{}
	s.setPitch(p)
}

func (s *Sound) setPitch(p float64) {
	s.pitch = clampPitch(p)
	_ = s.source.graph.SetInput(PitchID, node.Float(float32(s.pitch)))
}

// Priority returns the static priority.
func (s *Sound) Priority() uint8 { return s.priority }

// SetPriority sets the static priority.
func (s *Sound) SetPriority(p uint8) { s.priority = p }

// CurrentPriority blends static priority and effective volume into a
// score in [0, 1] for voice stealing; higher survives longer.
func (s *Sound) CurrentPriority() float64 {
	return float64(s.priority)/255*0.7 + min(s.volume, 1)*0.3
}

// Looping reports the loop flag.
func (s *Sound) Looping() bool { return s.looping }

// SetLooping sets the loop flag and forwards it to a graph input named
// Looping when present.
func (s *Sound) SetLooping(loop bool) {
	s.looping = loop
	_ = s.source.graph.SetInput(LoopingID, node.Bool(loop))
}

// SetPosition sets the emitter position.
func (s *Sound) SetPosition(v Vec3) { s.position = v }

// Position returns the emitter position.
func (s *Sound) Position() Vec3 { return s.position }

// SetVelocity sets the emitter velocity.
func (s *Sound) SetVelocity(v Vec3) { s.velocity = v }

// Velocity returns the emitter velocity.
func (s *Sound) Velocity() Vec3 { return s.velocity }

// SetOrientation sets the emitter facing direction.
func (s *Sound) SetOrientation(v Vec3) { s.orientation = v }

// Orientation returns the emitter facing direction.
func (s *Sound) Orientation() Vec3 { return s.orientation }

// ParameterValue returns a voice parameter or, for other IDs, the value
// of the graph input with that ID.
func (s *Sound) ParameterValue(id ident.ID) (node.Value, bool) {
	switch id {
	case VolumeID:
		return node.Float(float32(s.volume)), true
	case PitchID:
		return node.Float(float32(s.pitch)), true
	case PriorityID:
		return node.Int(int32(s.priority)), true
	case LoopingID:
		return node.Bool(s.looping), true
	default:
		return s.source.graph.Input(id)
	}
}

// SetParameterValue is the typed-setter entry point patches use.
func (s *Sound) SetParameterValue(id ident.ID, v node.Value) error {
	switch id {
	case VolumeID:
		s.SetVolume(float64(v.Float()))
	case PitchID:
		s.SetPitch(float64(v.Float()))
	case PriorityID:
		s.SetPriority(uint8(core.ClampOf(v.Int(), 0, 255)))
	case LoopingID:
		s.SetLooping(v.Bool())
	default:
		return s.source.graph.SetInput(id, v)
	}

	return nil
}

// SetParameterValues applies a whole patch. Voice parameters change at
// once; every graph input is queued as one patch so the audio thread
// picks them all up at the start of the same block.
func (s *Sound) SetParameterValues(values map[ident.ID]node.Value) error {
	inputs := make(map[ident.ID]node.Value, len(values))

	for id, v := range values {
		switch id {
		case VolumeID, PitchID, PriorityID, LoopingID:
			_ = s.SetParameterValue(id, v)
		default:
			inputs[id] = v
		}
	}

	if len(inputs) == 0 {
		return nil
	}

	return s.source.graph.QueuePatch(inputs)
}
