package nodes

import (
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/dsp/node"
	"github.com/cwbudde/algo-soundgraph/dsp/wavesource"
	"github.com/cwbudde/algo-soundgraph/engine/asset"
)

// PlayerState is the load and playback state of a WavePlayer.
type PlayerState int32

const (
	PlayerIdle PlayerState = iota
	PlayerLoading
	PlayerReady
	PlayerPlaying
	PlayerFailed
	PlayerCancelled
)

func (s PlayerState) String() string {
	switch s {
	case PlayerIdle:
		return "idle"
	case PlayerLoading:
		return "loading"
	case PlayerReady:
		return "ready"
	case PlayerPlaying:
		return "playing"
	case PlayerFailed:
		return "failed"
	case PlayerCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

const (
	maxRefillRetries = 5
	wavePlayerJobs   = 4
)

type loadSlot struct {
	job      asset.Job
	inFlight bool
}

// WavePlayer plays a decoded wave asset as a stereo signal.
//
// Changing WaveAsset starts a background load through the context's
// loader; a load still running for the previous asset is left to finish
// and its result is dropped. Play before the data is ready is remembered
// and starts playback once it is. Loop with NumberOfLoops >= 0 plays the
// region from StartTime NumberOfLoops+1 times in total; -1 loops forever.
type WavePlayer struct {
	node.Node

	waveAsset     *node.Slot[int32]
	startTime     *node.Slot[float32]
	loop          *node.Slot[bool]
	numberOfLoops *node.Slot[int32]

	left  float32
	right float32

	onPlay     node.OutputEvent
	onStop     node.OutputEvent
	onFinished node.OutputEvent
	onLooped   node.OutputEvent

	play node.Flag
	stop node.Flag

	loader asset.Submitter
	source *wavesource.Source
	state  atomic.Int32

	jobs       [wavePlayerJobs]loadSlot
	current    int
	handle     asset.Handle
	needSubmit bool

	pendingPlayback bool
	startSample     int64
	frame           int64
	loopCount       int32
}

// NewWavePlayer returns a player that loads through loader. A nil loader
// leaves every asset in the failed state.
func NewWavePlayer(loader asset.Submitter) *WavePlayer {
	return &WavePlayer{
		loader:  loader,
		source:  wavesource.NewSource(wavesource.DefaultRingFrames),
		current: -1,
	}
}

func (w *WavePlayer) Describe(d *node.Describer) {
	node.Input(d, "WaveAsset", &w.waveAsset, 0)
	node.Input(d, "StartTime", &w.startTime, 0)
	node.Input(d, "Loop", &w.loop, false)
	node.Input(d, "NumberOfLoops", &w.numberOfLoops, -1)
	node.Event(d, "Play", w.play.SetDirty)
	node.Event(d, "Stop", w.stop.SetDirty)
	node.ValueOut(d, "Left", &w.left)
	node.ValueOut(d, "Right", &w.right)
	node.OutEvent(d, "OnPlay", &w.onPlay)
	node.OutEvent(d, "OnStop", &w.onStop)
	node.OutEvent(d, "OnFinished", &w.onFinished)
	node.OutEvent(d, "OnLooped", &w.onLooped)
}

// State returns the current state. Safe from any goroutine.
func (w *WavePlayer) State() PlayerState {
	return PlayerState(w.state.Load())
}

// Source returns the wave source the player reads from.
func (w *WavePlayer) Source() *wavesource.Source { return w.source }

// Frame returns the next frame to be played.
func (w *WavePlayer) Frame() int64 { return w.frame }

// LoopCount returns the number of completed passes in the current playback.
func (w *WavePlayer) LoopCount() int32 { return w.loopCount }

func (w *WavePlayer) setState(s PlayerState) {
	w.state.Store(int32(s))
}

func (w *WavePlayer) Process() {
	w.pollLoads()
	w.checkAsset()

	if w.stop.CheckAndResetIfDirty() {
		w.pendingPlayback = false

		if w.State() == PlayerPlaying {
			w.setState(PlayerReady)
			w.onStop.Fire(1)
		}
	}

	if w.play.CheckAndResetIfDirty() {
		switch w.State() {
		case PlayerReady, PlayerPlaying:
			w.startPlayback()
		case PlayerFailed:
			w.Warn("WavePlayer: play ignored, asset failed to load")
		default:
			w.pendingPlayback = true
		}
	}

	if w.State() != PlayerPlaying {
		w.left, w.right = 0, 0
		return
	}

	w.readFrame()
}

func (w *WavePlayer) readFrame() {
	ring := w.source.Channels

	for i := 0; i < maxRefillRetries && ring.Available() < 1; i++ {
		if !w.source.Refill() {
			break
		}
	}

	l, r, ok := ring.GetStereo()
	if !ok {
		w.left, w.right = 0, 0
		w.finish()

		return
	}

	w.left, w.right = l, r
	w.frame++

	if w.frame < w.source.TotalFrames {
		return
	}

	if !load(w.loop, false) {
		w.finish()
		return
	}

	w.loopCount++

	if n := load(w.numberOfLoops, -1); n >= 0 && w.loopCount > n {
		w.finish()
		return
	}

	w.frame = w.startSample
	w.source.SeekFrame(w.startSample)
	w.onLooped.Fire(float32(w.loopCount))
}

func (w *WavePlayer) finish() {
	w.setState(PlayerReady)
	w.onFinished.Fire(1)
}

func (w *WavePlayer) startPlayback() {
	w.startSample = w.computeStartSample()
	w.frame = w.startSample
	w.loopCount = 0
	w.pendingPlayback = false
	w.source.StartPosition = w.startSample
	w.source.SeekFrame(w.startSample)
	w.setState(PlayerPlaying)
	w.onPlay.Fire(1)
}

func (w *WavePlayer) computeStartSample() int64 {
	total := w.source.TotalFrames
	if total <= 0 {
		return 0
	}

	start := int64(float64(load(w.startTime, 0)) * w.SampleRate())

	return min(max(start, 0), total-1)
}

// checkAsset starts a load when the WaveAsset input changed, and retries a
// submission the loader previously refused.
func (w *WavePlayer) checkAsset() {
	h := asset.Handle(uint32(load(w.waveAsset, 0)))

	if h != w.handle {
		w.handle = h
		w.cancelCurrent()

		if w.State() == PlayerPlaying {
			w.pendingPlayback = true
		}

		w.source.Publish(0, nil)

		if h == 0 {
			w.needSubmit = false
			w.setState(PlayerIdle)

			return
		}

		w.needSubmit = true
		w.setState(PlayerLoading)
	}

	if w.needSubmit {
		w.submit()
	}
}

func (w *WavePlayer) cancelCurrent() {
	if w.current >= 0 && w.jobs[w.current].inFlight {
		w.setState(PlayerCancelled)
	}

	w.current = -1
}

func (w *WavePlayer) submit() {
	if w.loader == nil {
		w.needSubmit = false
		w.setState(PlayerFailed)
		w.Warn("WavePlayer: no asset loader")

		return
	}

	slot := -1
	for i := range w.jobs {
		if !w.jobs[i].inFlight {
			slot = i
			break
		}
	}

	if slot < 0 {
		return
	}

	job := &w.jobs[slot].job
	job.Reset(w.handle)

	if !w.loader.Submit(job) {
		return
	}

	w.jobs[slot].inFlight = true
	w.current = slot
	w.needSubmit = false
}

// pollLoads checks every outstanding job without blocking. The current
// job's result is published; stale results are dropped.
func (w *WavePlayer) pollLoads() {
	for i := range w.jobs {
		s := &w.jobs[i]
		if !s.inFlight || !s.job.Ready() {
			continue
		}

		s.inFlight = false

		if i != w.current {
			continue
		}

		w.current = -1
		data, err := s.job.Result()

		if err != nil || data == nil || data.Frames <= 0 {
			w.setState(PlayerFailed)
			w.pendingPlayback = false
			w.Warn("WavePlayer: asset load failed")

			continue
		}

		w.source.Publish(s.job.Handle(), data)
		w.setState(PlayerReady)

		if w.pendingPlayback {
			w.startPlayback()
		}
	}
}

// Close waits for outstanding loads. Never call it on the audio thread.
func (w *WavePlayer) Close() error {
	for i := range w.jobs {
		if w.jobs[i].inFlight {
			w.jobs[i].job.Wait()
			w.jobs[i].inFlight = false
		}
	}

	w.current = -1

	return nil
}
