package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/algo-soundgraph/dsp/analysis"
	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/soundgraph"
	"github.com/cwbudde/algo-soundgraph/engine/asset"
	"github.com/cwbudde/algo-soundgraph/engine/compilecache"
	"github.com/cwbudde/algo-soundgraph/engine/hostaudio"
	"github.com/cwbudde/algo-soundgraph/engine/player"
	"github.com/cwbudde/algo-soundgraph/engine/preset"
)

const channels = 2

func run(o options, stdout io.Writer, logger *slog.Logger) error {
	proto, err := loadPrototype(o, logger)
	if err != nil {
		return err
	}

	lib := asset.NewLibrary()
	for h, path := range o.assets {
		lib.RegisterAs(asset.Handle(h), path)
	}

	loader := asset.NewLoader(lib, asset.WAVDecoder{}, asset.WithLogger(logger))
	defer loader.Close()

	var (
		host    player.Host
		offline *player.OfflineHost
	)

	if o.play {
		dev, err := hostaudio.New(o.rate, channels, hostaudio.WithLogger(logger))
		if err != nil {
			return err
		}
		defer dev.Close()

		host = dev
	} else {
		offline = player.NewOfflineHost(float64(o.rate), channels)
		host = offline
	}

	p, err := player.New(host,
		player.WithLogger(logger),
		player.WithLoader(loader),
		player.WithEventHandler(func(e player.Event) {
			logger.Debug("graph event", "node", e.Node, "endpoint", e.Endpoint, "frame", e.Frame, "value", e.Value)
		}))
	if err != nil {
		return err
	}
	defer p.Close()

	s, err := p.CreateSource(proto)
	if err != nil {
		return err
	}

	if o.preset != "" {
		if err := applyPreset(o, s); err != nil {
			return err
		}
	}

	if err := p.Play(s.ID()); err != nil {
		return err
	}

	if o.play {
		playLive(p, s, o.seconds)
		return nil
	}

	left, right := renderOffline(p, offline, o.seconds, o.rate)

	if o.out != "" {
		if err := writeWAV(o.out, left, right, o.rate); err != nil {
			return err
		}

		logger.Info("wrote rendering", "path", o.out, "frames", len(left))
	}

	if o.analyze {
		return report(stdout, left, float64(o.rate))
	}

	return nil
}

func loadPrototype(o options, logger *slog.Logger) (*soundgraph.Prototype, error) {
	if o.cache == "" {
		return soundgraph.LoadPrototype(o.graph)
	}

	cache := compilecache.New(compilecache.WithDirectory(o.cache), compilecache.WithLogger(logger))
	defer cache.Close()

	r, err := cache.GetOrCompile(o.graph, soundgraph.PrototypeCompiler{})
	if err != nil {
		return nil, err
	}

	st := cache.Stats()
	logger.Debug("compile cache", "dir", cache.Dir(), "hits", st.Hits, "misses", st.Misses)

	return soundgraph.ParsePrototype(r.Data)
}

func applyPreset(o options, s *player.Sound) error {
	pr, err := preset.Load(o.preset)
	if err != nil {
		return err
	}

	name := o.patch
	if name == "" {
		names := pr.PatchNames()
		if len(names) == 0 {
			return fmt.Errorf("preset %s has no patches", o.preset)
		}

		name = names[0]
	}

	return pr.ApplyPatch(name, s)
}

// renderOffline pulls the host block by block, running the control loop
// between blocks, until seconds of audio are rendered or the voice ends.
func renderOffline(p *player.Player, host *player.OfflineHost, seconds float64, rate int) (left, right []float64) {
	cfg := core.ApplyProcessorOptions(core.WithSampleRate(float64(rate)))
	total := cfg.Frames(seconds)
	left = make([]float64, 0, total)
	right = make([]float64, 0, total)
	dt := cfg.BlockSeconds()

	for len(left) < total {
		n := min(cfg.BlockSize, total-len(left))
		mix := host.Render(n)
		left = append(left, mix[0][:n]...)
		right = append(right, mix[1][:n]...)

		p.Update(dt)
	}

	return left, right
}

func playLive(p *player.Player, s *player.Sound, seconds float64) {
	const tick = 20 * time.Millisecond

	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))
	last := time.Now()

	for now := range time.Tick(tick) {
		p.Update(now.Sub(last).Seconds())
		last = now

		if now.After(deadline) || s.IsFinished() {
			break
		}
	}

	s.StopFade(player.DefaultStopFadeMs)
	time.Sleep(tick)
	p.Update(tick.Seconds())
}

func writeWAV(path string, left, right []float64, rate int) error {
	samples := make([]float32, channels*len(left))
	core.Interleave(samples, [][]float64{left, right}, channels, len(left))

	data, err := asset.NewData(samples, channels, rate)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := asset.WriteWAV(f, data); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func report(w io.Writer, signal []float64, rate float64) error {
	peak := analysis.PeakLevel(signal)
	rms := analysis.RMS(signal)

	fmt.Fprintf(w, "frames\t%d\n", len(signal))
	fmt.Fprintf(w, "peak\t%.6f (%.2f dBFS)\n", peak, analysis.LevelDB(peak))
	fmt.Fprintf(w, "rms\t%.6f (%.2f dBFS)\n", rms, analysis.LevelDB(rms))

	f, err := analysis.PeakFrequency(signal, rate)
	if err != nil {
		fmt.Fprintf(w, "pitch\tn/a (%v)\n", err)
		return nil
	}

	fmt.Fprintf(w, "pitch\t%.2f Hz\n", f)

	return nil
}
