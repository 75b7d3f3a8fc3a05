// Command sgrender renders a sound graph to a WAV file or plays it on the
// audio device.
//
// Usage:
//
//	sgrender -graph patch.json [flags]
//
// Examples:
//
//	sgrender -graph blip.json -out blip.wav -seconds 2
//	sgrender -graph drums.json -asset 1=kick.wav -asset 2=snare.wav -play
//	sgrender -graph tone.json -preset tone.preset.json -patch low -analyze
//	sgrender -graph tone.json -cache ./cache/compiler -out tone.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
)

type assetFlags map[int64]string

func (a assetFlags) String() string {
	keys := make([]int64, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d=%s", k, a[k])
	}

	return strings.Join(parts, ",")
}

func (a assetFlags) Set(s string) error {
	id, path, ok := strings.Cut(s, "=")
	if !ok || path == "" {
		return fmt.Errorf("want N=path, got %q", s)
	}

	h, err := strconv.ParseInt(id, 10, 64)
	if err != nil || h <= 0 {
		return fmt.Errorf("asset handle %q must be a positive integer", id)
	}

	a[h] = path

	return nil
}

type options struct {
	graph   string
	out     string
	seconds float64
	rate    int
	play    bool
	preset  string
	patch   string
	cache   string
	analyze bool
	verbose bool
	assets  assetFlags
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	o := options{assets: assetFlags{}}

	fs := flag.NewFlagSet("sgrender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.graph, "graph", "", "sound graph prototype (JSON)")
	fs.StringVar(&o.out, "out", "", "write the rendering to this WAV file")
	fs.Float64Var(&o.seconds, "seconds", 1, "duration to render or play")
	fs.IntVar(&o.rate, "rate", 48000, "sample rate in Hz")
	fs.BoolVar(&o.play, "play", false, "play on the audio device instead of rendering offline")
	fs.StringVar(&o.preset, "preset", "", "preset file to apply")
	fs.StringVar(&o.patch, "patch", "", "patch within -preset (default: first)")
	fs.StringVar(&o.cache, "cache", "", "compile cache directory")
	fs.BoolVar(&o.analyze, "analyze", false, "print level and pitch of the rendering")
	fs.BoolVar(&o.verbose, "v", false, "log graph events")
	fs.Var(o.assets, "asset", "register a WAV asset as N=path (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: sgrender -graph patch.json [flags]\n\n")
		fmt.Fprintf(stderr, "Renders or plays a sound graph.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch {
	case o.graph == "":
		return o, errors.New("-graph is required")
	case o.seconds <= 0:
		return o, fmt.Errorf("-seconds must be positive, got %v", o.seconds)
	case o.rate <= 0:
		return o, fmt.Errorf("-rate must be positive, got %d", o.rate)
	case o.patch != "" && o.preset == "":
		return o, errors.New("-patch needs -preset")
	case o.play && o.out != "":
		return o, errors.New("-play and -out are exclusive")
	}

	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "sgrender: %v\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(o, os.Stdout, logger); err != nil {
		logger.Error("sgrender failed", "error", err)
		os.Exit(1)
	}
}
