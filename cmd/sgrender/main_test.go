package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-soundgraph/engine/asset"
)

const toneGraph = `{
  "name": "tone",
  "nodes": [
    {"type": "SineOscillator", "uuid": 1, "params": {"Frequency": 440, "Amplitude": 0.5}}
  ],
  "connections": [
    {"from": 1, "fromPort": "Value", "to": 0, "toPort": "OutLeft"},
    {"from": 1, "fromPort": "Value", "to": 0, "toPort": "OutRight"}
  ],
  "inputs": [
    {"name": "Frequency", "type": "float", "default": 440, "targets": [{"node": 1, "param": "Frequency"}]}
  ]
}`

func writeGraph(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.json")
	if err := os.WriteFile(path, []byte(toneGraph), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pitchOf(t *testing.T, report string) float64 {
	t.Helper()

	for _, line := range strings.Split(report, "\n") {
		var hz float64
		if _, err := fmt.Sscanf(line, "pitch\t%f Hz", &hz); err == nil {
			return hz
		}
	}

	t.Fatalf("no pitch in report:\n%s", report)

	return 0
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-graph", "g.json", "-asset", "2=b.wav", "-asset", "1=a.wav", "-seconds", "0.5"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	if o.graph != "g.json" || o.seconds != 0.5 || o.assets.String() != "1=a.wav,2=b.wav" {
		t.Fatalf("parsed %+v", o)
	}

	bad := [][]string{
		{},
		{"-graph", "g.json", "-seconds", "0"},
		{"-graph", "g.json", "-asset", "x=a.wav"},
		{"-graph", "g.json", "-asset", "3"},
		{"-graph", "g.json", "-patch", "low"},
		{"-graph", "g.json", "-play", "-out", "x.wav"},
	}

	for _, args := range bad {
		if _, err := parseFlags(args, io.Discard); err == nil {
			t.Errorf("parseFlags(%q) error = nil", args)
		}
	}
}

func TestRunWritesWAV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tone.wav")
	o := options{graph: writeGraph(t), out: out, seconds: 0.25, rate: 48000, assets: assetFlags{}}

	if err := run(o, io.Discard, quietLogger()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := asset.WAVDecoder{}.LoadAudioFile(out)
	if err != nil {
		t.Fatalf("decode rendering: %v", err)
	}

	if data.Channels != 2 || data.SampleRate != 48000 || data.Frames != 12000 {
		t.Fatalf("rendering = %d ch, %d Hz, %d frames", data.Channels, data.SampleRate, data.Frames)
	}
}

func TestRunAnalyzeThroughCache(t *testing.T) {
	o := options{
		graph:   writeGraph(t),
		seconds: 1,
		rate:    48000,
		cache:   filepath.Join(t.TempDir(), "cache"),
		analyze: true,
		assets:  assetFlags{},
	}

	for range 2 {
		var buf bytes.Buffer
		if err := run(o, &buf, quietLogger()); err != nil {
			t.Fatalf("run() error = %v", err)
		}

		report := buf.String()
		if !strings.Contains(report, "frames\t48000") || math.Abs(pitchOf(t, report)-440) > 2 {
			t.Fatalf("report:\n%s", report)
		}
	}

	if entries, _ := os.ReadDir(o.cache); len(entries) != 1 {
		t.Fatalf("cache holds %d files, want 1", len(entries))
	}
}

func TestRunAppliesPreset(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "tone.preset.json")

	doc := `{
  "name": "tone",
  "parameters": [{"id": "Frequency", "name": "Frequency", "type": "float", "defaultValue": "440", "min": 20, "max": 20000}],
  "patches": [{"name": "high", "parameters": {"Frequency": "880"}}]
}`
	if err := os.WriteFile(presetPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer

	o := options{graph: writeGraph(t), seconds: 1, rate: 48000, preset: presetPath, analyze: true, assets: assetFlags{}}
	if err := run(o, &buf, quietLogger()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if math.Abs(pitchOf(t, buf.String())-880) > 2 {
		t.Fatalf("report:\n%s", buf.String())
	}
}
