package core

import (
	"errors"
	"math"
	"testing"
)

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(96000), WithBlockSize(2048))
	if cfg.SampleRate != 96000 || cfg.BlockSize != 2048 {
		t.Fatalf("cfg = %+v, want 96000/2048", cfg)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(0), WithSampleRate(math.Inf(1)), WithBlockSize(-1), nil)
	if def := DefaultProcessorConfig(); cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}

func TestProcessorConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProcessorConfig
		ok   bool
	}{
		{"default", DefaultProcessorConfig(), true},
		{"zero rate", ProcessorConfig{BlockSize: 64}, false},
		{"nan rate", ProcessorConfig{SampleRate: math.NaN(), BlockSize: 64}, false},
		{"zero block", ProcessorConfig{SampleRate: 44100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok != (err == nil) {
				t.Fatalf("Validate() error = %v, want ok %v", err, tt.ok)
			}

			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestFramesAndBlockSeconds(t *testing.T) {
	cfg := ProcessorConfig{SampleRate: 48000, BlockSize: 480}

	if got := cfg.Frames(0.25); got != 12000 {
		t.Fatalf("Frames(0.25) = %d, want 12000", got)
	}

	if got := cfg.Frames(-1); got != 0 {
		t.Fatalf("Frames(-1) = %d, want 0", got)
	}

	if got := cfg.BlockSeconds(); got != 0.01 {
		t.Fatalf("BlockSeconds() = %v, want 0.01", got)
	}
}
