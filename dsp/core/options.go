package core

import (
	"errors"
	"fmt"
	"math"
)

// DefaultBlockSize is the block size sources render in.
const DefaultBlockSize = 512

// ErrInvalidConfig reports a sample rate or block size that cannot run.
var ErrInvalidConfig = errors.New("core: invalid processor config")

// ProcessorConfig is the sample rate and block size a graph is
// initialised with. Nodes cache the sample rate at Init.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig is 48 kHz with DefaultBlockSize frames.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{SampleRate: 48000, BlockSize: DefaultBlockSize}
}

// WithSampleRate sets the sample rate. Non-positive values are ignored.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 && !math.IsInf(sampleRate, 0) {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the block size. Non-positive values are ignored.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// ApplyProcessorOptions applies opts to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	cfg.Apply(opts...)

	return cfg
}

// Apply applies opts in order, skipping nil entries.
func (c *ProcessorConfig) Apply(opts ...ProcessorOption) {
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
}

// Validate rejects configs no graph can be initialised with.
func (c ProcessorConfig) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidConfig, c.SampleRate)
	}

	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, c.BlockSize)
	}

	return nil
}

// Frames converts seconds to a whole number of frames, rounding down.
func (c ProcessorConfig) Frames(seconds float64) int {
	if !(seconds > 0) {
		return 0
	}

	return int(seconds * c.SampleRate)
}

// BlockSeconds is the duration of one block.
func (c ProcessorConfig) BlockSeconds() float64 {
	return float64(c.BlockSize) / c.SampleRate
}
