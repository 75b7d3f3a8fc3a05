package asset

import (
	"errors"
	"fmt"
)

// Data is decoded PCM for one asset: interleaved float32 samples.
// It is immutable once a load succeeds.
type Data struct {
	Samples    []float32
	Channels   int
	SampleRate int
	Frames     int64
}

// ErrInvalidData is returned for Data that fails Validate.
var ErrInvalidData = errors.New("invalid audio data")

// NewData wraps interleaved samples and derives Frames.
func NewData(samples []float32, channels, sampleRate int) (*Data, error) {
	d := &Data{Samples: samples, Channels: channels, SampleRate: sampleRate}
	if channels > 0 {
		d.Frames = int64(len(samples) / channels)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate checks channel count, sample rate and sample length.
func (d *Data) Validate() error {
	switch {
	case d == nil:
		return fmt.Errorf("%w: nil", ErrInvalidData)
	case d.Channels <= 0:
		return fmt.Errorf("%w: channels = %d", ErrInvalidData, d.Channels)
	case d.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate = %d", ErrInvalidData, d.SampleRate)
	case int64(len(d.Samples)) < d.Frames*int64(d.Channels):
		return fmt.Errorf("%w: %d samples for %d frames", ErrInvalidData, len(d.Samples), d.Frames)
	}

	return nil
}

// Frame copies frame i as stereo into l and r. Mono is duplicated;
// channels beyond the second are ignored.
func (d *Data) Frame(i int64) (l, r float32) {
	base := i * int64(d.Channels)
	l = d.Samples[base]

	if d.Channels > 1 {
		return l, d.Samples[base+1]
	}

	return l, l
}
