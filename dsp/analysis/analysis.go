// Package analysis measures rendered graph output: windowed magnitude
// spectra and the dominant frequency of a block.
package analysis

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrInvalidSize is returned for FFT sizes that are not a power of two >= 16.
	ErrInvalidSize = errors.New("analysis: fft size must be a power of two >= 16")
	// ErrShortSignal is returned when a signal holds fewer samples than the FFT size.
	ErrShortSignal = errors.New("analysis: signal shorter than fft size")
)

const minSize = 16

// Analyzer holds an FFT plan, a periodic Hann window and scratch memory
// for one FFT size. It is not safe for concurrent use.
type Analyzer struct {
	size       int
	sampleRate float64
	plan       *algofft.Plan[complex128]
	window     []float64
	gain       float64

	frame []float64
	in    []complex128
	out   []complex128
	re    []float64
	im    []float64
}

// New creates an analyzer for size-point transforms at sampleRate.
func New(size int, sampleRate float64) (*Analyzer, error) {
	if size < minSize || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("analysis: invalid sample rate: %v", sampleRate)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("analysis: fft plan: %w", err)
	}

	a := &Analyzer{
		size:       size,
		sampleRate: sampleRate,
		plan:       plan,
		window:     hann(size),
		frame:      make([]float64, size),
		in:         make([]complex128, size),
		out:        make([]complex128, size),
		re:         make([]float64, size/2+1),
		im:         make([]float64, size/2+1),
	}

	sum := 0.0
	for _, w := range a.window {
		sum += w
	}

	a.gain = sum / 2

	return a, nil
}

// hann returns a periodic Hann window.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}

	return w
}

// Size returns the FFT size.
func (a *Analyzer) Size() int { return a.size }

// BinHz returns the width of one bin in Hz.
func (a *Analyzer) BinHz() float64 { return a.sampleRate / float64(a.size) }

// Magnitudes writes the amplitude spectrum of the first Size samples of
// signal into dst, which must hold Size/2+1 bins. A full-scale sine whose
// frequency sits on a bin reads close to 1 at that bin.
func (a *Analyzer) Magnitudes(dst, signal []float64) error {
	if len(signal) < a.size {
		return fmt.Errorf("%w: %d < %d", ErrShortSignal, len(signal), a.size)
	}

	bins := a.size/2 + 1
	if len(dst) < bins {
		return fmt.Errorf("analysis: dst holds %d bins, need %d", len(dst), bins)
	}

	vecmath.MulBlock(a.frame, signal[:a.size], a.window)

	for i, v := range a.frame {
		a.in[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return fmt.Errorf("analysis: fft: %w", err)
	}

	for k := range bins {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}

	vecmath.Magnitude(dst[:bins], a.re, a.im)
	vecmath.ScaleBlock(dst[:bins], dst[:bins], 1/a.gain)

	return nil
}

// PeakFrequency returns the frequency of the strongest non-DC bin of
// signal, refined by parabolic interpolation over its neighbours.
func (a *Analyzer) PeakFrequency(signal []float64) (float64, error) {
	mags := make([]float64, a.size/2+1)
	if err := a.Magnitudes(mags, signal); err != nil {
		return 0, err
	}

	peak := 1
	for k := 2; k < len(mags); k++ {
		if mags[k] > mags[peak] {
			peak = k
		}
	}

	offset := 0.0
	if peak > 0 && peak < len(mags)-1 {
		l, c, r := mags[peak-1], mags[peak], mags[peak+1]
		if den := l - 2*c + r; den != 0 {
			offset = 0.5 * (l - r) / den
		}
	}

	return (float64(peak) + offset) * a.BinHz(), nil
}

// PeakFrequency analyses the longest power-of-two prefix of signal.
func PeakFrequency(signal []float64, sampleRate float64) (float64, error) {
	size := minSize
	for size*2 <= len(signal) {
		size *= 2
	}

	if len(signal) < size {
		return 0, fmt.Errorf("%w: %d < %d", ErrShortSignal, len(signal), size)
	}

	a, err := New(size, sampleRate)
	if err != nil {
		return 0, err
	}

	return a.PeakFrequency(signal)
}

// PeakLevel returns the absolute peak of signal.
func PeakLevel(signal []float64) float64 {
	peak := 0.0
	for _, v := range signal {
		peak = max(peak, math.Abs(v))
	}

	return peak
}

// RMS returns the root mean square of signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range signal {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(signal)))
}
