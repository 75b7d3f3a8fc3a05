// Package testutil holds signal generators and tolerance checks shared by
// the package tests.
package testutil

import (
	"math"
	"math/rand/v2"
)

// Sample is the element type of a rendered buffer.
type Sample interface {
	~float32 | ~float64
}

// DeterministicSine returns length samples of amplitude*sin(2*pi*f*n/rate).
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	return sine[float64](freqHz, sampleRate, amplitude, length)
}

// Sine32 is DeterministicSine in the precision oscillators render at.
func Sine32(freqHz, sampleRate, amplitude float64, length int) []float32 {
	return sine[float32](freqHz, sampleRate, amplitude, length)
}

func sine[T Sample](freqHz, sampleRate, amplitude float64, length int) []T {
	out := make([]T, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = T(amplitude * math.Sin(step*float64(i)))
	}

	return out
}

// Noise returns seeded uniform noise in [-amplitude, amplitude).
func Noise(seed uint64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, length)

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Stereo returns two zeroed channel buffers.
func Stereo(frames int) [][]float64 {
	return [][]float64{make([]float64, frames), make([]float64, frames)}
}

// Deinterleave splits an interleaved buffer into channel slices.
func Deinterleave[T Sample](src []T, channels int) [][]T {
	frames := len(src) / channels
	out := make([][]T, channels)

	for ch := range out {
		out[ch] = make([]T, frames)
		for i := range frames {
			out[ch][i] = src[i*channels+ch]
		}
	}

	return out
}
