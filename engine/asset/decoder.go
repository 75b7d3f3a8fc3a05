package asset

import (
	"errors"
	"fmt"
	"os"

	"github.com/gopxl/beep/v2/wav"
)

// Decoder turns a file into Data.
type Decoder interface {
	LoadAudioFile(path string) (*Data, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(path string) (*Data, error)

// LoadAudioFile calls f(path).
func (f DecoderFunc) LoadAudioFile(path string) (*Data, error) {
	return f(path)
}

const decodeChunk = 1024

// WAVDecoder decodes RIFF/WAVE files.
type WAVDecoder struct{}

// LoadAudioFile decodes path into interleaved float32 frames. Mono files
// stay mono; files with more channels keep the first two.
func (WAVDecoder) LoadAudioFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset: open %s: %w", path, err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("asset: decode %s: %w", path, err)
	}
	defer streamer.Close()

	channels := min(format.NumChannels, 2)
	if channels <= 0 {
		return nil, fmt.Errorf("asset: decode %s: %w", path, ErrInvalidData)
	}

	samples := make([]float32, 0, max(streamer.Len(), 0)*channels)
	buf := make([][2]float64, decodeChunk)

	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			samples = append(samples, float32(frame[0]))
			if channels == 2 {
				samples = append(samples, float32(frame[1]))
			}
		}

		if !ok {
			break
		}
	}

	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("asset: stream %s: %w", path, err)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("asset: %s: %w", path, errors.New("no frames"))
	}

	return NewData(samples, channels, int(format.SampleRate))
}
