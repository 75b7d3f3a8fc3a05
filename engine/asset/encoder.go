package asset

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// WriteWAV encodes d as 16-bit PCM WAVE.
func WriteWAV(w io.WriteSeeker, d *Data) error {
	if err := d.Validate(); err != nil {
		return err
	}

	channels := min(d.Channels, 2)
	format := beep.Format{
		SampleRate:  beep.SampleRate(d.SampleRate),
		NumChannels: channels,
		Precision:   2,
	}

	if err := wav.Encode(w, Streamer(d), format); err != nil {
		return fmt.Errorf("asset: encode wav: %w", err)
	}

	return nil
}

// Streamer plays d once as a beep stream.
func Streamer(d *Data) beep.Streamer {
	var pos int64

	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= d.Frames {
			return 0, false
		}

		for i := range samples {
			if pos >= d.Frames {
				break
			}

			l, r := d.Frame(pos)
			samples[i][0] = float64(l)
			samples[i][1] = float64(r)
			pos++
			n++
		}

		return n, true
	})
}
