package asset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLibraryResolvesHandles(t *testing.T) {
	lib := NewLibrary()
	h := lib.Register("kick.wav")

	meta := lib.AssetMetadata(h)
	if !meta.IsValid || meta.FilePath != "kick.wav" {
		t.Fatalf("AssetMetadata(%d) = %+v", h, meta)
	}

	lib.Remove(h)

	if lib.AssetMetadata(h).IsValid {
		t.Fatal("removed handle still valid")
	}

	if lib.AssetMetadata(999).IsValid {
		t.Fatal("unknown handle reported valid")
	}
}

func TestNewDataValidates(t *testing.T) {
	if _, err := NewData([]float32{0, 1}, 0, 48000); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("channels=0 error = %v, want ErrInvalidData", err)
	}

	d, err := NewData([]float32{0, 1, 2, 3}, 2, 48000)
	if err != nil {
		t.Fatalf("NewData() error = %v", err)
	}

	if d.Frames != 2 {
		t.Fatalf("Frames = %d, want 2", d.Frames)
	}

	l, r := d.Frame(1)
	if l != 2 || r != 3 {
		t.Fatalf("Frame(1) = %v,%v", l, r)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	samples := make([]float32, 200)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(float64(i)*0.1))
	}

	src, err := NewData(samples, 1, 22050)
	if err != nil {
		t.Fatalf("NewData() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := WriteWAV(f, src); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := WAVDecoder{}.LoadAudioFile(path)
	if err != nil {
		t.Fatalf("LoadAudioFile() error = %v", err)
	}

	if got.Channels != 1 || got.SampleRate != 22050 || got.Frames != 200 {
		t.Fatalf("decoded = %d ch, %d Hz, %d frames", got.Channels, got.SampleRate, got.Frames)
	}

	for i, want := range samples {
		if math.Abs(float64(got.Samples[i]-want)) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, got.Samples[i], want)
		}
	}
}

func TestWAVDecoderMissingFile(t *testing.T) {
	if _, err := (WAVDecoder{}).LoadAudioFile(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("LoadAudioFile() error = nil for missing file")
	}
}

func waitReady(t *testing.T, j *Job) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !j.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("job never became ready")
		}

		time.Sleep(time.Millisecond)
	}
}

func TestLoaderDecodesInBackground(t *testing.T) {
	lib := NewLibrary()
	h := lib.Register("mem://tone")

	dec := DecoderFunc(func(path string) (*Data, error) {
		return NewData([]float32{0.25, -0.25}, 1, 48000)
	})

	l := NewLoader(lib, dec, WithWorkers(1))
	defer l.Close()

	var j Job
	j.Reset(h)

	if !l.Submit(&j) {
		t.Fatal("Submit() = false")
	}

	waitReady(t, &j)

	data, err := j.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}

	if data.Frames != 2 {
		t.Fatalf("Frames = %d, want 2", data.Frames)
	}
}

func TestLoaderInvalidHandle(t *testing.T) {
	l := NewLoader(NewLibrary(), WAVDecoder{})
	defer l.Close()

	var j Job
	j.Reset(42)

	if !l.Submit(&j) {
		t.Fatal("Submit() = false")
	}

	j.Wait()

	if _, err := j.Result(); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("Result() error = %v, want ErrInvalidAsset", err)
	}
}

func TestLoaderRejectsAfterClose(t *testing.T) {
	l := NewLoader(NewLibrary(), WAVDecoder{})
	l.Close()

	var j Job
	j.Reset(1)

	if l.Submit(&j) {
		t.Fatal("Submit() after Close = true")
	}
}

func TestLoaderFullQueueDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	dec := DecoderFunc(func(string) (*Data, error) {
		<-release
		return NewData([]float32{0}, 1, 48000)
	})

	lib := NewLibrary()
	h := lib.Register("slow")
	l := NewLoader(lib, dec, WithWorkers(1), WithQueueSize(1))

	jobs := make([]Job, 4)
	accepted := 0

	for i := range jobs {
		jobs[i].Reset(h)
		if l.Submit(&jobs[i]) {
			accepted++
		}
	}

	if accepted == len(jobs) {
		t.Fatal("every Submit() succeeded on a full queue")
	}

	close(release)
	l.Close()
}

func TestLoaderSubmitDuringCloseFinishesJobs(t *testing.T) {
	dec := DecoderFunc(func(string) (*Data, error) {
		return NewData([]float32{0}, 1, 48000)
	})

	lib := NewLibrary()
	h := lib.Register("mem://click")
	l := NewLoader(lib, dec, WithWorkers(1), WithQueueSize(64))

	const submitters = 4

	jobs := make([][]Job, submitters)
	accepted := make([][]*Job, submitters)

	var wg sync.WaitGroup

	for i := range submitters {
		jobs[i] = make([]Job, 200)

		wg.Add(1)

		go func() {
			defer wg.Done()

			for k := range jobs[i] {
				j := &jobs[i][k]
				j.Reset(h)

				if l.Submit(j) {
					accepted[i] = append(accepted[i], j)
				}
			}
		}()
	}

	l.Close()
	wg.Wait()

	done := make(chan struct{})

	go func() {
		for _, list := range accepted {
			for _, j := range list {
				j.Wait()
			}
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("accepted job never finished after Close")
	}

	for _, list := range accepted {
		for _, j := range list {
			if !j.Ready() {
				t.Fatal("accepted job not ready after Wait")
			}
		}
	}
}
