package asset

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrInvalidAsset is returned when a handle resolves to invalid metadata.
	ErrInvalidAsset = errors.New("invalid asset")
	// ErrLoaderClosed is returned for jobs the loader could not run before closing.
	ErrLoaderClosed = errors.New("loader closed")
)

// Job is a reusable future for one asset load.
type Job struct {
	handle  Handle
	done    atomic.Bool
	pending sync.WaitGroup

	data *Data
	err  error
}

// Reset prepares j for a load of h. The job must not be in flight.
func (j *Job) Reset(h Handle) {
	j.handle = h
	j.data = nil
	j.err = nil
	j.done.Store(false)
}

// Handle returns the handle the job was reset with.
func (j *Job) Handle() Handle { return j.handle }

// Ready reports without blocking whether the job has finished.
func (j *Job) Ready() bool {
	return j.done.Load()
}

// Result returns the decoded data or the load error. Only valid once Ready.
func (j *Job) Result() (*Data, error) {
	return j.data, j.err
}

// Wait blocks until the job finishes. Never call it on the audio thread.
func (j *Job) Wait() {
	j.pending.Wait()
}

func (j *Job) finish(data *Data, err error) {
	j.data = data
	j.err = err
	j.done.Store(true)
	j.pending.Done()
}

// Submitter accepts jobs without blocking.
type Submitter interface {
	Submit(j *Job) bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithWorkers sets the number of decode goroutines (default 2).
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueSize sets how many jobs may wait for a worker (default 32).
func WithQueueSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithLogger sets the logger for load failures.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader resolves and decodes jobs on a fixed set of worker goroutines.
type Loader struct {
	manager Manager
	decoder Decoder
	logger  *slog.Logger

	workers   int
	queueSize int

	jobs chan *Job
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	// mu orders Submit's send against Close's drain.
	mu     sync.RWMutex
	closed bool
}

// NewLoader starts a loader.
func NewLoader(manager Manager, decoder Decoder, opts ...LoaderOption) *Loader {
	l := &Loader{
		manager:   manager,
		decoder:   decoder,
		logger:    slog.Default(),
		workers:   2,
		queueSize: 32,
		quit:      make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	l.jobs = make(chan *Job, l.queueSize)

	for range l.workers {
		l.wg.Add(1)
		go l.run()
	}

	return l
}

// Submit queues j. It never blocks and returns false when the queue is
// full, the loader is closed or a Close is in progress; the caller keeps
// j and may retry.
func (l *Loader) Submit(j *Job) bool {
	if l == nil || j == nil || !l.mu.TryRLock() {
		return false
	}
	defer l.mu.RUnlock()

	if l.closed {
		return false
	}

	j.pending.Add(1)

	select {
	case l.jobs <- j:
		return true
	default:
		j.pending.Done()
		return false
	}
}

// Close stops the workers. Queued jobs that did not start finish with
// ErrLoaderClosed. Call it after every graph using the loader is closed.
func (l *Loader) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		close(l.quit)
		l.wg.Wait()

		for {
			select {
			case j := <-l.jobs:
				j.finish(nil, ErrLoaderClosed)
			default:
				return
			}
		}
	})
}

func (l *Loader) run() {
	defer l.wg.Done()

	for {
		select {
		case <-l.quit:
			return
		case j := <-l.jobs:
			data, err := l.load(j.handle)
			if err != nil {
				l.logger.Warn("asset load failed", "handle", uint64(j.handle), "error", err)
			}

			j.finish(data, err)
		}
	}
}

func (l *Loader) load(h Handle) (*Data, error) {
	if l.manager == nil || l.decoder == nil {
		return nil, fmt.Errorf("asset: handle %d: %w", h, ErrInvalidAsset)
	}

	meta := l.manager.AssetMetadata(h)
	if !meta.IsValid || meta.FilePath == "" {
		return nil, fmt.Errorf("asset: handle %d: %w", h, ErrInvalidAsset)
	}

	data, err := l.decoder.LoadAudioFile(meta.FilePath)
	if err != nil {
		return nil, err
	}

	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("asset: handle %d: %w", h, err)
	}

	return data, nil
}
