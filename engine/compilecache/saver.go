package compilecache

import (
	"log/slog"
	"sync"
)

type saveTask struct {
	result *Result
	path   string
}

// saver writes results on one background goroutine, in order.
type saver struct {
	tasks  chan saveTask
	done   chan struct{}
	logger *slog.Logger
	write  func(*Result, string) error

	mu     sync.Mutex
	closed bool
	failed []string
}

func newSaver(queueSize int, logger *slog.Logger, write func(*Result, string) error) *saver {
	s := &saver{
		tasks:  make(chan saveTask, queueSize),
		done:   make(chan struct{}),
		logger: logger,
		write:  write,
	}

	go s.run()

	return s
}

func (s *saver) run() {
	defer close(s.done)

	for task := range s.tasks {
		if err := s.write(task.result, task.path); err != nil {
			s.logger.Warn("compile cache: async save failed", "path", task.path, "error", err)

			s.mu.Lock()
			s.failed = append(s.failed, task.path)
			s.mu.Unlock()
		}
	}
}

// enqueue hands a task to the worker. It reports false when the queue is
// full or the saver is closed.
func (s *saver) enqueue(task saveTask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.tasks <- task:
		return true
	default:
		return false
	}
}

// close stops accepting work, waits for queued writes and logs the ones
// that failed.
func (s *saver) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.closed = true
	close(s.tasks)
	s.mu.Unlock()

	<-s.done

	s.mu.Lock()
	failed := s.failed
	s.mu.Unlock()

	if len(failed) > 0 {
		s.logger.Warn("compile cache: saver stopped with unsaved entries", "count", len(failed), "paths", failed)
	}
}
