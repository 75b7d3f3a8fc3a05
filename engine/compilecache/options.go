package compilecache

import (
	"log/slog"
	"path/filepath"
)

// DefaultCapacity is the number of results kept in memory.
const DefaultCapacity = 64

// DefaultQueueSize bounds the async save queue.
const DefaultQueueSize = 32

// Option configures New.
type Option func(*config)

type config struct {
	dir         string
	projectRoot string
	memoryOnly  bool
	capacity    int
	logger      *slog.Logger
	asyncSave   bool
	queueSize   int
	lazyLoad    bool
}

func defaultConfig() config {
	return config{
		capacity:  DefaultCapacity,
		asyncSave: true,
		queueSize: DefaultQueueSize,
	}
}

// cacheDir resolves the directory: an explicit directory wins, then
// <projectRoot>/cache/compiler, then ./cache/compiler.
func (c config) cacheDir() string {
	if c.dir != "" {
		return c.dir
	}

	root := c.projectRoot
	if root == "" {
		root = "."
	}

	return filepath.Join(root, "cache", "compiler")
}

// WithDirectory sets the cache directory.
func WithDirectory(dir string) Option {
	return func(c *config) { c.dir = dir }
}

// WithProjectRoot places the cache under <root>/cache/compiler.
func WithProjectRoot(root string) Option {
	return func(c *config) { c.projectRoot = root }
}

// WithMemoryOnly disables disk persistence.
func WithMemoryOnly() Option {
	return func(c *config) { c.memoryOnly = true }
}

// WithCapacity sets how many results stay in memory (minimum 1).
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithAsyncSave selects background (default) or synchronous disk writes.
func WithAsyncSave(async bool) Option {
	return func(c *config) { c.asyncSave = async }
}

// WithQueueSize bounds the async save queue. A full queue falls back to
// a synchronous write.
func WithQueueSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithLazyLoad defers reading the cache directory until first use.
func WithLazyLoad() Option {
	return func(c *config) { c.lazyLoad = true }
}
