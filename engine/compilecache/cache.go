// Package compilecache keeps compiled sound-graph artifacts keyed by
// source path and compiler version.
//
// Results live in a bounded in-memory LRU and are persisted one file per
// entry. A result goes stale when its source file changes after it was
// compiled. A cache whose directory cannot be used keeps working in
// memory only; IsFullyInitialized and InitError report why.
package compilecache

import (
	"container/list"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileExt is the extension of cache files.
const FileExt = ".compiled"

const goldenRatio = 0x9e3779b97f4a7c15

// ErrBackupFailed is returned by ClearCache when the directory could not
// be backed up and deletion without a backup was not allowed.
var ErrBackupFailed = errors.New("compilecache: backup failed")

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return h.Sum64()
}

// Key combines the hashes of sourcePath and compilerVersion.
func Key(sourcePath, compilerVersion string) uint64 {
	h1 := hashString(sourcePath)
	h2 := hashString(compilerVersion)

	return h1 ^ (h2 + goldenRatio + (h1 << 6) + (h1 >> 2))
}

// FileName returns the cache file name for key.
func FileName(key uint64) string {
	return fmt.Sprintf("%016x%s", key, FileExt)
}

type entry struct {
	key    uint64
	result *Result
}

// Stats counts cache activity.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is safe for concurrent use.
type Cache struct {
	logger   *slog.Logger
	capacity int
	dir      string
	lazy     bool

	mu      sync.Mutex
	entries map[uint64]*list.Element
	lru     *list.List // front is least recently used
	stats   Stats
	loaded  bool
	initErr error

	saver *saver
	now   func() time.Time
}

// New creates a cache. It never fails: when the directory cannot be
// created or read, the cache runs in memory only.
func New(opts ...Option) *Cache {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	c := &Cache{
		logger:   cfg.logger,
		capacity: cfg.capacity,
		lazy:     cfg.lazyLoad,
		entries:  make(map[uint64]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if !cfg.memoryOnly {
		dir := cfg.cacheDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.degrade(fmt.Errorf("create cache directory: %w", err))
		} else {
			c.dir = dir
		}
	}

	if c.dir != "" && cfg.asyncSave {
		c.saver = newSaver(cfg.queueSize, c.logger, c.writeFile)
	}

	if !c.lazy {
		c.mu.Lock()
		c.ensureLoaded()
		c.mu.Unlock()
	}

	return c
}

func (c *Cache) degrade(err error) {
	c.initErr = errors.Join(c.initErr, err)
	c.logger.Warn("compile cache: running in memory only", "error", err)
}

// IsFullyInitialized reports whether disk persistence is available and
// the initial load succeeded.
func (c *Cache) IsFullyInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initErr == nil
}

// InitError describes why the cache is degraded, or returns "".
func (c *Cache) InitError() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initErr == nil {
		return ""
	}

	return c.initErr.Error()
}

// Dir returns the cache directory, or "" in memory-only mode.
func (c *Cache) Dir() string { return c.dir }

// ensureLoaded reads the cache directory once. Unreadable or corrupt files
// are skipped with a warning. c.mu must be held.
func (c *Cache) ensureLoaded() {
	if c.loaded {
		return
	}

	c.loaded = true

	if c.dir == "" {
		return
	}

	files, err := os.ReadDir(c.dir)
	if err != nil {
		c.degrade(fmt.Errorf("read cache directory: %w", err))
		return
	}

	var results []*Result

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), FileExt) {
			continue
		}

		path := filepath.Join(c.dir, f.Name())

		r, err := readFile(path)
		if err != nil {
			c.logger.Warn("compile cache: skipping cache file", "path", path, "error", err)
			continue
		}

		results = append(results, r)
	}

	// Oldest first so the newest end up most recently used.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompilationTime.Before(results[j].CompilationTime)
	})

	for _, r := range results {
		c.insert(Key(r.SourcePath, r.CompilerVersion), r)
	}

	if len(results) > 0 {
		c.logger.Debug("compile cache: loaded entries", "count", len(results), "dir", c.dir)
	}
}

func readFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// Get returns the result for (sourcePath, compilerVersion) and marks it
// most recently used. A missing entry, or one whose source file was
// modified after it was compiled, counts as a miss.
func (c *Cache) Get(sourcePath, compilerVersion string) (*Result, bool) {
	key := Key(sourcePath, compilerVersion)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureLoaded()

	el, ok := c.entries[key]
	if !ok || el.Value.(*entry).result == nil {
		c.stats.Misses++
		return nil, false
	}

	r := el.Value.(*entry).result
	if stale(r) {
		c.stats.Misses++
		return nil, false
	}

	c.lru.MoveToBack(el)
	c.stats.Hits++

	return r, true
}

// Contains reports whether key is held in memory, without touching the
// LRU order or the counters.
func (c *Cache) Contains(sourcePath, compilerVersion string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[Key(sourcePath, compilerVersion)]

	return ok && el.Value.(*entry).result != nil
}

func stale(r *Result) bool {
	info, err := os.Stat(r.SourcePath)
	if err != nil {
		return false
	}

	return info.ModTime().After(r.CompilationTime)
}

// Store inserts or replaces r as the most recently used entry, evicting
// the least recently used one when the cache is full, and persists it.
func (c *Cache) Store(r *Result) error {
	if r == nil {
		return errors.New("compilecache: nil result")
	}

	key := Key(r.SourcePath, r.CompilerVersion)

	c.mu.Lock()
	c.ensureLoaded()

	path := ""
	if c.dir != "" {
		path = filepath.Join(c.dir, FileName(key))
		if r.CompiledPath == "" {
			r.CompiledPath = path
		}
	}

	c.insert(key, r)

	queued := path == "" || (c.saver != nil && c.saver.enqueue(saveTask{result: r, path: path}))
	c.mu.Unlock()

	if queued {
		return nil
	}

	return c.writeFile(r, path)
}

// insert adds or promotes key. c.mu must be held.
func (c *Cache) insert(key uint64, r *Result) {
	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).result = r
		c.lru.MoveToBack(el)

		return
	}

	if c.lru.Len() >= c.capacity {
		c.sweep()
	}

	for c.lru.Len() >= c.capacity {
		oldest := c.lru.Front()
		e := oldest.Value.(*entry)

		c.lru.Remove(oldest)
		delete(c.entries, e.key)
		c.stats.Evictions++

		c.logger.Info("compile cache: evicted entry",
			"source", e.result.SourcePath,
			"compiler", e.result.CompilerVersion)
	}

	c.entries[key] = c.lru.PushBack(&entry{key: key, result: r})
}

// sweep drops invalidated entries. c.mu must be held.
func (c *Cache) sweep() {
	for el := c.lru.Front(); el != nil; {
		next := el.Next()

		if e := el.Value.(*entry); e.result == nil {
			c.lru.Remove(el)
			delete(c.entries, e.key)
		}

		el = next
	}
}

// Invalidate drops the in-memory result for a key. The slot is reclaimed
// by the next Store that needs room.
func (c *Cache) Invalidate(sourcePath, compilerVersion string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[Key(sourcePath, compilerVersion)]; ok {
		el.Value.(*entry).result = nil
	}
}

func (c *Cache) writeFile(r *Result, path string) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("compilecache: write: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("compilecache: write: %w", err)
	}

	return nil
}

// Len returns the number of results held in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = c.lru.Len()

	return s
}

// Flush waits until every queued save has been written by restarting
// the saver.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.saver == nil {
		return
	}

	c.saver.close()
	c.saver = newSaver(cap(c.saver.tasks), c.logger, c.writeFile)
}

// ClearCache empties memory. With force it also deletes the cache
// directory, after copying it to a compiler_backup_<unix> sibling. When
// the backup fails and allowDeletionWithoutBackup is false, the directory
// is kept and ErrBackupFailed returned.
func (c *Cache) ClearCache(force, allowDeletionWithoutBackup bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint64]*list.Element)
	c.lru.Init()

	if !force || c.dir == "" {
		return nil
	}

	if c.saver != nil {
		c.saver.close()
		c.saver = newSaver(cap(c.saver.tasks), c.logger, c.writeFile)
	}

	backup := filepath.Join(filepath.Dir(c.dir), fmt.Sprintf("compiler_backup_%d", c.now().Unix()))
	if err := copyDir(c.dir, backup); err != nil {
		if !allowDeletionWithoutBackup {
			c.logger.Warn("compile cache: backup failed, keeping directory", "dir", c.dir, "error", err)
			return fmt.Errorf("%w: %w", ErrBackupFailed, err)
		}

		c.logger.Warn("compile cache: backup failed, deleting anyway", "dir", c.dir, "error", err)
	} else {
		c.logger.Info("compile cache: backed up", "backup", backup)
	}

	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("compilecache: clear: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("compilecache: clear: %w", err)
	}

	return nil
}

func copyDir(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("backup %s already exists", dst)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		return os.WriteFile(target, data, 0o644)
	})
}

// Close stops the async saver after writing everything queued. The
// cache stays usable in synchronous mode.
func (c *Cache) Close() error {
	c.mu.Lock()
	s := c.saver
	c.saver = nil
	c.mu.Unlock()

	if s != nil {
		s.close()
	}

	return nil
}
