package asset

import (
	"sync"
)

// Handle is an opaque asset reference. Zero means "no asset".
type Handle uint64

// Metadata describes what a handle resolves to.
type Metadata struct {
	Handle   Handle
	FilePath string
	Name     string
	IsValid  bool
}

// Manager resolves handles to metadata. Implementations must be safe for
// concurrent use; the loader calls them from worker goroutines.
type Manager interface {
	AssetMetadata(h Handle) Metadata
}

// Library is an in-memory Manager.
type Library struct {
	mu      sync.RWMutex
	next    Handle
	entries map[Handle]Metadata
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{entries: make(map[Handle]Metadata)}
}

// Register adds path under a fresh handle.
func (l *Library) Register(path string) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	for l.entries[l.next].IsValid {
		l.next++
	}

	h := l.next
	l.entries[h] = Metadata{Handle: h, FilePath: path, Name: path, IsValid: true}

	return h
}

// RegisterAs adds or replaces path under h.
func (l *Library) RegisterAs(h Handle, path string) {
	if h == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[h] = Metadata{Handle: h, FilePath: path, Name: path, IsValid: true}
}

// Remove forgets h.
func (l *Library) Remove(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, h)
}

// AssetMetadata implements Manager. Unknown handles return IsValid=false.
func (l *Library) AssetMetadata(h Handle) Metadata {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.entries[h]
	if !ok {
		return Metadata{Handle: h}
	}

	return m
}
