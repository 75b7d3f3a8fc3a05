package node

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-soundgraph/engine/asset"
)

// Context provides environmental information node factories need.
type Context struct {
	SampleRate float64
	BlockSize  int
	// Loader resolves and decodes wave assets in the background.
	// Nodes that play assets fail softly when it is nil.
	Loader asset.Submitter
}

// Factory builds one Processor for a node.
type Factory func(ctx Context) (Processor, error)

// Registry maps node type names to their factories.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateType = errors.New("duplicate node type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given node type.
func (r *Registry) Register(nodeType string, factory Factory) error {
	if nodeType == "" {
		return errors.New("empty node type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[nodeType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateType, nodeType)
	}

	r.factories[nodeType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(nodeType string, factory Factory) {
	err := r.Register(nodeType, factory)
	if err != nil {
		panic("node registry: " + err.Error())
	}
}

// Lookup returns the factory for the given node type, or nil.
func (r *Registry) Lookup(nodeType string) Factory {
	return r.factories[nodeType]
}

// New builds a node of the given type.
func (r *Registry) New(nodeType string, ctx Context) (Processor, error) {
	factory := r.Lookup(nodeType)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	return factory(ctx)
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}

	sort.Strings(types)

	return types
}
