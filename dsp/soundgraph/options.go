package soundgraph

import (
	"github.com/cwbudde/algo-soundgraph/dsp/core"
	"github.com/cwbudde/algo-soundgraph/dsp/msgring"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
	"github.com/cwbudde/algo-soundgraph/dsp/nodes"
	"github.com/cwbudde/algo-soundgraph/engine/asset"
)

// Option configures Instantiate.
type Option func(*settings)

type settings struct {
	cfg      core.ProcessorConfig
	registry *node.Registry
	loader   asset.Submitter
	ring     *msgring.Ring
}

func defaultSettings() settings {
	return settings{cfg: core.DefaultProcessorConfig()}
}

// WithProcessorOptions sets sample rate and block size.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(s *settings) { s.cfg.Apply(opts...) }
}

// WithRegistry sets the node registry (default nodes.DefaultRegistry).
func WithRegistry(r *node.Registry) Option {
	return func(s *settings) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLoader sets the asset loader handed to node factories.
func WithLoader(loader asset.Submitter) Option {
	return func(s *settings) {
		s.loader = loader
	}
}

// WithRing sets the ring node events and log lines are posted to.
func WithRing(ring *msgring.Ring) Option {
	return func(s *settings) {
		s.ring = ring
	}
}

var defaultRegistry = nodes.DefaultRegistry()
