package soundgraph

import (
	"fmt"

	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

// CompilerVersion tags compiled prototypes. Bump it when Compile's
// output format changes.
const CompilerVersion = "soundgraph-prototype/1"

// Compile validates p by instancing it without an asset loader and
// returns its canonical encoding with nodes in processing order.
// Compiling the result again yields the same bytes.
func Compile(p *Prototype, opts ...Option) ([]byte, error) {
	opts = append(opts, WithLoader(nil))

	g, err := Instantiate(p, opts...)
	if err != nil {
		return nil, err
	}

	order := g.Order()

	if err := g.Close(); err != nil {
		return nil, err
	}

	out := *p
	out.Nodes = make([]NodeSpec, 0, len(order))

	for _, uuid := range order {
		spec, _ := p.node(uuid)
		out.Nodes = append(out.Nodes, spec)
	}

	return out.Marshal()
}

// PrototypeCompiler compiles JSON prototype sources. It satisfies the
// compile cache's Compiler interface.
type PrototypeCompiler struct {
	Registry *node.Registry
}

// Version identifies the compiler output format.
func (c PrototypeCompiler) Version() string { return CompilerVersion }

// Compile parses source and compiles it. sourcePath only labels errors.
func (c PrototypeCompiler) Compile(source []byte, sourcePath string) ([]byte, error) {
	p, err := ParsePrototype(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourcePath, err)
	}

	data, err := Compile(p, WithRegistry(c.Registry))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourcePath, err)
	}

	return data, nil
}
