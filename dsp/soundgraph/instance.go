package soundgraph

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

// Instantiate builds a Graph from p. On any failure every node created so
// far is closed and no Graph is returned.
func Instantiate(p *Prototype, opts ...Option) (*Graph, error) {
	s := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	if s.registry == nil {
		s.registry = defaultRegistry
	}

	if p == nil {
		return nil, fmt.Errorf("soundgraph: %w: nil prototype", ErrInvalidGraph)
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("soundgraph: %w", err)
	}

	g := &Graph{
		name:     p.Name,
		cfg:      s.cfg,
		ring:     s.ring,
		byUUID:   make(map[uint64]node.Processor, len(p.Nodes)+1),
		inputs:   make(map[ident.ID]*graphInput, len(p.Inputs)),
		endpoint: &endpoint{},
	}

	if err := g.build(p, s); err != nil {
		_ = g.Close()
		return nil, err
	}

	fp, err := p.Fingerprint()
	if err != nil {
		_ = g.Close()
		return nil, err
	}

	g.fingerprint = fp

	return g, nil
}

func (g *Graph) build(p *Prototype, s settings) error {
	g.endpoint.SetIdentity(EndpointUUID, "graph", endpointType)
	g.endpoint.SetSink(g)

	if err := node.RegisterEndpoints(g.endpoint); err != nil {
		return err
	}

	g.byUUID[EndpointUUID] = g.endpoint

	ctx := node.Context{SampleRate: g.cfg.SampleRate, BlockSize: g.cfg.BlockSize, Loader: s.loader}
	created := make([]node.Processor, 0, len(p.Nodes))

	for _, spec := range p.Nodes {
		proc, err := g.createNode(spec, s.registry, ctx)
		if err != nil {
			return err
		}

		created = append(created, proc)
	}

	for _, in := range p.Inputs {
		if err := g.addInput(in); err != nil {
			return err
		}
	}

	if err := node.InitializeInputs(g.endpoint); err != nil {
		return err
	}

	for _, proc := range created {
		if err := node.InitializeInputs(proc); err != nil {
			return fmt.Errorf("soundgraph: %w", err)
		}
	}

	order, err := sortNodes(p, g.byUUID)
	if err != nil {
		return err
	}

	if err := g.wire(p, order); err != nil {
		return err
	}

	if err := node.Initialize(g.endpoint, g.cfg.SampleRate, g.cfg.BlockSize); err != nil {
		return fmt.Errorf("soundgraph: %w: %w", ErrNodeInit, err)
	}

	for _, st := range g.steps {
		if err := node.Initialize(st.proc, g.cfg.SampleRate, g.cfg.BlockSize); err != nil {
			return fmt.Errorf("soundgraph: %w: %w", ErrNodeInit, err)
		}
	}

	return nil
}

func (g *Graph) createNode(spec NodeSpec, reg *node.Registry, ctx node.Context) (node.Processor, error) {
	if spec.UUID == EndpointUUID {
		return nil, fmt.Errorf("soundgraph: %w: node %q uses reserved uuid 0", ErrInvalidGraph, spec.Name)
	}

	if _, dup := g.byUUID[spec.UUID]; dup {
		return nil, fmt.Errorf("soundgraph: %w: duplicate uuid %d", ErrInvalidGraph, spec.UUID)
	}

	proc, err := reg.New(spec.Type, ctx)
	if err != nil {
		return nil, fmt.Errorf("soundgraph: node %d: %w", spec.UUID, err)
	}

	// Registered before endpoint errors so Close reaches it.
	g.byUUID[spec.UUID] = proc

	name := spec.Name
	if name == "" {
		name = spec.Type
	}

	base := proc.Base()
	base.SetIdentity(spec.UUID, name, spec.Type)
	base.SetSink(g)

	if err := node.RegisterEndpoints(proc); err != nil {
		return nil, fmt.Errorf("soundgraph: %w", err)
	}

	for _, key := range sortedKeys(spec.Params) {
		param := base.Parameter(ident.New(ident.Canonical(key)))
		if param == nil {
			return nil, fmt.Errorf("soundgraph: node %s: parameter %q: %w", name, key, ErrUnknownEndpoint)
		}

		v, err := node.ValueFromAny(param.Kind, spec.Params[key])
		if err != nil {
			return nil, fmt.Errorf("soundgraph: node %s: parameter %q: %w", name, key, err)
		}

		if err := param.Set(v); err != nil {
			return nil, fmt.Errorf("soundgraph: node %s: %w", name, err)
		}
	}

	for _, key := range sortedKeys(spec.Arrays) {
		id := ident.New(ident.Canonical(key))

		kind, ok := base.ArrayKind(id)
		if !ok {
			return nil, fmt.Errorf("soundgraph: node %s: array %q: %w", name, key, ErrUnknownEndpoint)
		}

		values := make([]node.Value, len(spec.Arrays[key]))
		for i, raw := range spec.Arrays[key] {
			v, err := node.ValueFromAny(kind, raw)
			if err != nil {
				return nil, fmt.Errorf("soundgraph: node %s: array %q[%d]: %w", name, key, i, err)
			}

			values[i] = v
		}

		if err := base.SetArray(id, values); err != nil {
			return nil, fmt.Errorf("soundgraph: %w", err)
		}
	}

	return proc, nil
}

func (g *Graph) addInput(spec InputSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("soundgraph: %w: unnamed input", ErrInvalidGraph)
	}

	kind, err := node.ParseKind(spec.Type)
	if err != nil {
		return fmt.Errorf("soundgraph: input %q: %w", spec.Name, err)
	}

	id := ident.New(spec.Name)
	if _, dup := g.inputs[id]; dup {
		return fmt.Errorf("soundgraph: %w: duplicate input %q", ErrInvalidGraph, spec.Name)
	}

	in := &graphInput{ID: id, Name: spec.Name, Kind: kind}

	in.Default = node.ValueOf[float32](0).Convert(kind)
	if spec.Default != nil {
		v, err := node.ValueFromAny(kind, spec.Default)
		if err != nil {
			return fmt.Errorf("soundgraph: input %q: %w", spec.Name, err)
		}

		in.Default = v
	}

	for _, t := range spec.Targets {
		proc, ok := g.byUUID[t.Node]
		if !ok {
			return fmt.Errorf("soundgraph: input %q: %w: node %d", spec.Name, ErrInvalidGraph, t.Node)
		}

		param := proc.Base().Parameter(ident.New(ident.Canonical(t.Param)))
		if param == nil {
			return fmt.Errorf("soundgraph: input %q: %s.%s: %w", spec.Name, proc.Base().Name(), t.Param, ErrUnknownEndpoint)
		}

		in.targets = append(in.targets, param)
	}

	if spec.Default != nil {
		in.set(in.Default)
	}

	g.inputs[id] = in
	g.inputOrder = append(g.inputOrder, id)

	return nil
}

// sortNodes orders the non-endpoint nodes so every value connection runs
// from an earlier node to a later one. Ties keep prototype order.
func sortNodes(p *Prototype, byUUID map[uint64]node.Processor) ([]uint64, error) {
	indegree := make(map[uint64]int, len(p.Nodes))
	outgoing := make(map[uint64][]uint64, len(p.Nodes))

	for _, n := range p.Nodes {
		indegree[n.UUID] = 0
	}

	for _, c := range p.Connections {
		if _, ok := byUUID[c.From]; !ok {
			return nil, fmt.Errorf("soundgraph: %w: connection from unknown node %d", ErrInvalidGraph, c.From)
		}

		if _, ok := byUUID[c.To]; !ok {
			return nil, fmt.Errorf("soundgraph: %w: connection to unknown node %d", ErrInvalidGraph, c.To)
		}

		if c.From == EndpointUUID || c.To == EndpointUUID {
			continue
		}

		if c.From == c.To {
			return nil, fmt.Errorf("soundgraph: node %d: %w", c.From, ErrCycle)
		}

		outgoing[c.From] = append(outgoing[c.From], c.To)
		indegree[c.To]++
	}

	queue := make([]uint64, 0, len(p.Nodes))

	for _, n := range p.Nodes {
		if indegree[n.UUID] == 0 {
			queue = append(queue, n.UUID)
		}
	}

	order := make([]uint64, 0, len(p.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		order = append(order, id)
		for _, to := range outgoing[id] {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(p.Nodes) {
		return nil, fmt.Errorf("soundgraph: %w", ErrCycle)
	}

	return order, nil
}

// wire builds the processing steps, value links and event routes.
func (g *Graph) wire(p *Prototype, order []uint64) error {
	stepOf := make(map[uint64]int, len(order))
	g.steps = make([]step, len(order))

	for i, uuid := range order {
		g.steps[i] = step{proc: g.byUUID[uuid]}
		stepOf[uuid] = i
	}

	var errs []error

	for _, c := range p.Connections {
		src := g.byUUID[c.From].Base()
		dst := g.byUUID[c.To].Base()

		out, ok := src.Output(ident.New(ident.Canonical(c.FromPort)))
		if !ok {
			errs = append(errs, fmt.Errorf("soundgraph: %s.%s: %w", src.Name(), c.FromPort, ErrUnknownEndpoint))
			continue
		}

		param := dst.Parameter(ident.New(ident.Canonical(c.ToPort)))
		if param == nil {
			errs = append(errs, fmt.Errorf("soundgraph: %s.%s: %w", dst.Name(), c.ToPort, ErrUnknownEndpoint))
			continue
		}

		link, err := node.Link(out, param)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if c.From == EndpointUUID {
			g.endpointLinks = append(g.endpointLinks, link)
			continue
		}

		i := stepOf[c.From]
		g.steps[i].links = append(g.steps[i].links, link)
	}

	for _, r := range p.Events {
		if err := g.route(r); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (g *Graph) route(r EventRoute) error {
	srcProc, ok := g.byUUID[r.From]
	if !ok {
		return fmt.Errorf("soundgraph: %w: event from unknown node %d", ErrInvalidGraph, r.From)
	}

	dstProc, ok := g.byUUID[r.To]
	if !ok {
		return fmt.Errorf("soundgraph: %w: event to unknown node %d", ErrInvalidGraph, r.To)
	}

	src := srcProc.Base().OutEvent(ident.New(ident.Canonical(r.FromPort)))
	if src == nil {
		return fmt.Errorf("soundgraph: %s.%s: %w", srcProc.Base().Name(), r.FromPort, ErrUnknownEndpoint)
	}

	dst, ok := dstProc.Base().InEvent(ident.New(ident.Canonical(r.ToPort)))
	if !ok {
		return fmt.Errorf("soundgraph: %s.%s: %w", dstProc.Base().Name(), r.ToPort, ErrUnknownEndpoint)
	}

	src.Connect(dst.Handler)

	return nil
}
