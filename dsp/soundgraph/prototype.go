package soundgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
)

// EndpointUUID is the reserved UUID of the graph endpoint node. Its
// outputs InLeft and InRight carry the graph's input audio; its inputs
// OutLeft and OutRight are the graph's output. It fires OnPlay on the
// first frame after Play and latches the graph's finished flag when
// OnFinished is triggered.
const EndpointUUID uint64 = 0

// Prototype is a serialisable description of a graph. It is a value:
// instancing never modifies it.
type Prototype struct {
	Name        string       `json:"name,omitempty"`
	Nodes       []NodeSpec   `json:"nodes"`
	Connections []Connection `json:"connections,omitempty"`
	Events      []EventRoute `json:"events,omitempty"`
	Inputs      []InputSpec  `json:"inputs,omitempty"`
}

// NodeSpec is one authored node.
type NodeSpec struct {
	Type   string           `json:"type"`
	UUID   uint64           `json:"uuid"`
	Name   string           `json:"name,omitempty"`
	Params map[string]any   `json:"params,omitempty"`
	Arrays map[string][]any `json:"arrays,omitempty"`
}

// Connection copies a value output into a parameter every frame.
type Connection struct {
	From     uint64 `json:"from"`
	FromPort string `json:"fromPort"`
	To       uint64 `json:"to"`
	ToPort   string `json:"toPort"`
}

// EventRoute connects an output event to an input event.
type EventRoute struct {
	From     uint64 `json:"from"`
	FromPort string `json:"fromPort"`
	To       uint64 `json:"to"`
	ToPort   string `json:"toPort"`
}

// InputSpec is a named graph input that fans out to node parameters.
type InputSpec struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Default any           `json:"default,omitempty"`
	Targets []InputTarget `json:"targets,omitempty"`
}

// InputTarget is one parameter a graph input drives.
type InputTarget struct {
	Node  uint64 `json:"node"`
	Param string `json:"param"`
}

// ParsePrototype decodes a JSON prototype. Numbers are kept as
// json.Number so integer parameters survive exactly.
func ParsePrototype(data []byte) (*Prototype, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var p Prototype
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("soundgraph: %w: %w", ErrInvalidGraph, err)
	}

	return &p, nil
}

// LoadPrototype reads and decodes a prototype file.
func LoadPrototype(path string) (*Prototype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("soundgraph: read prototype: %w", err)
	}

	return ParsePrototype(data)
}

// Marshal encodes p as indented JSON. Map keys are sorted, so equal
// prototypes encode identically.
func (p *Prototype) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("soundgraph: marshal prototype: %w", err)
	}

	return data, nil
}

// Fingerprint hashes the canonical encoding of p.
func (p *Prototype) Fingerprint() (uint64, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("soundgraph: fingerprint: %w", err)
	}

	h := fnv.New64a()
	_, _ = h.Write(data)

	return h.Sum64(), nil
}

// node returns the spec with the given uuid.
func (p *Prototype) node(uuid uint64) (NodeSpec, bool) {
	for _, n := range p.Nodes {
		if n.UUID == uuid {
			return n, true
		}
	}

	return NodeSpec{}, false
}
