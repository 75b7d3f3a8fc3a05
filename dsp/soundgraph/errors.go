package soundgraph

import "errors"

var (
	// ErrInvalidGraph is returned for malformed prototypes.
	ErrInvalidGraph = errors.New("invalid graph")
	// ErrCycle is returned when value connections form a cycle.
	ErrCycle = errors.New("graph contains cycle")
	// ErrUnknownEndpoint is returned when a connection, route or input
	// names a port the node does not have.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrNodeInit is returned when a node fails to initialise.
	ErrNodeInit = errors.New("node init failed")
	// ErrUnknownInput is returned for graph inputs that do not exist.
	ErrUnknownInput = errors.New("unknown graph input")
)
