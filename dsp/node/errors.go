package node

import "errors"

var (
	// ErrParameterNotFound is returned when a parameter ID is not registered on a node.
	ErrParameterNotFound = errors.New("parameter not found")
	// ErrTypeMismatch is returned when a value's kind does not match its target.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrEventNotFound is returned when an input or output event ID is unknown.
	ErrEventNotFound = errors.New("event not found")
	// ErrOutputNotFound is returned when an output ID is unknown.
	ErrOutputNotFound = errors.New("output not found")
	// ErrUnknownNodeType is returned when a registry has no factory for a type.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrDuplicateEndpoint is returned when a node describes two endpoints with one name.
	ErrDuplicateEndpoint = errors.New("duplicate endpoint")
)
