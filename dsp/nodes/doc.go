// Package nodes is the library of sound graph node types.
//
// Every node processes one sample (or one stereo frame) per Process call
// and reads its inputs through atomic parameter slots bound by
// node.InitializeInputs. Input events latch a node.Flag and are handled at
// the top of the next Process call. A nil input slot yields the node's
// neutral output.
//
// DefaultRegistry returns a registry with every type in this package.
package nodes
