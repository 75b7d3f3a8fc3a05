// Package soundgraph instances authored Prototypes into runnable Graphs.
//
// Instancing creates every node through a node.Registry, registers and
// binds its endpoints, applies parameter defaults and arrays, orders the
// nodes so producers precede consumers, and wires value connections and
// event routes into closures. A Graph then runs on the audio thread
// without allocating, while the control thread changes parameters, sends
// events and queues patches.
package soundgraph
