// Package modgraph builds and orders the module constraint graph.
//
// Descriptors from a resolved [modules.Pool] become nodes; their declared
// ordering constraints become directed, kind-tagged edges. Build collects
// advisory issues (missing dependencies, version mismatches, declared
// incompatibilities) without ever failing, and Sort produces the final
// deterministic load order or a CycleError.
package modgraph

import (
	"errors"

	"github.com/knightfall-dh/bannerman/pkg/modules"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Node is one module in the constraint graph.
type Node struct {
	ID          string
	Version     modules.Version
	Multiplayer bool
}

// Edge is a directed ordering constraint between two modules. The target of
// an edge is pulled earlier in the order than the edge's holder: hard for
// LoadAfterThis, best-effort for LoadBeforeThis. Optional edges annotate the
// graph but are never traversed during sorting.
type Edge struct {
	From       string
	To         string
	Kind       modules.LoadOrder
	Optional   bool
	Constraint string

	// Synthetic marks edges injected by tier policy rather than declared by
	// a descriptor.
	Synthetic bool
}

// Graph is a directed constraint graph over module ids. Insertion order of
// nodes and edges is preserved, so traversals are deterministic for
// identical inputs.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// mutation without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]Edge
}

// New creates an empty constraint graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]Edge),
	}
}

// AddNode adds a module node. Returns ErrInvalidNodeID for an empty id or
// ErrDuplicateNodeID if the id is already present.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge adds a directed constraint between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is
// missing; constraints toward modules outside the pool never become edges.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Out returns the outgoing constraint edges of a node in insertion order.
// The returned slice is a read-only view.
func (g *Graph) Out(id string) []Edge {
	return g.outgoing[id]
}

// IDs returns all node ids in insertion order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }
