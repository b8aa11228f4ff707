// Package domain contains the core domain models of the target graph engine.
package domain

import (
	"iter"
	"slices"
)

// TargetGraph is a directed acyclic graph over target nodes plus an index from
// target identity to node. Edges point from a dependent to its dependency.
type TargetGraph struct {
	nodes    map[TargetID]*TargetNode
	order    []TargetID
	outgoing map[TargetID][]TargetID
	incoming map[TargetID][]TargetID
	index    map[TargetID]*TargetNode
}

// NewTargetGraph creates an empty graph.
func NewTargetGraph() *TargetGraph {
	return &TargetGraph{
		nodes:    make(map[TargetID]*TargetNode),
		outgoing: make(map[TargetID][]TargetID),
		incoming: make(map[TargetID][]TargetID),
		index:    make(map[TargetID]*TargetNode),
	}
}

// AddNode adds a node to the graph. Nodes are expected in dependency-first order.
// Adding a node twice is a no-op.
func (g *TargetGraph) AddNode(n *TargetNode) {
	if _, ok := g.nodes[n.ID]; ok {
		return
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

// AddEdge records that from depends on to. Both nodes must already be present.
func (g *TargetGraph) AddEdge(from, to TargetID) error {
	if _, ok := g.nodes[from]; !ok {
		return Tagged(ErrTargetNotFound, "target", from.String())
	}
	if _, ok := g.nodes[to]; !ok {
		return Tagged(ErrTargetNotFound, "target", to.String())
	}
	if slices.Contains(g.outgoing[from], to) {
		return nil
	}
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return nil
}

// SetIndex replaces the identity index. Keys may include unflavored forms of flavored targets.
func (g *TargetGraph) SetIndex(index map[TargetID]*TargetNode) {
	g.index = index
}

// Get looks a node up by identity, consulting the index for aliases.
func (g *TargetGraph) Get(id TargetID) (*TargetNode, bool) {
	if n, ok := g.nodes[id]; ok {
		return n, true
	}
	n, ok := g.index[id]
	return n, ok
}

// Len returns the number of nodes in the graph.
func (g *TargetGraph) Len() int {
	return len(g.nodes)
}

// OutgoingEdges returns the dependencies of a node.
func (g *TargetGraph) OutgoingEdges(id TargetID) []TargetID {
	return slices.Clone(g.outgoing[id])
}

// IncomingEdges returns the dependents of a node.
func (g *TargetGraph) IncomingEdges(id TargetID) []TargetID {
	return slices.Clone(g.incoming[id])
}

// EdgeCount returns the total number of edges.
func (g *TargetGraph) EdgeCount() int {
	total := 0
	for _, deps := range g.outgoing {
		total += len(deps)
	}
	return total
}

// Nodes returns the node identities sorted by label.
func (g *TargetGraph) Nodes() []TargetID {
	ids := slices.Clone(g.order)
	slices.SortFunc(ids, TargetID.Compare)
	return ids
}

// Walk returns an iterator that yields nodes dependencies-first.
func (g *TargetGraph) Walk() iter.Seq[*TargetNode] {
	return func(yield func(*TargetNode) bool) {
		for _, id := range g.order {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}
