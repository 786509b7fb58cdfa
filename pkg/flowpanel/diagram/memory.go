package diagram

import (
	"fmt"
	"sync"
)

// MemoryGraph is an in-memory Graph. It backs tests, examples and the CLI;
// a real canvas supplies its own implementation.
type MemoryGraph struct {
	mu    sync.RWMutex
	nodes []Node
	edges []Edge
}

// Compile-time interface check.
var _ Graph = (*MemoryGraph)(nil)

// NewMemoryGraph creates a graph holding copies of nodes and edges.
func NewMemoryGraph(nodes []Node, edges []Edge) *MemoryGraph {
	g := &MemoryGraph{}
	for _, n := range nodes {
		g.nodes = append(g.nodes, n.Clone())
	}
	g.edges = append(g.edges, edges...)
	return g
}

// AddNode appends a node. Panics on a duplicate or empty id.
func (g *MemoryGraph) AddNode(n Node) *MemoryGraph {
	if n.ID == "" {
		panic("diagram: node ID cannot be empty")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.nodes {
		if existing.ID == n.ID {
			panic(fmt.Sprintf("diagram: duplicate node ID: %s", n.ID))
		}
	}
	g.nodes = append(g.nodes, n.Clone())
	return g
}

// RemoveNode deletes a node and every edge attached to it.
func (g *MemoryGraph) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	nodes := g.nodes[:0:0]
	for _, n := range g.nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	edges := g.edges[:0:0]
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	g.nodes, g.edges = nodes, edges
}

// RemoveEdge deletes an edge.
func (g *MemoryGraph) RemoveEdge(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	edges := g.edges[:0:0]
	for _, e := range g.edges {
		if e.ID != id {
			edges = append(edges, e)
		}
	}
	g.edges = edges
}

// NodeTypeOf implements GraphQuery.
func (g *MemoryGraph) NodeTypeOf(id string) (NodeType, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, n := range g.nodes {
		if n.ID == id {
			return n.Type, true
		}
	}
	return "", false
}

// Nodes implements GraphQuery.
func (g *MemoryGraph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges implements GraphQuery.
func (g *MemoryGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// UpdateNode implements GraphMutator. Unknown ids and invalid property keys
// are ignored.
func (g *MemoryGraph) UpdateNode(id string, patch NodePatch) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.nodes {
		if g.nodes[i].ID != id {
			continue
		}
		if data, err := patch.Apply(g.nodes[i].Data); err == nil {
			g.nodes[i].Data = data
		}
		return
	}
}

// UpdateEdge implements GraphMutator. Unknown ids are ignored.
func (g *MemoryGraph) UpdateEdge(id string, patch EdgePatch) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.edges {
		if g.edges[i].ID == id {
			g.edges[i] = patch.Apply(g.edges[i])
			return
		}
	}
}

// InsertEdge implements GraphMutator.
func (g *MemoryGraph) InsertEdge(e Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = append(g.edges, e)
}
