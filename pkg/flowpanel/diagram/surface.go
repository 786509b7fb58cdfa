package diagram

// GraphQuery is the read surface of the canvas. Nodes and Edges return
// snapshots that the caller may keep for a single decision only.
type GraphQuery interface {
	// NodeTypeOf returns the type of node id, or false if no such node exists.
	NodeTypeOf(id string) (NodeType, bool)

	// Nodes returns the current nodes.
	Nodes() []Node

	// Edges returns the current edges.
	Edges() []Edge
}

// GraphMutator is the write surface of the canvas.
type GraphMutator interface {
	// UpdateNode applies a partial update to node id.
	UpdateNode(id string, patch NodePatch)

	// UpdateEdge applies a partial update to edge id.
	UpdateEdge(id string, patch EdgePatch)

	// InsertEdge adds an edge. Callers only insert edges the connection
	// validator accepted.
	InsertEdge(e Edge)
}

// Graph is a canvas that can be both queried and mutated.
type Graph interface {
	GraphQuery
	GraphMutator
}

// FindNode looks node id up in the current snapshot.
func FindNode(q GraphQuery, id string) (Node, bool) {
	for _, n := range q.Nodes() {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// FindEdge looks edge id up in the current snapshot.
func FindEdge(q GraphQuery, id string) (Edge, bool) {
	for _, e := range q.Edges() {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// Lookup resolves id to an Element using the current snapshot.
// Edges are checked first since edge and node ids share a namespace in
// most canvases and an id names at most one element.
func Lookup(q GraphQuery, id string) (Element, bool) {
	if e, ok := FindEdge(q, id); ok {
		return EdgeElement(e), true
	}
	if n, ok := FindNode(q, id); ok {
		return NodeElement(n), true
	}
	return Element{}, false
}
