package diagram

// Kind discriminates the Element union.
type Kind int

// Element kinds. The zero value is invalid so an uninitialised Element is
// never mistaken for a node.
const (
	KindInvalid Kind = iota
	KindNode
	KindEdge
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	default:
		return "invalid"
	}
}

// Element is either a node or an edge. Kind is fixed by the constructor;
// callers switch on Kind rather than inspecting which fields are populated.
type Element struct {
	Kind Kind
	Node Node
	Edge Edge
}

// NodeElement wraps a node.
func NodeElement(n Node) Element {
	return Element{Kind: KindNode, Node: n}
}

// EdgeElement wraps an edge.
func EdgeElement(e Edge) Element {
	return Element{Kind: KindEdge, Edge: e}
}

// ID returns the identifier of the wrapped node or edge.
func (e Element) ID() string {
	switch e.Kind {
	case KindNode:
		return e.Node.ID
	case KindEdge:
		return e.Edge.ID
	default:
		return ""
	}
}

// IsNode reports whether the element wraps a node.
func (e Element) IsNode() bool { return e.Kind == KindNode }

// IsEdge reports whether the element wraps an edge.
func (e Element) IsEdge() bool { return e.Kind == KindEdge }
