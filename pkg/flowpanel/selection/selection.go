// Package selection merges selection events from the canvas into a single
// deduplicated selection and classifies it as none, single or multiple.
package selection

import (
	"sort"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
)

// Kind classifies a selection by size.
type Kind string

// Selection kinds.
const (
	KindNone     Kind = "none"
	KindSingle   Kind = "single"
	KindMultiple Kind = "multiple"
)

// KindOf returns the kind for a selection of n elements.
func KindOf(n int) Kind {
	switch {
	case n <= 0:
		return KindNone
	case n == 1:
		return KindSingle
	default:
		return KindMultiple
	}
}

// State is an immutable, canonically ordered selection. Two States built
// from the same elements are equal under both Equal and reflect.DeepEqual.
type State struct {
	elements []diagram.Element
}

// Reconcile merges a selected node, a selected edge and any extra elements
// into one State. Elements are keyed by id; the first occurrence of an id
// wins (node, then edge, then extras in order). Elements with an empty id or
// an invalid kind are dropped. The result is sorted by id so that equal
// inputs in any order produce equal States.
func Reconcile(node *diagram.Node, edge *diagram.Edge, extra []diagram.Element) State {
	candidates := make([]diagram.Element, 0, len(extra)+2)
	if node != nil {
		candidates = append(candidates, diagram.NodeElement(node.Clone()))
	}
	if edge != nil {
		candidates = append(candidates, diagram.EdgeElement(*edge))
	}
	candidates = append(candidates, extra...)

	seen := make(map[string]struct{}, len(candidates))
	var elements []diagram.Element
	for _, el := range candidates {
		id := el.ID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if el.Kind == diagram.KindNode {
			el.Node = el.Node.Clone()
		}
		elements = append(elements, el)
	}

	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].ID() < elements[j].ID()
	})
	return State{elements: elements}
}

// Empty is the State with nothing selected.
func Empty() State { return State{} }

// Kind classifies the selection.
func (s State) Kind() Kind { return KindOf(len(s.elements)) }

// Len returns the number of selected elements.
func (s State) Len() int { return len(s.elements) }

// IsEmpty reports whether nothing is selected.
func (s State) IsEmpty() bool { return len(s.elements) == 0 }

// Elements returns a copy of the selected elements in canonical order.
func (s State) Elements() []diagram.Element {
	out := make([]diagram.Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// IDs returns the selected ids in canonical order.
func (s State) IDs() []string {
	ids := make([]string, len(s.elements))
	for i, el := range s.elements {
		ids[i] = el.ID()
	}
	return ids
}

// Nodes returns the selected nodes.
func (s State) Nodes() []diagram.Node {
	var out []diagram.Node
	for _, el := range s.elements {
		if el.Kind == diagram.KindNode {
			out = append(out, el.Node)
		}
	}
	return out
}

// Edges returns the selected edges.
func (s State) Edges() []diagram.Edge {
	var out []diagram.Edge
	for _, el := range s.elements {
		if el.Kind == diagram.KindEdge {
			out = append(out, el.Edge)
		}
	}
	return out
}

// Lookup returns the selected element with the given id.
func (s State) Lookup(id string) (diagram.Element, bool) {
	i := sort.Search(len(s.elements), func(i int) bool {
		return s.elements[i].ID() >= id
	})
	if i < len(s.elements) && s.elements[i].ID() == id {
		return s.elements[i], true
	}
	return diagram.Element{}, false
}

// Contains reports whether id is selected.
func (s State) Contains(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

// Equal reports whether both States select the same elements by id and
// kind. Payload differences are ignored; callers that render the payload
// compare it themselves.
func (s State) Equal(other State) bool {
	if len(s.elements) != len(other.elements) {
		return false
	}
	for i := range s.elements {
		if s.elements[i].ID() != other.elements[i].ID() || s.elements[i].Kind != other.elements[i].Kind {
			return false
		}
	}
	return true
}
