package diagram

// NodeType tags a node with its workflow role.
// Values outside the built-in set are custom types and are always allowed.
type NodeType string

// Built-in node types.
const (
	TypeStart     NodeType = "start"
	TypeAction    NodeType = "action"
	TypeCondition NodeType = "condition"
	TypeEnd       NodeType = "end"
)

// IsBuiltin reports whether t is one of the built-in node types.
func (t NodeType) IsBuiltin() bool {
	switch t {
	case TypeStart, TypeAction, TypeCondition, TypeEnd:
		return true
	}
	return false
}

// Node is a vertex in the workflow diagram.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Data NodeData `json:"data"`
}

// NodeData is the editable payload of a node.
type NodeData struct {
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
	Color       string      `json:"color,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Properties  PropertyBag `json:"properties"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Data.Properties = n.Data.Properties.Clone()
	return n
}

// StrokeStyle is the line style of an edge.
type StrokeStyle string

// Stroke styles.
const (
	StrokeSolid  StrokeStyle = "solid"
	StrokeDashed StrokeStyle = "dashed"
	StrokeDotted StrokeStyle = "dotted"
)

// Valid reports whether s is a known stroke style. The empty style is valid
// and renders as solid.
func (s StrokeStyle) Valid() bool {
	switch s {
	case "", StrokeSolid, StrokeDashed, StrokeDotted:
		return true
	}
	return false
}

// EdgeStyle holds the optional presentation attributes of an edge.
type EdgeStyle struct {
	Animated bool        `json:"animated,omitempty"`
	Stroke   StrokeStyle `json:"stroke,omitempty"`
	Speed    float64     `json:"speed,omitempty"`
}

// Edge is a directed connection from Source to Target.
// Handle IDs are empty when the edge attaches to the node's default port.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	Target       string    `json:"target"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Label        string    `json:"label,omitempty"`
	Style        EdgeStyle `json:"style"`
}
