package constraint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
)

// Direction says which end of an edge a handle limit counts.
type Direction string

// Handle directions.
const (
	DirectionSource Direction = "source"
	DirectionTarget Direction = "target"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionSource || d == DirectionTarget
}

// HandleLimit caps the edges using one named handle.
type HandleLimit struct {
	Max       int       `json:"max" yaml:"max" toml:"max"`
	Direction Direction `json:"direction" yaml:"direction" toml:"direction"`
}

// NodeLimits holds the connection limits for a node type.
// Nil bounds are unlimited.
type NodeLimits struct {
	SourceMax *int                   `json:"sourceMax,omitempty" yaml:"source_max,omitempty" toml:"source_max,omitempty"`
	TargetMax *int                   `json:"targetMax,omitempty" yaml:"target_max,omitempty" toml:"target_max,omitempty"`
	Handles   map[string]HandleLimit `json:"handles,omitempty" yaml:"handles,omitempty" toml:"handles,omitempty"`
}

// Bound returns a pointer to n, for building NodeLimits literals.
func Bound(n int) *int { return &n }

// Handle returns the limit for handle id in direction dir.
// Limits declared for the other direction do not apply.
func (l NodeLimits) Handle(id string, dir Direction) (HandleLimit, bool) {
	if id == "" {
		return HandleLimit{}, false
	}
	h, ok := l.Handles[id]
	if !ok || h.Direction != dir {
		return HandleLimit{}, false
	}
	return h, true
}

// IsUnlimited reports whether l imposes no limit at all.
func (l NodeLimits) IsUnlimited() bool {
	return l.SourceMax == nil && l.TargetMax == nil && len(l.Handles) == 0
}

func (l NodeLimits) clone() NodeLimits {
	out := NodeLimits{}
	if l.SourceMax != nil {
		out.SourceMax = Bound(*l.SourceMax)
	}
	if l.TargetMax != nil {
		out.TargetMax = Bound(*l.TargetMax)
	}
	if len(l.Handles) > 0 {
		out.Handles = make(map[string]HandleLimit, len(l.Handles))
		for id, h := range l.Handles {
			out.Handles[id] = h
		}
	}
	return out
}

// Catalog is an immutable table of per-type connection limits.
// The zero Catalog has no entries and limits nothing.
type Catalog struct {
	limits map[diagram.NodeType]NodeLimits
}

// NewCatalog creates a catalog holding a copy of limits.
func NewCatalog(limits map[diagram.NodeType]NodeLimits) Catalog {
	c := Catalog{limits: make(map[diagram.NodeType]NodeLimits, len(limits))}
	for t, l := range limits {
		c.limits[t] = l.clone()
	}
	return c
}

// DefaultCatalog returns the limits for the built-in node types:
//   - start: one outgoing edge, no incoming edges
//   - action: one outgoing edge
//   - condition: up to ten outgoing edges, one each on the "true" and "false" handles
//   - end: one incoming edge, no outgoing edges
func DefaultCatalog() Catalog {
	return NewCatalog(map[diagram.NodeType]NodeLimits{
		diagram.TypeStart:  {SourceMax: Bound(1), TargetMax: Bound(0)},
		diagram.TypeAction: {SourceMax: Bound(1)},
		diagram.TypeCondition: {
			SourceMax: Bound(10),
			Handles: map[string]HandleLimit{
				"true":  {Max: 1, Direction: DirectionSource},
				"false": {Max: 1, Direction: DirectionSource},
			},
		},
		diagram.TypeEnd: {SourceMax: Bound(0), TargetMax: Bound(1)},
	})
}

// LimitsFor returns the limits for t. Unknown types are unlimited.
func (c Catalog) LimitsFor(t diagram.NodeType) NodeLimits {
	l, ok := c.limits[t]
	if !ok {
		return NodeLimits{}
	}
	return l.clone()
}

// Has reports whether t has an explicit entry.
func (c Catalog) Has(t diagram.NodeType) bool {
	_, ok := c.limits[t]
	return ok
}

// Types returns the node types with explicit entries, sorted.
func (c Catalog) Types() []diagram.NodeType {
	types := make([]diagram.NodeType, 0, len(c.limits))
	for t := range c.limits {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Len returns the number of explicit entries.
func (c Catalog) Len() int { return len(c.limits) }

// Validate reports entries that are malformed: negative bounds, unknown
// handle directions, and handle limits looser than the node-level maximum
// for the same direction. The validator enforces the tighter bound either
// way; a looser handle limit is reported because it is dead configuration.
// All problems are joined into one error.
func (c Catalog) Validate() error {
	var errs []error
	for _, t := range c.Types() {
		l := c.limits[t]
		if l.SourceMax != nil && *l.SourceMax < 0 {
			errs = append(errs, fmt.Errorf("%w: %s: source max %d", ErrInvalidLimit, t, *l.SourceMax))
		}
		if l.TargetMax != nil && *l.TargetMax < 0 {
			errs = append(errs, fmt.Errorf("%w: %s: target max %d", ErrInvalidLimit, t, *l.TargetMax))
		}

		ids := make([]string, 0, len(l.Handles))
		for id := range l.Handles {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			h := l.Handles[id]
			switch {
			case id == "":
				errs = append(errs, fmt.Errorf("%w: %s: empty handle id", ErrInvalidLimit, t))
			case !h.Direction.Valid():
				errs = append(errs, fmt.Errorf("%w: %s: handle %q: direction %q", ErrInvalidLimit, t, id, h.Direction))
			case h.Max < 0:
				errs = append(errs, fmt.Errorf("%w: %s: handle %q: max %d", ErrInvalidLimit, t, id, h.Max))
			default:
				nodeMax := l.SourceMax
				if h.Direction == DirectionTarget {
					nodeMax = l.TargetMax
				}
				if nodeMax != nil && h.Max > *nodeMax {
					errs = append(errs, fmt.Errorf("%w: %s: handle %q allows %d, node allows %d",
						ErrLooseHandleLimit, t, id, h.Max, *nodeMax))
				}
			}
		}
	}
	return errors.Join(errs...)
}
