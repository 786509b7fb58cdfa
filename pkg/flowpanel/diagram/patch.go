package diagram

// NodePatch is a partial update to a node's data. Nil fields are unchanged.
// Properties are upserted in order; Remove deletes keys after the upserts.
type NodePatch struct {
	Label       *string
	Description *string
	Color       *string
	Icon        *string
	Properties  []Property
	Remove      []string
}

// IsEmpty reports whether the patch changes nothing.
func (p NodePatch) IsEmpty() bool {
	return p.Label == nil && p.Description == nil && p.Color == nil && p.Icon == nil &&
		len(p.Properties) == 0 && len(p.Remove) == 0
}

// Apply returns data with the patch applied. data is not modified.
func (p NodePatch) Apply(data NodeData) (NodeData, error) {
	out := data
	out.Properties = data.Properties.Clone()
	if p.Label != nil {
		out.Label = *p.Label
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Icon != nil {
		out.Icon = *p.Icon
	}
	for _, prop := range p.Properties {
		if err := out.Properties.Set(prop.Key, prop.Value); err != nil {
			return data, err
		}
	}
	for _, key := range p.Remove {
		out.Properties.Delete(key)
	}
	return out, nil
}

// EdgePatch is a partial update to an edge. Nil fields are unchanged.
type EdgePatch struct {
	Label    *string
	Animated *bool
	Stroke   *StrokeStyle
	Speed    *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p EdgePatch) IsEmpty() bool {
	return p.Label == nil && p.Animated == nil && p.Stroke == nil && p.Speed == nil
}

// Apply returns e with the patch applied.
func (p EdgePatch) Apply(e Edge) Edge {
	if p.Label != nil {
		e.Label = *p.Label
	}
	if p.Animated != nil {
		e.Style.Animated = *p.Animated
	}
	if p.Stroke != nil {
		e.Style.Stroke = *p.Stroke
	}
	if p.Speed != nil {
		e.Style.Speed = *p.Speed
	}
	return e
}

// Patch is a panel edit before it is routed to a node or an edge.
// Label applies to both; the remaining fields only to their own kind.
type Patch struct {
	Label       *string
	Description *string
	Color       *string
	Icon        *string
	Properties  []Property
	Remove      []string
	Animated    *bool
	Stroke      *StrokeStyle
	Speed       *float64
}

// ForNode projects the node-relevant fields.
func (p Patch) ForNode() NodePatch {
	return NodePatch{
		Label:       p.Label,
		Description: p.Description,
		Color:       p.Color,
		Icon:        p.Icon,
		Properties:  p.Properties,
		Remove:      p.Remove,
	}
}

// ForEdge projects the edge-relevant fields.
func (p Patch) ForEdge() EdgePatch {
	return EdgePatch{
		Label:    p.Label,
		Animated: p.Animated,
		Stroke:   p.Stroke,
		Speed:    p.Speed,
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }
