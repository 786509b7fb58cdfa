package constraint

import "github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"

// Finding is the outcome of replaying one edge.
type Finding struct {
	Edge     diagram.Edge
	Decision Decision
	// Err is set when the edge does not form a valid proposal.
	Err error
}

// OK reports whether the edge would have been accepted.
func (f Finding) OK() bool {
	return f.Err == nil && f.Decision.Accepted
}

// Audit replays edges in order as if each had been drawn by hand, deciding
// each against the edges accepted before it. It returns one Finding per
// edge. Use it to check an imported diagram that bypassed the editor.
func (v *Validator) Audit(edges []diagram.Edge, nodeTypeOf TypeResolver) []Finding {
	findings := make([]Finding, 0, len(edges))
	accepted := make([]diagram.Edge, 0, len(edges))
	for _, e := range edges {
		d, err := v.CanConnect(accepted, ProposalFor(e), nodeTypeOf)
		findings = append(findings, Finding{Edge: e, Decision: d, Err: err})
		if err == nil && d.Accepted {
			accepted = append(accepted, e)
		}
	}
	return findings
}
