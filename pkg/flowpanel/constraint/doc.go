/*
Package constraint decides whether a proposed edge between two node
endpoints is allowed.

# Catalog

A Catalog maps node types to NodeLimits: an optional maximum number of
outgoing edges, an optional maximum number of incoming edges, and optional
per-handle maxima. A nil bound is unlimited. Unknown node types resolve to
the zero NodeLimits, so custom node types are never rejected for capacity.

	cat := constraint.NewCatalog(map[diagram.NodeType]constraint.NodeLimits{
	    diagram.TypeEnd: {TargetMax: constraint.Bound(1)},
	})

# Validation

Validator.CanConnect is a pure function of the existing edges and the
proposal. A refused connection is a Decision with a Rejection, never an
error; only a malformed proposal (missing source or target) returns an
error, *InvalidProposalError.

	decision, err := v.CanConnect(graph.Edges(), proposal, graph.NodeTypeOf)
	switch {
	case err != nil:
	    // integration bug
	case !decision.Accepted:
	    fmt.Println(decision.Rejection.Reason) // e.g. "target-max-exceeded"
	}

Handle limits apply on top of node limits, so whichever bound is tighter
wins.
*/
package constraint
