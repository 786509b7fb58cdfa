package constraint

import (
	"fmt"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
)

// Reason is a machine-readable rejection code the rendering layer can map
// to specific feedback.
type Reason string

// Rejection reasons.
const (
	ReasonSelfConnection    Reason = "self-connection"
	ReasonSourceMaxExceeded Reason = "source-max-exceeded"
	ReasonTargetMaxExceeded Reason = "target-max-exceeded"
	ReasonHandleMaxExceeded Reason = "handle-max-exceeded"
)

// Proposal is an edge the user is trying to draw.
type Proposal struct {
	SourceNodeID   string
	SourceHandleID string
	TargetNodeID   string
	TargetHandleID string
}

// ProposalFor returns the proposal an existing edge would have been.
func ProposalFor(e diagram.Edge) Proposal {
	return Proposal{
		SourceNodeID:   e.Source,
		SourceHandleID: e.SourceHandle,
		TargetNodeID:   e.Target,
		TargetHandleID: e.TargetHandle,
	}
}

// Rejection explains why a proposal was refused.
type Rejection struct {
	Reason Reason
	// NodeID is the node whose limit was hit.
	NodeID string
	// HandleID is set for ReasonHandleMaxExceeded.
	HandleID string
	// Limit is the bound that would be exceeded.
	Limit int
	// Count is the number of matching edges before the proposal.
	Count int
}

// Error implements the error interface so a Rejection can be surfaced
// through error-typed plumbing when convenient.
func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonSelfConnection:
		return fmt.Sprintf("%s: node %s cannot connect to itself", r.Reason, r.NodeID)
	case ReasonHandleMaxExceeded:
		return fmt.Sprintf("%s: node %s handle %s allows %d (has %d)", r.Reason, r.NodeID, r.HandleID, r.Limit, r.Count)
	default:
		return fmt.Sprintf("%s: node %s allows %d (has %d)", r.Reason, r.NodeID, r.Limit, r.Count)
	}
}

// Decision is the outcome for a well-formed proposal.
type Decision struct {
	Accepted  bool
	Rejection *Rejection
}

// Accept is the accepting Decision.
func Accept() Decision {
	return Decision{Accepted: true}
}

// Reject builds a refusing Decision.
func Reject(r Rejection) Decision {
	return Decision{Rejection: &r}
}

// Reason returns the rejection reason, or "" when accepted.
func (d Decision) Reason() Reason {
	if d.Rejection == nil {
		return ""
	}
	return d.Rejection.Reason
}

// TypeResolver maps a node id to its type. diagram.GraphQuery.NodeTypeOf
// satisfies it. Nodes the resolver does not know are treated as untyped and
// therefore unlimited.
type TypeResolver func(id string) (diagram.NodeType, bool)

// Validator checks proposals against a Catalog. It holds no mutable state
// and is safe for concurrent use.
type Validator struct {
	catalog        Catalog
	allowSelfLoops bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithSelfLoops controls whether a node may connect to itself.
// Default: false. When allowed, a self-loop counts as both an outgoing and
// an incoming edge of the node and is subject to the usual limits.
func WithSelfLoops(allow bool) Option {
	return func(v *Validator) {
		v.allowSelfLoops = allow
	}
}

// NewValidator creates a validator for catalog.
func NewValidator(catalog Catalog, opts ...Option) *Validator {
	v := &Validator{catalog: catalog}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Catalog returns the catalog the validator consults.
func (v *Validator) Catalog() Catalog {
	return v.catalog
}

// AllowsSelfLoops reports the self-loop policy.
func (v *Validator) AllowsSelfLoops() bool {
	return v.allowSelfLoops
}

// CanConnect decides whether p may be added to existing.
//
// Checks, in order:
//  1. self-connection (unless allowed)
//  2. source node outgoing maximum
//  3. target node incoming maximum
//  4. source handle maximum, counting only edges on that handle
//  5. target handle maximum, counting only edges on that handle
//
// The first failing check determines the Rejection. A malformed proposal
// returns *InvalidProposalError and a zero Decision.
func (v *Validator) CanConnect(existing []diagram.Edge, p Proposal, nodeTypeOf TypeResolver) (Decision, error) {
	if p.SourceNodeID == "" {
		return Decision{}, &InvalidProposalError{Field: "source", Proposal: p}
	}
	if p.TargetNodeID == "" {
		return Decision{}, &InvalidProposalError{Field: "target", Proposal: p}
	}
	if nodeTypeOf == nil {
		return Decision{}, ErrNilResolver
	}

	if p.SourceNodeID == p.TargetNodeID && !v.allowSelfLoops {
		return Reject(Rejection{Reason: ReasonSelfConnection, NodeID: p.SourceNodeID}), nil
	}

	var outgoing, incoming, sourceHandleCount, targetHandleCount int
	for _, e := range existing {
		if e.Source == p.SourceNodeID {
			outgoing++
			if p.SourceHandleID != "" && e.SourceHandle == p.SourceHandleID {
				sourceHandleCount++
			}
		}
		if e.Target == p.TargetNodeID {
			incoming++
			if p.TargetHandleID != "" && e.TargetHandle == p.TargetHandleID {
				targetHandleCount++
			}
		}
	}

	sourceLimits := v.limitsOf(p.SourceNodeID, nodeTypeOf)
	targetLimits := v.limitsOf(p.TargetNodeID, nodeTypeOf)

	if exceeds(outgoing, sourceLimits.SourceMax) {
		return Reject(Rejection{
			Reason: ReasonSourceMaxExceeded,
			NodeID: p.SourceNodeID,
			Limit:  *sourceLimits.SourceMax,
			Count:  outgoing,
		}), nil
	}
	if exceeds(incoming, targetLimits.TargetMax) {
		return Reject(Rejection{
			Reason: ReasonTargetMaxExceeded,
			NodeID: p.TargetNodeID,
			Limit:  *targetLimits.TargetMax,
			Count:  incoming,
		}), nil
	}

	if h, ok := sourceLimits.Handle(p.SourceHandleID, DirectionSource); ok && exceeds(sourceHandleCount, &h.Max) {
		return Reject(Rejection{
			Reason:   ReasonHandleMaxExceeded,
			NodeID:   p.SourceNodeID,
			HandleID: p.SourceHandleID,
			Limit:    h.Max,
			Count:    sourceHandleCount,
		}), nil
	}
	if h, ok := targetLimits.Handle(p.TargetHandleID, DirectionTarget); ok && exceeds(targetHandleCount, &h.Max) {
		return Reject(Rejection{
			Reason:   ReasonHandleMaxExceeded,
			NodeID:   p.TargetNodeID,
			HandleID: p.TargetHandleID,
			Limit:    h.Max,
			Count:    targetHandleCount,
		}), nil
	}

	return Accept(), nil
}

func (v *Validator) limitsOf(id string, nodeTypeOf TypeResolver) NodeLimits {
	t, ok := nodeTypeOf(id)
	if !ok {
		return NodeLimits{}
	}
	return v.catalog.LimitsFor(t)
}

// exceeds reports whether adding one more edge to count breaks max.
func exceeds(count int, max *int) bool {
	return max != nil && count+1 > *max
}
