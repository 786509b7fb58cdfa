package constraint

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed input. These indicate an integration bug,
// never a user action that was refused.
var (
	// ErrInvalidProposal indicates a proposal without a source or target id,
	// or one naming a node the graph does not hold.
	ErrInvalidProposal = errors.New("invalid connection proposal")

	// ErrNilResolver indicates CanConnect was called without a type resolver.
	ErrNilResolver = errors.New("node type resolver cannot be nil")
)

// Sentinel errors for catalog validation.
var (
	// ErrInvalidLimit indicates a negative bound or malformed handle entry.
	ErrInvalidLimit = errors.New("invalid connection limit")

	// ErrLooseHandleLimit indicates a handle limit looser than its node limit.
	ErrLooseHandleLimit = errors.New("handle limit looser than node limit")
)

// InvalidProposalError describes which part of a proposal is malformed.
type InvalidProposalError struct {
	// Field is the missing or malformed field ("source", "target").
	Field string
	// Proposal is the offending proposal.
	Proposal Proposal
	// Unknown is set when the id is present but names no node.
	Unknown bool
}

// Error implements the error interface.
func (e *InvalidProposalError) Error() string {
	if e.Unknown {
		id := e.Proposal.SourceNodeID
		if e.Field == "target" {
			id = e.Proposal.TargetNodeID
		}
		return fmt.Sprintf("%s: unknown %s node %q", ErrInvalidProposal, e.Field, id)
	}
	return fmt.Sprintf("%s: missing %s node id", ErrInvalidProposal, e.Field)
}

// Unwrap returns ErrInvalidProposal for errors.Is support.
func (e *InvalidProposalError) Unwrap() error {
	return ErrInvalidProposal
}
