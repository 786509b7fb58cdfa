package session

import "errors"

// Sentinel errors for panel actions.
var (
	// ErrUnknownTab indicates a tab name outside the known set.
	ErrUnknownTab = errors.New("unknown tab")

	// ErrTabUnavailable indicates a tab hidden for the current selection.
	ErrTabUnavailable = errors.New("tab not available for current selection")

	// ErrBulkEditUnavailable indicates bulk edit was enabled without a
	// multiple selection.
	ErrBulkEditUnavailable = errors.New("bulk edit requires a multiple selection")

	// ErrBulkEditDisabled indicates UpdateSelected was called while bulk
	// edit is off.
	ErrBulkEditDisabled = errors.New("bulk edit is disabled")

	// ErrNotANode indicates a property operation aimed at an edge.
	ErrNotANode = errors.New("custom properties are only supported on nodes")
)
