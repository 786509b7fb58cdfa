package diagram

import "errors"

// Sentinel errors for property bag edits.
var (
	// ErrEmptyPropertyKey indicates an insert with an empty (or blank) key.
	ErrEmptyPropertyKey = errors.New("property key cannot be empty")

	// ErrDuplicatePropertyKey indicates an insert for a key that already exists.
	ErrDuplicatePropertyKey = errors.New("duplicate property key")

	// ErrUnsupportedValue indicates a property value that is not a string,
	// number or boolean.
	ErrUnsupportedValue = errors.New("unsupported property value")
)
