package prefs

import (
	"context"
	"errors"
)

// Backend is a string key-value store. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if nothing is stored.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Returns nil if key does not exist.
	Delete(ctx context.Context, key string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for backend operations.
var (
	// ErrNotFound indicates nothing is stored under the key.
	ErrNotFound = errors.New("preference record not found")

	// ErrBackendClosed indicates the backend has been closed.
	ErrBackendClosed = errors.New("preference backend closed")
)

// CorruptRecordError indicates a stored record could not be decoded.
type CorruptRecordError struct {
	Key string
	Err error
}

func (e *CorruptRecordError) Error() string {
	return "corrupt preference record " + e.Key + ": " + e.Err.Error()
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}
