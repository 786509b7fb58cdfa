package prefs

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by FailingBackend.
var ErrUnavailable = errors.New("preference backend unavailable")

// FailingBackend fails every operation. It stands in for storage that is
// disabled or unreachable.
type FailingBackend struct {
	Err error
}

// Compile-time interface check.
var _ Backend = FailingBackend{}

func (f FailingBackend) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrUnavailable
}

// Get implements Backend.
func (f FailingBackend) Get(context.Context, string) (string, error) { return "", f.err() }

// Set implements Backend.
func (f FailingBackend) Set(context.Context, string, string) error { return f.err() }

// Delete implements Backend.
func (f FailingBackend) Delete(context.Context, string) error { return f.err() }

// Close implements Backend.
func (f FailingBackend) Close() error { return nil }
