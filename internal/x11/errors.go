package x11

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by any operation on a connection that has
	// already been closed.
	ErrClosed = errors.New("x11: connection is closed")

	// ErrNotRootWindow is returned when a root-only accessor is called on a
	// non-root window.
	ErrNotRootWindow = errors.New("x11: window is not the root window")

	// ErrUnsupportedPropertyFormat is returned when the server reports a
	// property element width other than 8, 16 or 32 bits.
	ErrUnsupportedPropertyFormat = errors.New("x11: unsupported property format")

	// ErrPropertyTypeMismatch is returned when a property exists but its
	// type differs from the type requested by the caller.
	ErrPropertyTypeMismatch = errors.New("x11: property type mismatch")

	// ErrUnknownAtom is returned by reverse atom lookups for atoms the
	// server does not know.
	ErrUnknownAtom = errors.New("x11: unknown atom")
)

// ProtocolError wraps an error reported by the X server for a request issued
// by this layer. The operation that triggered it is aborted; the connection
// remains usable.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("x11: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// newProtocolError normalizes an xgb request failure into a ProtocolError.
func newProtocolError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProtocolError{Op: op, Err: err}
}
