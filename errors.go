package filicious

import (
	"errors"
	"fmt"
)

// Common filesystem errors
var (
	ErrNotExist    = errors.New("file does not exist")
	ErrExist       = errors.New("file already exists")
	ErrPermission  = errors.New("permission denied")
	ErrClosed      = errors.New("stream already closed")
	ErrNotDir      = errors.New("not a directory")
	ErrIsDir       = errors.New("is a directory")
	ErrNotEmpty    = errors.New("directory not empty")
	ErrInvalidPath = errors.New("invalid path")
	ErrUnsupported = errors.New("operation not supported by backend")
	ErrNoAuth      = errors.New("no authentication method configured")
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// AdapterError wraps a transport, protocol or authentication failure.
// It is never used for missing files or capability gaps; those have
// their own sentinel errors.
type AdapterError struct {
	Err error
}

// Error implements the error interface
func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// IsNotExist reports whether an error indicates that a file or directory
// does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsExist reports whether an error indicates that a file or directory
// already exists
func IsExist(err error) bool {
	return errors.Is(err, ErrExist)
}

// IsUnsupported reports whether an error indicates a capability gap:
// an operation the backend cannot express. Callers must not retry it.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsAdapterError reports whether an error originates from the transport
// layer rather than from the state of the filesystem itself.
func IsAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}
