package filicious

import (
	"context"
	"errors"
	"io/fs"
	"time"
)

// ErrReadOnly is returned when a mutating operation is attempted on a
// read-only view.
var ErrReadOnly = errors.New("filesystem is read-only")

// ReadOnly wraps an Adapter and rejects every mutating operation.
// Queries and reads pass through untouched, so a read-only view of a
// backend can be handed to code that must not modify it.
type ReadOnly struct {
	Adapter
	allowDelete bool
}

// ReadOnlyOption configures a ReadOnly view.
type ReadOnlyOption func(*ReadOnly)

// WithAllowDelete permits deletion despite the view being read-only.
// Useful for staging areas that consumers may clean up but not fill.
func WithAllowDelete(allow bool) ReadOnlyOption {
	return func(r *ReadOnly) { r.allowDelete = allow }
}

// NewReadOnly creates a read-only view over an adapter.
func NewReadOnly(a Adapter, opts ...ReadOnlyOption) *ReadOnly {
	r := &ReadOnly{Adapter: a}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Unwrap returns the underlying adapter.
func (r *ReadOnly) Unwrap() Adapter { return r.Adapter }

func (r *ReadOnly) readOnlyError(op, p string) error {
	return &PathError{Op: op, Path: p, Err: ErrReadOnly}
}

func (r *ReadOnly) Touch(ctx context.Context, p string, atime, mtime time.Time) error {
	return r.readOnlyError("touch", p)
}

func (r *ReadOnly) Chmod(ctx context.Context, p string, mode fs.FileMode) error {
	return r.readOnlyError("chmod", p)
}

func (r *ReadOnly) Chown(ctx context.Context, p string, uid, gid int) error {
	return r.readOnlyError("chown", p)
}

func (r *ReadOnly) WriteFile(ctx context.Context, p string, data []byte) error {
	return r.readOnlyError("write", p)
}

func (r *ReadOnly) Append(ctx context.Context, p string, data []byte) error {
	return r.readOnlyError("append", p)
}

func (r *ReadOnly) Truncate(ctx context.Context, p string, size int64) error {
	return r.readOnlyError("truncate", p)
}

// Open is rejected: streams are read-write handles.
func (r *ReadOnly) Open(ctx context.Context, p string) (Stream, error) {
	return nil, r.readOnlyError("open", p)
}

func (r *ReadOnly) CreateFile(ctx context.Context, p string) error {
	return r.readOnlyError("createfile", p)
}

func (r *ReadOnly) CreateDir(ctx context.Context, p string, parents bool) error {
	return r.readOnlyError("createdir", p)
}

func (r *ReadOnly) Delete(ctx context.Context, p string, recursive bool) error {
	if r.allowDelete {
		return r.Adapter.Delete(ctx, p, recursive)
	}
	return r.readOnlyError("delete", p)
}

func (r *ReadOnly) Rename(ctx context.Context, src, dst string) (bool, error) {
	return false, r.readOnlyError("rename", src)
}

// Watch delegates when the underlying adapter serves change tokens.
func (r *ReadOnly) Watch(ctx context.Context, pattern string) (ChangeToken, error) {
	if watcher, ok := r.Adapter.(CanWatch); ok {
		return watcher.Watch(ctx, pattern)
	}
	return CancelledChangeToken{}, nil
}

// IsReadOnlyError reports whether an error stems from the read-only
// restriction.
func IsReadOnlyError(err error) bool {
	return errors.Is(err, ErrReadOnly)
}

var (
	_ Adapter  = (*ReadOnly)(nil)
	_ CanWatch = (*ReadOnly)(nil)
)
