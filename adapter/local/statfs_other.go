//go:build !linux && !darwin

package local

import (
	"context"

	"github.com/filicious/filicious"
)

// Space probes are served only where statfs is available; elsewhere the
// adapter declares the gap instead of guessing.

func (a *Adapter) FreeSpace(ctx context.Context, p string) (int64, error) {
	return 0, &filicious.PathError{Op: "freespace", Path: p, Err: filicious.ErrUnsupported}
}

func (a *Adapter) TotalSpace(ctx context.Context, p string) (int64, error) {
	return 0, &filicious.PathError{Op: "totalspace", Path: p, Err: filicious.ErrUnsupported}
}
