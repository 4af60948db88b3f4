//go:build linux || darwin

package local

import (
	"context"

	"golang.org/x/sys/unix"
)

// FreeSpace reports the bytes available to unprivileged callers on the
// filesystem holding the path.
func (a *Adapter) FreeSpace(ctx context.Context, p string) (int64, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return 0, err
	}
	var st unix.Statfs_t
	if err := unix.Statfs(full, &st); err != nil {
		return 0, mapError("freespace", p, err)
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}

// TotalSpace reports the size of the filesystem holding the path.
func (a *Adapter) TotalSpace(ctx context.Context, p string) (int64, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return 0, err
	}
	var st unix.Statfs_t
	if err := unix.Statfs(full, &st); err != nil {
		return 0, mapError("totalspace", p, err)
	}
	return int64(st.Blocks) * int64(st.Bsize), nil
}
