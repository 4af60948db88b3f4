package filicious

import "context"

// Pathname is the resolved form of an abstract path: the adapter
// responsible for it plus the adapter-local path string that adapter
// understands. Pathnames are immutable values, created per resolution
// and cheap to recreate; nothing caches them across calls.
type Pathname struct {
	full    string
	local   string
	adapter Adapter
}

// NewPathname builds a resolved pathname. Callers normally obtain
// Pathnames from Tree.Resolve instead.
func NewPathname(adapter Adapter, full, local string) Pathname {
	return Pathname{full: full, local: local, adapter: adapter}
}

// Full returns the abstract path from the filesystem root.
func (p Pathname) Full() string { return p.full }

// Local returns the path relative to the owning adapter's base directory.
func (p Pathname) Local() string { return p.local }

// Adapter returns the adapter owning the subtree the path belongs to.
func (p Pathname) Adapter() Adapter { return p.adapter }

// SameAdapter reports whether both pathnames resolve to the same adapter
// instance. Two adapters targeting the same remote host are still
// distinct instances with distinct connections.
func (p Pathname) SameAdapter(o Pathname) bool { return p.adapter == o.adapter }

// NativeMove attempts an in-backend rename. It returns false whenever
// source and destination do not share the same adapter instance,
// regardless of backend reachability, or when the backend's native
// rename primitive itself declines the move. A false result means "not
// handled here"; the caller fails over to copy-then-delete.
func NativeMove(ctx context.Context, src, dst Pathname) (bool, error) {
	if !src.SameAdapter(dst) {
		return false, nil
	}
	return src.adapter.Rename(ctx, src.local, dst.local)
}
