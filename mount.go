package filicious

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrMountNotFound is returned when no mount point matches the path
	ErrMountNotFound = errors.New("no mount point found for path")
	// ErrMountExists is returned when trying to mount at an existing path
	ErrMountExists = errors.New("mount point already exists")
	// ErrEmptyMountPath is returned when the mount path is empty
	ErrEmptyMountPath = errors.New("mount path cannot be empty")
	// ErrNilAdapter is returned when trying to mount a nil adapter
	ErrNilAdapter = errors.New("adapter cannot be nil")
)

// Tree composes a single logical filesystem from adapters mounted at
// virtual prefixes. Resolution walks the mount table with longest-prefix
// matching, is pure and side-effect-free, and never touches a backend
// connection. The Tree also fronts the full operation set by resolving
// and delegating, and hosts the cross-adapter move resolver.
type Tree struct {
	mu     sync.RWMutex
	mounts map[string]Adapter
	// sorted mount paths for longest-prefix matching
	sortedPaths []string
	log         *slog.Logger
}

// NewTree creates an empty mount tree. A nil logger falls back to
// slog.Default().
func NewTree(log *slog.Logger) *Tree {
	if log == nil {
		log = slog.Default()
	}
	return &Tree{
		mounts: make(map[string]Adapter),
		log:    log,
	}
}

// Mount attaches an adapter at the given virtual prefix. Nested mounts
// are supported; the most specific prefix wins at resolution time.
//
// Example:
//
//	tree.Mount("/local", localAdapter)
//	tree.Mount("/remote", sftpAdapter)
//	tree.Mount("/remote/archive", archiveAdapter)
func (t *Tree) Mount(mountPath string, a Adapter) error {
	if a == nil {
		return ErrNilAdapter
	}

	mountPath = normalizeMountPath(mountPath)
	if mountPath == "" {
		return ErrEmptyMountPath
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.mounts[mountPath]; exists {
		return fmt.Errorf("%w: %s", ErrMountExists, mountPath)
	}

	t.mounts[mountPath] = a
	t.updateSortedPaths()
	t.log.Debug("adapter mounted", "path", mountPath)

	return nil
}

// Unmount detaches the adapter at the given prefix.
func (t *Tree) Unmount(mountPath string) error {
	mountPath = normalizeMountPath(mountPath)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.mounts[mountPath]; !exists {
		return fmt.Errorf("%w: %s", ErrMountNotFound, mountPath)
	}

	delete(t.mounts, mountPath)
	t.updateSortedPaths()
	t.log.Debug("adapter unmounted", "path", mountPath)

	return nil
}

// Mounts returns a copy of all current mount points and their adapters.
func (t *Tree) Mounts() map[string]Adapter {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]Adapter, len(t.mounts))
	for k, v := range t.mounts {
		result[k] = v
	}
	return result
}

// MountPaths returns all mount paths, longest first.
func (t *Tree) MountPaths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]string, len(t.sortedPaths))
	copy(result, t.sortedPaths)
	return result
}

// Resolve maps an abstract path to the most specific adapter whose
// subtree contains it, plus the path's remainder as the adapter-local
// path. Ties are resolved by longest-prefix match.
func (t *Tree) Resolve(absPath string) (Pathname, error) {
	absPath = normalizeMountPath(absPath)
	if absPath == "" {
		return Pathname{}, ErrEmptyMountPath
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, mountPath := range t.sortedPaths {
		if absPath == mountPath || strings.HasPrefix(absPath, mountPath+"/") {
			local := strings.TrimPrefix(absPath, mountPath)
			local = strings.TrimPrefix(local, "/")
			return NewPathname(t.mounts[mountPath], absPath, local), nil
		}
	}

	return Pathname{}, fmt.Errorf("%w: %s", ErrMountNotFound, absPath)
}

// updateSortedPaths refreshes the slice used for longest-prefix matching.
// Must be called with lock held.
func (t *Tree) updateSortedPaths() {
	paths := make([]string, 0, len(t.mounts))
	for p := range t.mounts {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		return len(paths[i]) > len(paths[j])
	})
	t.sortedPaths = paths
}

// normalizeMountPath ensures the path starts with "/" and has no trailing slash.
func normalizeMountPath(p string) string {
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// ============================================================================
// Delegated operations
// ============================================================================

// Exists reports whether any node is present at the abstract path.
func (t *Tree) Exists(ctx context.Context, absPath string) (bool, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return false, err
	}
	return p.Adapter().Exists(ctx, p.Local())
}

// IsFile reports whether a regular file is present at the abstract path.
func (t *Tree) IsFile(ctx context.Context, absPath string) (bool, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return false, err
	}
	return p.Adapter().IsFile(ctx, p.Local())
}

// IsDirectory reports whether a directory is present at the abstract path.
func (t *Tree) IsDirectory(ctx context.Context, absPath string) (bool, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return false, err
	}
	return p.Adapter().IsDirectory(ctx, p.Local())
}

// IsLink reports whether a symlink is present at the abstract path.
func (t *Tree) IsLink(ctx context.Context, absPath string) (bool, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return false, err
	}
	return p.Adapter().IsLink(ctx, p.Local())
}

// Stat fetches the metadata record for the abstract path.
func (t *Tree) Stat(ctx context.Context, absPath string) (*Stat, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return nil, err
	}
	return p.Adapter().Stat(ctx, p.Local())
}

// IsReadable derives the readable predicate from a fresh metadata fetch.
func (t *Tree) IsReadable(ctx context.Context, absPath string) (bool, error) {
	st, err := t.Stat(ctx, absPath)
	if err != nil {
		return false, err
	}
	return st.IsReadable(), nil
}

// IsWritable derives the writable predicate from a fresh metadata fetch.
func (t *Tree) IsWritable(ctx context.Context, absPath string) (bool, error) {
	st, err := t.Stat(ctx, absPath)
	if err != nil {
		return false, err
	}
	return st.IsWritable(), nil
}

// IsExecutable derives the executable predicate from a fresh metadata fetch.
func (t *Tree) IsExecutable(ctx context.Context, absPath string) (bool, error) {
	st, err := t.Stat(ctx, absPath)
	if err != nil {
		return false, err
	}
	return st.IsExecutable(), nil
}

// CreationTime returns the node's creation time where tracked.
func (t *Tree) CreationTime(ctx context.Context, absPath string) (time.Time, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return time.Time{}, err
	}
	return p.Adapter().CreationTime(ctx, p.Local())
}

// Size returns the node size, summing the subtree when recursive.
func (t *Tree) Size(ctx context.Context, absPath string, recursive bool) (int64, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return 0, err
	}
	return p.Adapter().Size(ctx, p.Local(), recursive)
}

// List returns the direct children names of a directory.
func (t *Tree) List(ctx context.Context, absPath string) ([]string, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		// No adapter owns the path itself; it may still be a virtual
		// directory on the way to a mount point.
		return t.listMountDirs(absPath)
	}
	return p.Adapter().List(ctx, p.Local())
}

// Touch sets access and modification times, creating the file if absent.
func (t *Tree) Touch(ctx context.Context, absPath string, atime, mtime time.Time) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().Touch(ctx, p.Local(), atime, mtime)
}

// Chmod sets the permission bits.
func (t *Tree) Chmod(ctx context.Context, absPath string, mode fs.FileMode) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().Chmod(ctx, p.Local(), mode)
}

// Chown sets the owner and group ids.
func (t *Tree) Chown(ctx context.Context, absPath string, uid, gid int) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().Chown(ctx, p.Local(), uid, gid)
}

// ReadFile returns the full content of a file.
func (t *Tree) ReadFile(ctx context.Context, absPath string) ([]byte, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return nil, err
	}
	return p.Adapter().ReadFile(ctx, p.Local())
}

// WriteFile replaces the full content of a file.
func (t *Tree) WriteFile(ctx context.Context, absPath string, data []byte) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().WriteFile(ctx, p.Local(), data)
}

// Append appends data to a file.
func (t *Tree) Append(ctx context.Context, absPath string, data []byte) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().Append(ctx, p.Local(), data)
}

// Truncate changes the size of a file.
func (t *Tree) Truncate(ctx context.Context, absPath string, size int64) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().Truncate(ctx, p.Local(), size)
}

// Open returns a Stream over the file at the abstract path.
func (t *Tree) Open(ctx context.Context, absPath string) (Stream, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return nil, err
	}
	return p.Adapter().Open(ctx, p.Local())
}

// CreateFile creates a zero-length file.
func (t *Tree) CreateFile(ctx context.Context, absPath string) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().CreateFile(ctx, p.Local())
}

// CreateDir creates a directory, optionally creating parents.
func (t *Tree) CreateDir(ctx context.Context, absPath string, parents bool) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().CreateDir(ctx, p.Local(), parents)
}

// Delete removes a node; the recursive flag controls whether a non-empty
// directory is removed.
func (t *Tree) Delete(ctx context.Context, absPath string, recursive bool) error {
	p, err := t.Resolve(absPath)
	if err != nil {
		return err
	}
	return p.Adapter().Delete(ctx, p.Local(), recursive)
}

// FreeSpace returns the free space of the backend owning the path.
func (t *Tree) FreeSpace(ctx context.Context, absPath string) (int64, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return 0, err
	}
	return p.Adapter().FreeSpace(ctx, p.Local())
}

// TotalSpace returns the total space of the backend owning the path.
func (t *Tree) TotalSpace(ctx context.Context, absPath string) (int64, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return 0, err
	}
	return p.Adapter().TotalSpace(ctx, p.Local())
}

// MIMEType returns the detected MIME type of a file.
func (t *Tree) MIMEType(ctx context.Context, absPath string) (string, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return "", err
	}
	return p.Adapter().MIMEType(ctx, p.Local())
}

// MIMEEncoding returns the detected character encoding of a file.
func (t *Tree) MIMEEncoding(ctx context.Context, absPath string) (string, error) {
	p, err := t.Resolve(absPath)
	if err != nil {
		return "", err
	}
	return p.Adapter().MIMEEncoding(ctx, p.Local())
}

// ============================================================================
// Cross-adapter operations
// ============================================================================

// Copy copies a file, crossing adapter boundaries by reading from the
// source backend and writing to the destination backend.
func (t *Tree) Copy(ctx context.Context, srcPath, dstPath string) error {
	src, err := t.Resolve(srcPath)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}

	dst, err := t.Resolve(dstPath)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	data, err := src.Adapter().ReadFile(ctx, src.Local())
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	if err := dst.Adapter().WriteFile(ctx, dst.Local(), data); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}

	return nil
}

// Move moves a file. A same-adapter move is satisfied natively where the
// backend's rename primitive allows; everything else fails over to an
// explicit copy-then-delete. The source is deleted only after the
// destination copy is verified to exist, so a partial failure never
// loses data.
func (t *Tree) Move(ctx context.Context, srcPath, dstPath string) error {
	src, err := t.Resolve(srcPath)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}

	dst, err := t.Resolve(dstPath)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	handled, err := NativeMove(ctx, src, dst)
	if err != nil {
		return fmt.Errorf("native move: %w", err)
	}
	if handled {
		return nil
	}

	t.log.Debug("native move declined, falling back to copy",
		"src", src.Full(), "dst", dst.Full())

	if err := t.Copy(ctx, srcPath, dstPath); err != nil {
		return err
	}

	ok, err := dst.Adapter().Exists(ctx, dst.Local())
	if err != nil {
		return fmt.Errorf("verify destination: %w", err)
	}
	if !ok {
		return &PathError{Op: "move", Path: dst.Full(), Err: ErrNotExist}
	}

	if err := src.Adapter().Delete(ctx, src.Local(), false); err != nil {
		return fmt.Errorf("delete source after move: %w", err)
	}

	return nil
}

// ============================================================================
// Helpers
// ============================================================================

// listMountDirs lists virtual directories for mount paths nested under a
// prefix no adapter owns, so the tree remains walkable from the root.
func (t *Tree) listMountDirs(prefix string) ([]string, error) {
	prefix = normalizeMountPath(prefix)

	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string

	for mountPath := range t.mounts {
		var remaining string
		switch {
		case prefix == "/":
			remaining = strings.TrimPrefix(mountPath, "/")
		case strings.HasPrefix(mountPath, prefix+"/"):
			remaining = strings.TrimPrefix(mountPath, prefix+"/")
		default:
			continue
		}
		name := strings.SplitN(remaining, "/", 2)[0]
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMountNotFound, prefix)
	}

	SortNames(names)
	return names, nil
}
