// Package local provides a local-disk adapter with the full capability
// set: metadata, ownership, space probes, MIME detection and change
// watching are all served natively.
package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/filicious/filicious"
)

// Adapter is a local-disk implementation of filicious.Adapter. The
// configured base path is the subtree exposed as "/"; its absolute,
// symlink-resolved form is captured once at connect time and every
// adapter-local path is composed against it.
type Adapter struct {
	mu       sync.Mutex
	basePath string
	mgr      *filicious.ConnManager
	log      *slog.Logger

	watchMu sync.Mutex
	watcher *dirWatcher
}

// baseConn is the "connection" of a local adapter: the resolved root.
type baseConn struct {
	root string
}

func (c *baseConn) Close() error { return nil }

// Option configures the adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) { a.log = log }
}

// New creates a local adapter rooted at basePath. No filesystem access
// happens until the first operation; the root is resolved lazily the
// same way remote backends connect lazily.
func New(basePath string, opts ...Option) *Adapter {
	a := &Adapter{basePath: basePath, log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	a.mgr = filicious.NewConnManager(a.dial, a.log)
	return a
}

// SetBasePath changes the exposed subtree. The configuration identity of
// a local adapter is the base path itself, so a change to a different
// root invalidates the resolved connection while a no-op reset keeps it.
func (a *Adapter) SetBasePath(basePath string) {
	a.mu.Lock()
	a.basePath = basePath
	a.mu.Unlock()
	a.mgr.Reconfigure(basePath)
}

// ConnState exposes the lifecycle state, mostly for tests and logging.
func (a *Adapter) ConnState() filicious.ConnState { return a.mgr.State() }

// Close releases the resolved root and any active watcher.
func (a *Adapter) Close() error {
	a.watchMu.Lock()
	if a.watcher != nil {
		a.watcher.close()
		a.watcher = nil
	}
	a.watchMu.Unlock()
	return a.mgr.Close()
}

// dial resolves the effective root: the directory is created when
// missing, and symlinks are resolved so local paths compose against a
// stable absolute base.
func (a *Adapter) dial(ctx context.Context) (filicious.Conn, error) {
	a.mu.Lock()
	base := a.basePath
	a.mu.Unlock()

	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &baseConn{root: root}, nil
}

// root returns the resolved base directory, connecting lazily.
func (a *Adapter) root(ctx context.Context) (string, error) {
	a.mu.Lock()
	identity := a.basePath
	a.mu.Unlock()

	conn, err := a.mgr.Acquire(ctx, identity)
	if err != nil {
		return "", err
	}
	return conn.(*baseConn).root, nil
}

// fullPath composes the on-disk path for an adapter-local path. Cleaning
// against a leading slash keeps every composed path inside the subtree.
func (a *Adapter) fullPath(ctx context.Context, local string) (string, error) {
	root, err := a.root(ctx)
	if err != nil {
		return "", err
	}
	local = path.Clean("/" + strings.ReplaceAll(local, "\\", "/"))
	return filepath.Join(root, filepath.FromSlash(local)), nil
}

// mapError translates os errors into the filicious taxonomy.
func mapError(op, p string, err error) error {
	switch {
	case os.IsNotExist(err):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrNotExist}
	case os.IsExist(err):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrExist}
	case os.IsPermission(err):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrPermission}
	case errors.Is(err, syscall.ENOTEMPTY):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrNotEmpty}
	case errors.Is(err, syscall.ENOTDIR):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrNotDir}
	case errors.Is(err, syscall.EISDIR):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrIsDir}
	default:
		return &filicious.PathError{Op: op, Path: p, Err: err}
	}
}

// ============================================================================
// MetadataReader
// ============================================================================

func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return false, err
	}
	if _, err := os.Lstat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, mapError("exists", p, err)
	}
	return true, nil
}

func (a *Adapter) IsFile(ctx context.Context, p string) (bool, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, mapError("isfile", p, err)
	}
	return info.Mode().IsRegular(), nil
}

func (a *Adapter) IsDirectory(ctx context.Context, p string) (bool, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, mapError("isdirectory", p, err)
	}
	return info.IsDir(), nil
}

func (a *Adapter) IsLink(ctx context.Context, p string) (bool, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return false, err
	}
	info, err := os.Lstat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, mapError("islink", p, err)
	}
	return info.Mode()&fs.ModeSymlink != 0, nil
}

func (a *Adapter) Stat(ctx context.Context, p string) (*filicious.Stat, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(full)
	if err != nil {
		return nil, mapError("stat", p, err)
	}

	st := &filicious.Stat{
		Type:  filicious.TypeFromMode(info.Mode()),
		Size:  info.Size(),
		MTime: info.ModTime(),
		ATime: info.ModTime(),
		Mode:  info.Mode().Perm(),
	}
	fillSysStat(info, st)
	return st, nil
}

func (a *Adapter) CreationTime(ctx context.Context, p string) (time.Time, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Lstat(full)
	if err != nil {
		return time.Time{}, mapError("creationtime", p, err)
	}
	ct, ok := creationTime(info)
	if !ok {
		return time.Time{}, &filicious.PathError{Op: "creationtime", Path: p, Err: filicious.ErrUnsupported}
	}
	return ct, nil
}

func (a *Adapter) Size(ctx context.Context, p string, recursive bool) (int64, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return 0, err
	}
	info, err := os.Lstat(full)
	if err != nil {
		return 0, mapError("size", p, err)
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	if !recursive {
		return 0, nil
	}

	var total int64
	err = filepath.WalkDir(full, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, mapError("size", p, err)
	}
	return total, nil
}

func (a *Adapter) List(ctx context.Context, p string) ([]string, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, mapError("list", p, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	filicious.SortNames(names)
	return names, nil
}

// ============================================================================
// MetadataWriter
// ============================================================================

func (a *Adapter) Touch(ctx context.Context, p string, atime, mtime time.Time) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(full); os.IsNotExist(err) {
		f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return mapError("touch", p, err)
		}
		f.Close()
	}
	if err := os.Chtimes(full, atime, mtime); err != nil {
		return mapError("touch", p, err)
	}
	return nil
}

func (a *Adapter) Chmod(ctx context.Context, p string, mode fs.FileMode) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	if err := os.Chmod(full, mode.Perm()); err != nil {
		return mapError("chmod", p, err)
	}
	return nil
}

func (a *Adapter) Chown(ctx context.Context, p string, uid, gid int) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	if err := os.Chown(full, uid, gid); err != nil {
		return mapError("chown", p, err)
	}
	return nil
}

// ============================================================================
// ContentReadWriter
// ============================================================================

func (a *Adapter) ReadFile(ctx context.Context, p string) ([]byte, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, mapError("read", p, err)
	}
	return data, nil
}

func (a *Adapter) WriteFile(ctx context.Context, p string, data []byte) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return mapError("write", p, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return mapError("write", p, err)
	}
	return nil
}

func (a *Adapter) Append(ctx context.Context, p string, data []byte) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return mapError("append", p, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return mapError("append", p, err)
	}
	return nil
}

func (a *Adapter) Truncate(ctx context.Context, p string, size int64) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	if err := os.Truncate(full, size); err != nil {
		return mapError("truncate", p, err)
	}
	return nil
}

// Open returns the file itself; local disk streams natively.
func (a *Adapter) Open(ctx context.Context, p string) (filicious.Stream, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(full, os.O_RDWR, 0)
	if err != nil {
		return nil, mapError("open", p, err)
	}
	return f, nil
}

// ============================================================================
// DirectoryWriter
// ============================================================================

func (a *Adapter) CreateFile(ctx context.Context, p string) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	if info, err := os.Lstat(full); err == nil && info.IsDir() {
		return &filicious.PathError{Op: "createfile", Path: p, Err: filicious.ErrExist}
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return mapError("createfile", p, err)
	}
	return f.Close()
}

func (a *Adapter) CreateDir(ctx context.Context, p string, parents bool) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	if parents {
		if info, err := os.Lstat(full); err == nil && !info.IsDir() {
			return &filicious.PathError{Op: "createdir", Path: p, Err: filicious.ErrExist}
		}
		if err := os.MkdirAll(full, 0o755); err != nil {
			return mapError("createdir", p, err)
		}
		return nil
	}
	if err := os.Mkdir(full, 0o755); err != nil {
		return mapError("createdir", p, err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, p string, recursive bool) error {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return err
	}
	if recursive {
		if _, err := os.Lstat(full); err != nil {
			return mapError("delete", p, err)
		}
		if err := os.RemoveAll(full); err != nil {
			return mapError("delete", p, err)
		}
		return nil
	}
	// os.Remove refuses non-empty directories, which is exactly the
	// non-recursive contract.
	if err := os.Remove(full); err != nil {
		return mapError("delete", p, err)
	}
	return nil
}

func (a *Adapter) Rename(ctx context.Context, src, dst string) (bool, error) {
	srcFull, err := a.fullPath(ctx, src)
	if err != nil {
		return false, err
	}
	dstFull, err := a.fullPath(ctx, dst)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(dstFull), 0o755); err != nil {
		return false, nil
	}
	if err := os.Rename(srcFull, dstFull); err != nil {
		a.log.Debug("native rename declined", "src", src, "dst", dst, "err", err)
		return false, nil
	}
	return true, nil
}

// ============================================================================
// Prober
// ============================================================================

func (a *Adapter) MIMEType(ctx context.Context, p string) (string, error) {
	data, err := a.readHead(ctx, p)
	if err != nil {
		return "", err
	}
	return filicious.GuessMIMEType(p, data), nil
}

func (a *Adapter) MIMEEncoding(ctx context.Context, p string) (string, error) {
	data, err := a.readHead(ctx, p)
	if err != nil {
		return "", err
	}
	return filicious.GuessMIMEEncoding(data), nil
}

// readHead reads the sniffing window http.DetectContentType works on.
func (a *Adapter) readHead(ctx context.Context, p string) ([]byte, error) {
	full, err := a.fullPath(ctx, p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, mapError("probe", p, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, mapError("probe", p, err)
	}
	return buf[:n], nil
}

var (
	_ filicious.Adapter  = (*Adapter)(nil)
	_ filicious.CanWatch = (*Adapter)(nil)
	_ filicious.Closer   = (*Adapter)(nil)
)
