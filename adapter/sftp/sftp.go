// Package sftp provides a remote adapter speaking the SFTP protocol over
// SSH. The connection is established lazily on first use and torn down
// whenever the configuration identity changes; creation times, space
// probes and MIME detection are declared unsupported because the
// protocol offers no portable way to serve them.
package sftp

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sync"
	"time"

	"github.com/filicious/filicious"
	"github.com/pkg/sftp"
)

// Adapter is an SFTP implementation of filicious.Adapter. All operations
// share a single lazily dialed session; a configuration change through
// Set drops the session so the next operation reconnects with the new
// credentials.
type Adapter struct {
	mu  sync.Mutex
	cfg Config

	mgr *filicious.ConnManager
	log *slog.Logger
}

// Option configures the adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) { a.log = log }
}

// New creates an SFTP adapter. No network traffic happens until the
// first operation.
func New(cfg Config, opts ...Option) *Adapter {
	a := &Adapter{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	a.mgr = filicious.NewConnManager(a.dial, a.log)
	return a
}

// Set changes a single configuration option on a live adapter and raises
// the configuration-change notification. A change that produces a new
// connection identity drops the current session; setting an option back
// to its current value keeps it.
func (a *Adapter) Set(key, value string) error {
	a.mu.Lock()
	if err := a.cfg.Set(key, value); err != nil {
		a.mu.Unlock()
		return err
	}
	identity := a.cfg.Identity()
	a.mu.Unlock()

	a.mgr.Reconfigure(identity)
	return nil
}

// Config returns a copy of the current configuration.
func (a *Adapter) Config() Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// ConnState exposes the lifecycle state, mostly for tests and logging.
func (a *Adapter) ConnState() filicious.ConnState { return a.mgr.State() }

// Close disconnects the session. The adapter stays usable; the next
// operation dials again.
func (a *Adapter) Close() error { return a.mgr.Close() }

func (a *Adapter) dial(ctx context.Context) (filicious.Conn, error) {
	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()
	return dialConn(cfg)
}

// conn returns the live session, dialing lazily under the current
// configuration identity.
func (a *Adapter) conn(ctx context.Context) (*conn, error) {
	a.mu.Lock()
	identity := a.cfg.Identity()
	a.mu.Unlock()

	c, err := a.mgr.Acquire(ctx, identity)
	if err != nil {
		return nil, err
	}
	return c.(*conn), nil
}

// mapError translates sftp/ssh errors into the filicious taxonomy.
// Status errors are classified by path semantics; transport faults are
// wrapped as adapter errors after invalidating the dead session.
func (a *Adapter) mapError(op, p string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrNotExist}
	case errors.Is(err, os.ErrExist):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrExist}
	case errors.Is(err, os.ErrPermission):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrPermission}
	case errors.Is(err, sftp.ErrSSHFxOpUnsupported):
		return &filicious.PathError{Op: op, Path: p, Err: filicious.ErrUnsupported}
	case errors.Is(err, sftp.ErrSSHFxConnectionLost), errors.Is(err, sftp.ErrSSHFxNoConnection):
		a.mgr.Invalidate()
		return &filicious.PathError{Op: op, Path: p, Err: &filicious.AdapterError{Err: err}}
	default:
		return &filicious.PathError{Op: op, Path: p, Err: err}
	}
}

// ============================================================================
// MetadataReader
// ============================================================================

func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return false, err
	}
	if _, err := c.sftp.Lstat(c.path(p)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, a.mapError("exists", p, err)
	}
	return true, nil
}

func (a *Adapter) IsFile(ctx context.Context, p string) (bool, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return false, err
	}
	info, err := c.sftp.Stat(c.path(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, a.mapError("isfile", p, err)
	}
	return info.Mode().IsRegular(), nil
}

func (a *Adapter) IsDirectory(ctx context.Context, p string) (bool, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return false, err
	}
	info, err := c.sftp.Stat(c.path(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, a.mapError("isdirectory", p, err)
	}
	return info.IsDir(), nil
}

func (a *Adapter) IsLink(ctx context.Context, p string) (bool, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return false, err
	}
	info, err := c.sftp.Lstat(c.path(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, a.mapError("islink", p, err)
	}
	return info.Mode()&fs.ModeSymlink != 0, nil
}

func (a *Adapter) Stat(ctx context.Context, p string) (*filicious.Stat, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}
	info, err := c.sftp.Lstat(c.path(p))
	if err != nil {
		return nil, a.mapError("stat", p, err)
	}

	st := &filicious.Stat{
		Type:  filicious.TypeFromMode(info.Mode()),
		Size:  info.Size(),
		MTime: info.ModTime(),
		ATime: info.ModTime(),
		Mode:  info.Mode().Perm(),
	}
	if sys, ok := info.Sys().(*sftp.FileStat); ok {
		st.UID = int(sys.UID)
		st.GID = int(sys.GID)
		st.ATime = time.Unix(int64(sys.Atime), 0)
	}
	return st, nil
}

// CreationTime is unsupported: SFTP stat attributes carry no birth time.
func (a *Adapter) CreationTime(ctx context.Context, p string) (time.Time, error) {
	return time.Time{}, &filicious.PathError{Op: "creationtime", Path: p, Err: filicious.ErrUnsupported}
}

func (a *Adapter) Size(ctx context.Context, p string, recursive bool) (int64, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return 0, err
	}
	info, err := c.sftp.Lstat(c.path(p))
	if err != nil {
		return 0, a.mapError("size", p, err)
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	if !recursive {
		return 0, nil
	}

	total, err := a.sizeDir(c, c.path(p))
	if err != nil {
		return 0, a.mapError("size", p, err)
	}
	return total, nil
}

// sizeDir sums regular-file sizes below dir, one ReadDir round trip per
// directory, failing fast on the first error.
func (a *Adapter) sizeDir(c *conn, dir string) (int64, error) {
	entries, err := c.sftp.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, info := range entries {
		switch {
		case info.IsDir():
			sub, err := a.sizeDir(c, path.Join(dir, info.Name()))
			if err != nil {
				return 0, err
			}
			total += sub
		case info.Mode().IsRegular():
			total += info.Size()
		}
	}
	return total, nil
}

func (a *Adapter) List(ctx context.Context, p string) ([]string, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.sftp.ReadDir(c.path(p))
	if err != nil {
		return nil, a.mapError("list", p, err)
	}
	names := make([]string, 0, len(entries))
	for _, info := range entries {
		names = append(names, info.Name())
	}
	filicious.SortNames(names)
	return names, nil
}

// ============================================================================
// MetadataWriter
// ============================================================================

func (a *Adapter) Touch(ctx context.Context, p string, atime, mtime time.Time) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	full := c.path(p)
	if _, err := c.sftp.Lstat(full); errors.Is(err, os.ErrNotExist) {
		f, err := c.sftp.Create(full)
		if err != nil {
			return a.mapError("touch", p, err)
		}
		f.Close()
	}
	if err := c.sftp.Chtimes(full, atime, mtime); err != nil {
		return a.mapError("touch", p, err)
	}
	return nil
}

func (a *Adapter) Chmod(ctx context.Context, p string, mode fs.FileMode) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.sftp.Chmod(c.path(p), mode.Perm()); err != nil {
		return a.mapError("chmod", p, err)
	}
	return nil
}

func (a *Adapter) Chown(ctx context.Context, p string, uid, gid int) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.sftp.Chown(c.path(p), uid, gid); err != nil {
		return a.mapError("chown", p, err)
	}
	return nil
}

// ============================================================================
// ContentReadWriter
// ============================================================================

func (a *Adapter) ReadFile(ctx context.Context, p string) ([]byte, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}
	f, err := c.sftp.Open(c.path(p))
	if err != nil {
		return nil, a.mapError("read", p, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, a.mapError("read", p, err)
	}
	return data, nil
}

func (a *Adapter) WriteFile(ctx context.Context, p string, data []byte) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	full := c.path(p)
	if err := c.sftp.MkdirAll(path.Dir(full)); err != nil {
		return a.mapError("write", p, err)
	}
	f, err := c.sftp.Create(full)
	if err != nil {
		return a.mapError("write", p, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return a.mapError("write", p, err)
	}
	if err := f.Close(); err != nil {
		return a.mapError("write", p, err)
	}
	return nil
}

func (a *Adapter) Append(ctx context.Context, p string, data []byte) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	f, err := c.sftp.OpenFile(c.path(p), os.O_WRONLY|os.O_CREATE|os.O_APPEND)
	if err != nil {
		return a.mapError("append", p, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return a.mapError("append", p, err)
	}
	return nil
}

func (a *Adapter) Truncate(ctx context.Context, p string, size int64) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.sftp.Truncate(c.path(p), size); err != nil {
		return a.mapError("truncate", p, err)
	}
	return nil
}

// Open returns the remote file handle itself; *sftp.File reads, writes
// and seeks against the live session.
func (a *Adapter) Open(ctx context.Context, p string) (filicious.Stream, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return nil, err
	}
	f, err := c.sftp.OpenFile(c.path(p), os.O_RDWR)
	if err != nil {
		return nil, a.mapError("open", p, err)
	}
	return f, nil
}

// ============================================================================
// DirectoryWriter
// ============================================================================

func (a *Adapter) CreateFile(ctx context.Context, p string) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	full := c.path(p)
	if info, err := c.sftp.Lstat(full); err == nil && info.IsDir() {
		return &filicious.PathError{Op: "createfile", Path: p, Err: filicious.ErrExist}
	}
	f, err := c.sftp.Create(full)
	if err != nil {
		return a.mapError("createfile", p, err)
	}
	return f.Close()
}

func (a *Adapter) CreateDir(ctx context.Context, p string, parents bool) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	full := c.path(p)
	if info, err := c.sftp.Lstat(full); err == nil {
		if parents && info.IsDir() {
			return nil
		}
		return &filicious.PathError{Op: "createdir", Path: p, Err: filicious.ErrExist}
	}
	if parents {
		if err := c.sftp.MkdirAll(full); err != nil {
			return a.mapError("createdir", p, err)
		}
		return nil
	}
	if err := c.sftp.Mkdir(full); err != nil {
		return a.mapError("createdir", p, err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, p string, recursive bool) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	full := c.path(p)
	info, err := c.sftp.Lstat(full)
	if err != nil {
		return a.mapError("delete", p, err)
	}

	if !info.IsDir() {
		if err := c.sftp.Remove(full); err != nil {
			return a.mapError("delete", p, err)
		}
		return nil
	}

	if recursive {
		if err := a.removeAll(c, full); err != nil {
			return a.mapError("delete", p, err)
		}
		return nil
	}

	entries, err := c.sftp.ReadDir(full)
	if err != nil {
		return a.mapError("delete", p, err)
	}
	if len(entries) > 0 {
		return &filicious.PathError{Op: "delete", Path: p, Err: filicious.ErrNotEmpty}
	}
	if err := c.sftp.RemoveDirectory(full); err != nil {
		return a.mapError("delete", p, err)
	}
	return nil
}

// removeAll deletes a directory subtree depth-first.
func (a *Adapter) removeAll(c *conn, dir string) error {
	entries, err := c.sftp.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, info := range entries {
		full := path.Join(dir, info.Name())
		if info.IsDir() {
			if err := a.removeAll(c, full); err != nil {
				return err
			}
			continue
		}
		if err := c.sftp.Remove(full); err != nil {
			return err
		}
	}
	return c.sftp.RemoveDirectory(dir)
}

func (a *Adapter) Rename(ctx context.Context, src, dst string) (bool, error) {
	c, err := a.conn(ctx)
	if err != nil {
		return false, err
	}
	dstFull := c.path(dst)
	if err := c.sftp.MkdirAll(path.Dir(dstFull)); err != nil {
		return false, nil
	}
	if err := c.sftp.Rename(c.path(src), dstFull); err != nil {
		a.log.Debug("native rename declined", "src", src, "dst", dst, "err", err)
		return false, nil
	}
	return true, nil
}

// ============================================================================
// Prober
// ============================================================================

// FreeSpace is unsupported: the core SFTP protocol has no statvfs.
func (a *Adapter) FreeSpace(ctx context.Context, p string) (int64, error) {
	return 0, &filicious.PathError{Op: "freespace", Path: p, Err: filicious.ErrUnsupported}
}

// TotalSpace is unsupported for the same reason as FreeSpace.
func (a *Adapter) TotalSpace(ctx context.Context, p string) (int64, error) {
	return 0, &filicious.PathError{Op: "totalspace", Path: p, Err: filicious.ErrUnsupported}
}

// MIMEType is unsupported: probing content over the wire is not a
// metadata operation this backend will serve implicitly.
func (a *Adapter) MIMEType(ctx context.Context, p string) (string, error) {
	return "", &filicious.PathError{Op: "mimetype", Path: p, Err: filicious.ErrUnsupported}
}

// MIMEEncoding is unsupported for the same reason as MIMEType.
func (a *Adapter) MIMEEncoding(ctx context.Context, p string) (string, error) {
	return "", &filicious.PathError{Op: "mimeencoding", Path: p, Err: filicious.ErrUnsupported}
}

var (
	_ filicious.Adapter  = (*Adapter)(nil)
	_ filicious.CanWatch = (*Adapter)(nil)
	_ filicious.Closer   = (*Adapter)(nil)
)
