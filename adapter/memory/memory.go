// Package memory provides an in-memory adapter, useful for tests and
// scratch filesystems. It supports most of the contract; operations with
// no in-memory meaning (ownership, creation time) are declared
// unsupported rather than faked.
package memory

import (
	"context"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/filicious/filicious"
)

// memFile is a file stored in memory
type memFile struct {
	content []byte
	mode    fs.FileMode
	atime   time.Time
	mtime   time.Time
}

// memDir is a directory stored in memory
type memDir struct {
	mode  fs.FileMode
	atime time.Time
	mtime time.Time
}

// Adapter is an in-memory implementation of filicious.Adapter.
type Adapter struct {
	mu      sync.RWMutex
	files   map[string]*memFile
	dirs    map[string]*memDir
	maxSize int64 // 0 = unlimited; with no limit, space probes are unsupported
	size    int64

	watchMu sync.RWMutex
	watches []*watchEntry
}

// Config holds configuration for the memory adapter
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited)
	MaxSize int64
}

// New creates an empty in-memory adapter.
func New(cfg ...Config) *Adapter {
	var maxSize int64
	if len(cfg) > 0 {
		maxSize = cfg[0].MaxSize
	}

	now := time.Now()
	return &Adapter{
		files:   map[string]*memFile{},
		dirs:    map[string]*memDir{"": {mode: 0o755, atime: now, mtime: now}},
		maxSize: maxSize,
	}
}

// normalize maps adapter-local paths onto map keys: no leading slash,
// "" for the root.
func normalize(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	return p
}

func splitParent(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// ensureParents creates missing parent directories. Lock must be held.
func (a *Adapter) ensureParents(p string) {
	now := time.Now()
	for dir := splitParent(p); dir != ""; dir = splitParent(dir) {
		if _, ok := a.dirs[dir]; !ok {
			a.dirs[dir] = &memDir{mode: 0o755, atime: now, mtime: now}
		}
	}
}

// ============================================================================
// MetadataReader
// ============================================================================

func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p = normalize(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	_, isFile := a.files[p]
	_, isDir := a.dirs[p]
	return isFile || isDir, nil
}

func (a *Adapter) IsFile(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.files[normalize(p)]
	return ok, nil
}

func (a *Adapter) IsDirectory(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.dirs[normalize(p)]
	return ok, nil
}

// IsLink always reports false: the memory backend has no link concept,
// so no node here is ever a symlink.
func (a *Adapter) IsLink(ctx context.Context, p string) (bool, error) {
	return false, ctx.Err()
}

func (a *Adapter) Stat(ctx context.Context, p string) (*filicious.Stat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = normalize(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if f, ok := a.files[p]; ok {
		return &filicious.Stat{
			Type:  filicious.TypeFile,
			Size:  int64(len(f.content)),
			ATime: f.atime,
			MTime: f.mtime,
			Mode:  f.mode,
		}, nil
	}
	if d, ok := a.dirs[p]; ok {
		return &filicious.Stat{
			Type:  filicious.TypeDirectory,
			ATime: d.atime,
			MTime: d.mtime,
			Mode:  d.mode,
		}, nil
	}

	return nil, &filicious.PathError{Op: "stat", Path: p, Err: filicious.ErrNotExist}
}

func (a *Adapter) CreationTime(ctx context.Context, p string) (time.Time, error) {
	return time.Time{}, &filicious.PathError{Op: "creationtime", Path: p, Err: filicious.ErrUnsupported}
}

func (a *Adapter) Size(ctx context.Context, p string, recursive bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p = normalize(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if f, ok := a.files[p]; ok {
		return int64(len(f.content)), nil
	}
	if _, ok := a.dirs[p]; !ok {
		return 0, &filicious.PathError{Op: "size", Path: p, Err: filicious.ErrNotExist}
	}
	if !recursive {
		return 0, nil
	}

	var total int64
	prefix := p + "/"
	for fp, f := range a.files {
		if p == "" || strings.HasPrefix(fp, prefix) {
			total += int64(len(f.content))
		}
	}
	return total, nil
}

func (a *Adapter) List(ctx context.Context, p string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = normalize(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, ok := a.dirs[p]; !ok {
		if _, isFile := a.files[p]; isFile {
			return nil, &filicious.PathError{Op: "list", Path: p, Err: filicious.ErrNotDir}
		}
		return nil, &filicious.PathError{Op: "list", Path: p, Err: filicious.ErrNotExist}
	}

	seen := make(map[string]bool)
	var names []string
	collect := func(candidate string) {
		var rel string
		if p == "" {
			rel = candidate
		} else if strings.HasPrefix(candidate, p+"/") {
			rel = strings.TrimPrefix(candidate, p+"/")
		} else {
			return
		}
		if rel == "" {
			return
		}
		name := strings.SplitN(rel, "/", 2)[0]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for fp := range a.files {
		collect(fp)
	}
	for dp := range a.dirs {
		if dp != "" {
			collect(dp)
		}
	}

	filicious.SortNames(names)
	return names, nil
}

// ============================================================================
// MetadataWriter
// ============================================================================

func (a *Adapter) Touch(ctx context.Context, p string, atime, mtime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = normalize(p)

	a.mu.Lock()
	defer a.mu.Unlock()

	if d, ok := a.dirs[p]; ok {
		d.atime, d.mtime = atime, mtime
		return nil
	}
	f, ok := a.files[p]
	if !ok {
		a.ensureParents(p)
		f = &memFile{mode: 0o644}
		a.files[p] = f
		defer a.notify(p)
	}
	f.atime, f.mtime = atime, mtime
	return nil
}

func (a *Adapter) Chmod(ctx context.Context, p string, mode fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = normalize(p)

	a.mu.Lock()
	defer a.mu.Unlock()

	if f, ok := a.files[p]; ok {
		f.mode = mode.Perm()
		return nil
	}
	if d, ok := a.dirs[p]; ok {
		d.mode = mode.Perm()
		return nil
	}
	return &filicious.PathError{Op: "chmod", Path: p, Err: filicious.ErrNotExist}
}

// Chown is unsupported: memory nodes have no ownership.
func (a *Adapter) Chown(ctx context.Context, p string, uid, gid int) error {
	return &filicious.PathError{Op: "chown", Path: p, Err: filicious.ErrUnsupported}
}

// ============================================================================
// ContentReadWriter
// ============================================================================

func (a *Adapter) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = normalize(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	f, ok := a.files[p]
	if !ok {
		return nil, &filicious.PathError{Op: "read", Path: p, Err: filicious.ErrNotExist}
	}
	out := make([]byte, len(f.content))
	copy(out, f.content)
	return out, nil
}

func (a *Adapter) WriteFile(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = normalize(p)

	a.mu.Lock()
	if _, ok := a.dirs[p]; ok {
		a.mu.Unlock()
		return &filicious.PathError{Op: "write", Path: p, Err: filicious.ErrIsDir}
	}

	var old int64
	if f, ok := a.files[p]; ok {
		old = int64(len(f.content))
	}
	if err := a.checkSpace(int64(len(data)) - old); err != nil {
		a.mu.Unlock()
		return &filicious.PathError{Op: "write", Path: p, Err: err}
	}

	a.ensureParents(p)
	buf := make([]byte, len(data))
	copy(buf, data)
	now := time.Now()
	a.files[p] = &memFile{content: buf, mode: 0o644, atime: now, mtime: now}
	a.size += int64(len(data)) - old
	a.mu.Unlock()

	a.notify(p)
	return nil
}

func (a *Adapter) Append(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = normalize(p)

	a.mu.Lock()
	if _, ok := a.dirs[p]; ok {
		a.mu.Unlock()
		return &filicious.PathError{Op: "append", Path: p, Err: filicious.ErrIsDir}
	}
	if err := a.checkSpace(int64(len(data))); err != nil {
		a.mu.Unlock()
		return &filicious.PathError{Op: "append", Path: p, Err: err}
	}

	f, ok := a.files[p]
	if !ok {
		a.ensureParents(p)
		f = &memFile{mode: 0o644, atime: time.Now()}
		a.files[p] = f
	}
	f.content = append(f.content, data...)
	f.mtime = time.Now()
	a.size += int64(len(data))
	a.mu.Unlock()

	a.notify(p)
	return nil
}

func (a *Adapter) Truncate(ctx context.Context, p string, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = normalize(p)

	a.mu.Lock()
	f, ok := a.files[p]
	if !ok {
		a.mu.Unlock()
		return &filicious.PathError{Op: "truncate", Path: p, Err: filicious.ErrNotExist}
	}
	grow := size - int64(len(f.content))
	if grow > 0 {
		if err := a.checkSpace(grow); err != nil {
			a.mu.Unlock()
			return &filicious.PathError{Op: "truncate", Path: p, Err: err}
		}
		f.content = append(f.content, make([]byte, grow)...)
	} else {
		f.content = f.content[:size]
	}
	f.mtime = time.Now()
	a.size += grow
	a.mu.Unlock()

	a.notify(p)
	return nil
}

// Open materializes the content through a local spool file; the memory
// backend has no native streaming primitive. The spool is removed when
// the stream closes, and written content flows back into the store.
func (a *Adapter) Open(ctx context.Context, p string) (filicious.Stream, error) {
	data, err := a.ReadFile(ctx, p)
	if err != nil {
		return nil, err
	}
	local := p
	return filicious.NewSpoolStream(data, func(final []byte) error {
		return a.WriteFile(context.Background(), local, final)
	})
}

// ============================================================================
// DirectoryWriter
// ============================================================================

func (a *Adapter) CreateFile(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = normalize(p)

	a.mu.Lock()
	if _, ok := a.dirs[p]; ok {
		a.mu.Unlock()
		return &filicious.PathError{Op: "createfile", Path: p, Err: filicious.ErrExist}
	}
	a.ensureParents(p)
	var old int64
	if f, ok := a.files[p]; ok {
		old = int64(len(f.content))
	}
	now := time.Now()
	a.files[p] = &memFile{mode: 0o644, atime: now, mtime: now}
	a.size -= old
	a.mu.Unlock()

	a.notify(p)
	return nil
}

func (a *Adapter) CreateDir(ctx context.Context, p string, parents bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = normalize(p)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.files[p]; ok {
		return &filicious.PathError{Op: "createdir", Path: p, Err: filicious.ErrExist}
	}
	if _, ok := a.dirs[p]; ok {
		if parents {
			return nil
		}
		return &filicious.PathError{Op: "createdir", Path: p, Err: filicious.ErrExist}
	}

	if parent := splitParent(p); parent != "" {
		if _, ok := a.dirs[parent]; !ok {
			if !parents {
				return &filicious.PathError{Op: "createdir", Path: p, Err: filicious.ErrNotExist}
			}
			a.ensureParents(p)
		}
	}

	now := time.Now()
	a.dirs[p] = &memDir{mode: 0o755, atime: now, mtime: now}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, p string, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p = normalize(p)

	a.mu.Lock()

	if f, ok := a.files[p]; ok {
		a.size -= int64(len(f.content))
		delete(a.files, p)
		a.mu.Unlock()
		a.notify(p)
		return nil
	}

	if _, ok := a.dirs[p]; !ok {
		a.mu.Unlock()
		return &filicious.PathError{Op: "delete", Path: p, Err: filicious.ErrNotExist}
	}

	prefix := p + "/"
	empty := true
	for fp := range a.files {
		if p == "" || strings.HasPrefix(fp, prefix) {
			empty = false
			break
		}
	}
	if empty {
		for dp := range a.dirs {
			if dp != p && dp != "" && (p == "" || strings.HasPrefix(dp, prefix)) {
				empty = false
				break
			}
		}
	}
	if !empty && !recursive {
		a.mu.Unlock()
		return &filicious.PathError{Op: "delete", Path: p, Err: filicious.ErrNotEmpty}
	}

	var removed []string
	for fp, f := range a.files {
		if p == "" || strings.HasPrefix(fp, prefix) {
			a.size -= int64(len(f.content))
			removed = append(removed, fp)
			delete(a.files, fp)
		}
	}
	for dp := range a.dirs {
		if dp == p && p != "" {
			delete(a.dirs, dp)
			continue
		}
		if dp != "" && (p == "" || strings.HasPrefix(dp, prefix)) {
			delete(a.dirs, dp)
		}
	}
	a.mu.Unlock()

	for _, fp := range removed {
		a.notify(fp)
	}
	return nil
}

// Rename moves a file or directory within the store. It reports false,
// never an error, when the source is absent or the destination collides
// with a directory: the caller treats false as "not handled" and fails
// over to copy-then-delete, which surfaces the real failure.
func (a *Adapter) Rename(ctx context.Context, src, dst string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	src, dst = normalize(src), normalize(dst)

	a.mu.Lock()

	if f, ok := a.files[src]; ok {
		if _, collide := a.dirs[dst]; collide {
			a.mu.Unlock()
			return false, nil
		}
		a.ensureParents(dst)
		if old, ok := a.files[dst]; ok {
			a.size -= int64(len(old.content))
		}
		a.files[dst] = f
		delete(a.files, src)
		a.mu.Unlock()
		a.notify(src)
		a.notify(dst)
		return true, nil
	}

	if d, ok := a.dirs[src]; ok && src != "" {
		if _, collide := a.files[dst]; collide {
			a.mu.Unlock()
			return false, nil
		}
		a.ensureParents(dst)
		a.dirs[dst] = d
		delete(a.dirs, src)
		prefix := src + "/"
		for fp, f := range a.files {
			if strings.HasPrefix(fp, prefix) {
				a.files[dst+"/"+strings.TrimPrefix(fp, prefix)] = f
				delete(a.files, fp)
			}
		}
		for dp, dd := range a.dirs {
			if strings.HasPrefix(dp, prefix) {
				a.dirs[dst+"/"+strings.TrimPrefix(dp, prefix)] = dd
				delete(a.dirs, dp)
			}
		}
		a.mu.Unlock()
		return true, nil
	}

	a.mu.Unlock()
	return false, nil
}

// ============================================================================
// Prober
// ============================================================================

// FreeSpace answers only when the store is size-limited; an unlimited
// store has no meaningful free-space figure and must not invent one.
func (a *Adapter) FreeSpace(ctx context.Context, p string) (int64, error) {
	if a.maxSize == 0 {
		return 0, &filicious.PathError{Op: "freespace", Path: p, Err: filicious.ErrUnsupported}
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.maxSize - a.size, nil
}

func (a *Adapter) TotalSpace(ctx context.Context, p string) (int64, error) {
	if a.maxSize == 0 {
		return 0, &filicious.PathError{Op: "totalspace", Path: p, Err: filicious.ErrUnsupported}
	}
	return a.maxSize, nil
}

func (a *Adapter) MIMEType(ctx context.Context, p string) (string, error) {
	data, err := a.ReadFile(ctx, p)
	if err != nil {
		return "", err
	}
	return filicious.GuessMIMEType(p, data), nil
}

func (a *Adapter) MIMEEncoding(ctx context.Context, p string) (string, error) {
	data, err := a.ReadFile(ctx, p)
	if err != nil {
		return "", err
	}
	return filicious.GuessMIMEEncoding(data), nil
}

// ============================================================================
// Helpers
// ============================================================================

// checkSpace verifies a size delta fits the configured limit. Lock must
// be held.
func (a *Adapter) checkSpace(delta int64) error {
	if a.maxSize > 0 && a.size+delta > a.maxSize {
		return filicious.ErrPermission
	}
	return nil
}

// Used returns the current total size of all stored files.
func (a *Adapter) Used() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// Clear removes everything, keeping the root. Useful in tests.
func (a *Adapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	a.files = map[string]*memFile{}
	a.dirs = map[string]*memDir{"": {mode: 0o755, atime: now, mtime: now}}
	a.size = 0
}

var (
	_ filicious.Adapter  = (*Adapter)(nil)
	_ filicious.CanWatch = (*Adapter)(nil)
)
