package filicious

import (
	"context"
	"io"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// NodeType classifies a filesystem node.
type NodeType int

const (
	// TypeUnknown is reported for node kinds the backend cannot classify
	// (devices, sockets, fifos).
	TypeUnknown NodeType = iota
	// TypeFile is a regular file.
	TypeFile
	// TypeDirectory is a directory.
	TypeDirectory
	// TypeSymlink is a symbolic link.
	TypeSymlink
)

// String returns a human readable node type name.
func (t NodeType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	case TypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Stat is the metadata record returned by Adapter.Stat. It is fetched
// fresh per query; no staleness guarantee is made and nothing caches it.
type Stat struct {
	Type  NodeType
	Size  int64
	ATime time.Time
	MTime time.Time
	UID   int
	GID   int
	Mode  fs.FileMode // permission bits only (0777 mask)
}

// IsReadable reports whether any of the owner/group/other read bits is set.
func (s *Stat) IsReadable() bool {
	return s.Mode&0o444 != 0
}

// IsWritable reports whether any of the owner/group/other write bits is set.
func (s *Stat) IsWritable() bool {
	return s.Mode&0o222 != 0
}

// IsExecutable reports whether any of the owner/group/other execute bits is set.
func (s *Stat) IsExecutable() bool {
	return s.Mode&0o111 != 0
}

// TypeFromMode derives a NodeType from a file mode.
func TypeFromMode(mode fs.FileMode) NodeType {
	switch {
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	case mode.IsDir():
		return TypeDirectory
	case mode.IsRegular():
		return TypeFile
	default:
		return TypeUnknown
	}
}

// Stream is a byte-stream view of a file, positioned at the start of the
// resource. Backends without native streaming materialize content through
// a temporary local spool whose cleanup is tied to Close.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// ============================================================================
// Adapter contract
// ============================================================================

// MetadataReader answers live queries about nodes. Type queries return
// false, not an error, for absent nodes; they fail only on transport faults.
type MetadataReader interface {
	// Exists reports whether any node is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// IsFile reports whether a regular file is present at path.
	IsFile(ctx context.Context, path string) (bool, error)

	// IsDirectory reports whether a directory is present at path.
	IsDirectory(ctx context.Context, path string) (bool, error)

	// IsLink reports whether a symbolic link is present at path.
	IsLink(ctx context.Context, path string) (bool, error)

	// Stat fetches the metadata record for path. Fails with ErrNotExist
	// when the node is absent.
	Stat(ctx context.Context, path string) (*Stat, error)

	// CreationTime returns the node's creation time where the backend
	// tracks one; otherwise it fails with ErrUnsupported.
	CreationTime(ctx context.Context, path string) (time.Time, error)

	// Size returns the raw stat size (0 for directories). With recursive
	// set it sums all descendants, failing fast on the first stat error.
	Size(ctx context.Context, path string, recursive bool) (int64, error)

	// List returns the names of the direct children of a directory in
	// case-insensitive lexicographic order, never including "." or "..".
	List(ctx context.Context, path string) ([]string, error)
}

// MetadataWriter mutates node metadata. Each operation either performs
// the mutation or fails with ErrUnsupported; a silent no-op is forbidden.
type MetadataWriter interface {
	// Touch sets the access and modification times, creating an empty
	// file when the node is absent.
	Touch(ctx context.Context, path string, atime, mtime time.Time) error

	// Chmod sets the permission bits.
	Chmod(ctx context.Context, path string, mode fs.FileMode) error

	// Chown sets the owner and group ids.
	Chown(ctx context.Context, path string, uid, gid int) error
}

// ContentReadWriter transfers file content.
type ContentReadWriter interface {
	// ReadFile returns the full byte content of a file.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces the full byte content of a file, creating it
	// and its parent directories as needed.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Append appends data to a file, creating it when absent. May be
	// ErrUnsupported on backends without a partial-write primitive.
	Append(ctx context.Context, path string, data []byte) error

	// Truncate changes the size of a file. May be ErrUnsupported.
	Truncate(ctx context.Context, path string, size int64) error

	// Open returns a Stream over the file, positioned at the start.
	Open(ctx context.Context, path string) (Stream, error)
}

// DirectoryWriter creates, deletes and renames nodes.
type DirectoryWriter interface {
	// CreateFile creates a zero-length file. Fails with ErrExist when a
	// conflicting node of the wrong type is present.
	CreateFile(ctx context.Context, path string) error

	// CreateDir creates a directory, optionally creating parents.
	CreateDir(ctx context.Context, path string, parents bool) error

	// Delete removes a node. A non-recursive delete of a non-empty
	// directory fails; it never silently deletes.
	Delete(ctx context.Context, path string, recursive bool) error

	// Rename attempts an in-backend rename. The boolean is a deliberate
	// "handled" signal, not an error: false means the native primitive
	// could not satisfy the move and the caller should fail over to
	// copy-then-delete.
	Rename(ctx context.Context, src, dst string) (bool, error)
}

// Prober answers capacity and content-type queries. Backends without a
// way to answer declare ErrUnsupported; they never guess or approximate.
type Prober interface {
	FreeSpace(ctx context.Context, path string) (int64, error)
	TotalSpace(ctx context.Context, path string) (int64, error)
	MIMEType(ctx context.Context, path string) (string, error)
	MIMEEncoding(ctx context.Context, path string) (string, error)
}

// Adapter is the capability contract every backend implements. Paths are
// adapter-local: relative to the adapter's effective base directory, with
// forward slashes. An adapter never observes paths outside its subtree.
//
// Operations are synchronous and blocking. A single adapter instance is
// not safe for concurrent use without external serialization unless its
// implementation documents otherwise; backend connection state is owned
// exclusively by the adapter.
type Adapter interface {
	MetadataReader
	MetadataWriter
	ContentReadWriter
	DirectoryWriter
	Prober
}

// ============================================================================
// Optional capability interfaces
// ============================================================================
// Discovered by type assertion, the same way optional capabilities work
// in the rest of the module:
//
//	if w, ok := a.(CanWatch); ok {
//	    token, err := w.Watch(ctx, "**/*.json")
//	}

// CanWatch indicates the adapter supports file change notifications.
type CanWatch interface {
	// Watch creates a change token for the given glob pattern. The token
	// signals when any matching file is created, modified, or deleted.
	Watch(ctx context.Context, pattern string) (ChangeToken, error)
}

// Closer indicates the adapter holds a backend connection that should be
// released when the adapter is discarded.
type Closer interface {
	Close() error
}

// SortNames orders directory entry names case-insensitively, falling back
// to a byte-wise comparison for names that differ only in case.
func SortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
}
