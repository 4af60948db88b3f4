package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filicious/filicious"
	"github.com/filicious/filicious/adapter/local"
)

func newAdapter(t *testing.T) (*local.Adapter, string) {
	t.Helper()
	dir := t.TempDir()
	a := local.New(dir)
	t.Cleanup(func() { a.Close() })
	return a, dir
}

func TestConnectsLazily(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	assert.Equal(t, filicious.StateDisconnected, a.ConnState())

	require.NoError(t, a.WriteFile(ctx, "f.txt", []byte("x")))
	assert.Equal(t, filicious.StateConnected, a.ConnState())
}

func TestSetBasePathIdentity(t *testing.T) {
	ctx := context.Background()
	a, dir := newAdapter(t)
	other := t.TempDir()

	require.NoError(t, a.WriteFile(ctx, "f.txt", []byte("in first root")))
	require.Equal(t, filicious.StateConnected, a.ConnState())

	// Resetting to the same root keeps the resolved connection.
	a.SetBasePath(dir)
	assert.Equal(t, filicious.StateConnected, a.ConnState())

	// A different root drops it; the next operation reconnects there.
	a.SetBasePath(other)
	assert.Equal(t, filicious.StateDisconnected, a.ConnState())

	ok, err := a.Exists(ctx, "f.txt")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, filicious.StateConnected, a.ConnState())

	require.NoError(t, a.WriteFile(ctx, "g.txt", []byte("in second root")))
	_, err = os.Stat(filepath.Join(other, "g.txt"))
	assert.NoError(t, err)
}

func TestWriteReadRoundTripOnDisk(t *testing.T) {
	ctx := context.Background()
	a, dir := newAdapter(t)

	content := []byte("hello disk")
	require.NoError(t, a.WriteFile(ctx, "sub/dir/file.txt", content))

	got, err := a.ReadFile(ctx, "sub/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// The file really lives under the base path.
	raw, err := os.ReadFile(filepath.Join(dir, "sub", "dir", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, raw)
}

func TestPathsStayInsideBase(t *testing.T) {
	ctx := context.Background()
	a, dir := newAdapter(t)

	require.NoError(t, a.WriteFile(ctx, "../../escape.txt", []byte("x")))

	// The traversal collapses onto the root instead of leaving it.
	_, err := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "..", "..", "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestStatAndChmod(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "f", []byte("12345")))

	require.NoError(t, a.Chmod(ctx, "f", 0o644))
	st, err := a.Stat(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, filicious.TypeFile, st.Type)
	assert.Equal(t, int64(5), st.Size)
	assert.True(t, st.IsReadable())
	assert.True(t, st.IsWritable())
	assert.False(t, st.IsExecutable())

	require.NoError(t, a.Chmod(ctx, "f", 0o755))
	st, err = a.Stat(ctx, "f")
	require.NoError(t, err)
	assert.True(t, st.IsExecutable())
}

func TestAbsentPaths(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	ok, err := a.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.IsFile(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.Stat(ctx, "missing")
	assert.True(t, filicious.IsNotExist(err))

	_, err = a.ReadFile(ctx, "missing")
	assert.True(t, filicious.IsNotExist(err))
}

func TestListOrdered(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	for _, name := range []string{"zeta", "Alpha", "beta"} {
		require.NoError(t, a.WriteFile(ctx, name, []byte("x")))
	}
	require.NoError(t, a.CreateDir(ctx, "dir", false))

	names, err := a.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "beta", "dir", "zeta"}, names)
}

func TestDeleteNonRecursive(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "dir/f", []byte("x")))

	err := a.Delete(ctx, "dir", false)
	assert.ErrorIs(t, err, filicious.ErrNotEmpty)

	require.NoError(t, a.Delete(ctx, "dir", true))
	ok, _ := a.Exists(ctx, "dir")
	assert.False(t, ok)

	err = a.Delete(ctx, "dir", true)
	assert.True(t, filicious.IsNotExist(err))
}

func TestRenameNative(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "a.txt", []byte("a")))

	handled, err := a.Rename(ctx, "a.txt", "moved/b.txt")
	require.NoError(t, err)
	assert.True(t, handled)

	got, err := a.ReadFile(ctx, "moved/b.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	handled, err = a.Rename(ctx, "missing", "x")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestIsLink(t *testing.T) {
	ctx := context.Background()
	a, dir := newAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "target", []byte("x")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "target"), filepath.Join(dir, "link")))

	isLink, err := a.IsLink(ctx, "link")
	require.NoError(t, err)
	assert.True(t, isLink)

	isLink, err = a.IsLink(ctx, "target")
	require.NoError(t, err)
	assert.False(t, isLink)
}

func TestRecursiveSizeOnDisk(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "d/a", []byte("12345")))
	require.NoError(t, a.WriteFile(ctx, "d/sub/b", []byte("123")))

	size, err := a.Size(ctx, "d", true)
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
}

func TestTouch(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	mtime := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, a.Touch(ctx, "new.txt", mtime, mtime))

	st, err := a.Stat(ctx, "new.txt")
	require.NoError(t, err)
	assert.Equal(t, filicious.TypeFile, st.Type)
	assert.True(t, st.MTime.Equal(mtime), "mtime = %v", st.MTime)
}

func TestAppendAndTruncateOnDisk(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	require.NoError(t, a.Append(ctx, "log", []byte("one")))
	require.NoError(t, a.Append(ctx, "log", []byte("two")))
	got, err := a.ReadFile(ctx, "log")
	require.NoError(t, err)
	assert.Equal(t, []byte("onetwo"), got)

	require.NoError(t, a.Truncate(ctx, "log", 3))
	got, _ = a.ReadFile(ctx, "log")
	assert.Equal(t, []byte("one"), got)
}

func TestOpenStreams(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "f", []byte("stream me")))

	s, err := a.Open(ctx, "f")
	require.NoError(t, err)

	buf := make([]byte, 6)
	_, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("stream"), buf)
	require.NoError(t, s.Close())
}

func TestMIMEProbesOnDisk(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "doc.json", []byte(`{"k":1}`)))

	mt, err := a.MIMEType(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", mt)

	enc, err := a.MIMEEncoding(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc)
}

func TestSpaceProbes(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	free, err := a.FreeSpace(ctx, "/")
	if filicious.IsUnsupported(err) {
		t.Skip("space probes unsupported on this platform")
	}
	require.NoError(t, err)
	assert.Greater(t, free, int64(0))

	total, err := a.TotalSpace(ctx, "/")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, free)
}

func TestCreateDirSemantics(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	err := a.CreateDir(ctx, "a/b/c", false)
	assert.True(t, filicious.IsNotExist(err))
	require.NoError(t, a.CreateDir(ctx, "a/b/c", true))

	require.NoError(t, a.WriteFile(ctx, "file", []byte("x")))
	err = a.CreateDir(ctx, "file", true)
	assert.True(t, filicious.IsExist(err))
}

func TestCloseLeavesAdapterReusable(t *testing.T) {
	ctx := context.Background()
	a, _ := newAdapter(t)

	require.NoError(t, a.WriteFile(ctx, "f", []byte("x")))
	require.NoError(t, a.Close())
	assert.Equal(t, filicious.StateDisconnected, a.ConnState())

	// The next operation reconnects.
	got, err := a.ReadFile(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}
