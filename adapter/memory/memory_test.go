package memory_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filicious/filicious"
	"github.com/filicious/filicious/adapter/memory"
)

func TestAbsentPathQueries(t *testing.T) {
	ctx := context.Background()
	a := memory.New()

	// Type queries answer false for absent paths; only Stat errors.
	ok, err := a.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.IsFile(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.IsDirectory(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.IsLink(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.Stat(ctx, "nope")
	assert.True(t, filicious.IsNotExist(err))
}

func TestTypePredicatesAreExclusive(t *testing.T) {
	ctx := context.Background()
	a := memory.New()

	require.NoError(t, a.WriteFile(ctx, "f.txt", []byte("x")))
	require.NoError(t, a.CreateDir(ctx, "d", false))

	isFile, _ := a.IsFile(ctx, "f.txt")
	isDir, _ := a.IsDirectory(ctx, "f.txt")
	isLink, _ := a.IsLink(ctx, "f.txt")
	assert.True(t, isFile)
	assert.False(t, isDir)
	assert.False(t, isLink)

	isFile, _ = a.IsFile(ctx, "d")
	isDir, _ = a.IsDirectory(ctx, "d")
	assert.False(t, isFile)
	assert.True(t, isDir)
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := memory.New()

	content := []byte("hello memory")
	require.NoError(t, a.WriteFile(ctx, "deep/nested/file.txt", content))

	got, err := a.ReadFile(ctx, "deep/nested/file.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Parents are created implicitly.
	isDir, _ := a.IsDirectory(ctx, "deep/nested")
	assert.True(t, isDir)

	st, err := a.Stat(ctx, "deep/nested/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filicious.TypeFile, st.Type)
	assert.Equal(t, int64(len(content)), st.Size)
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	a := memory.New()

	for _, name := range []string{"zeta.txt", "Alpha.txt", "beta.txt", "ALPHA.txt"} {
		require.NoError(t, a.WriteFile(ctx, name, []byte("x")))
	}
	require.NoError(t, a.CreateDir(ctx, "Mixed", false))

	names, err := a.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ALPHA.txt", "Alpha.txt", "beta.txt", "Mixed", "zeta.txt"}, names)
	assert.NotContains(t, names, ".")
	assert.NotContains(t, names, "..")
}

func TestListErrors(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "f.txt", []byte("x")))

	_, err := a.List(ctx, "missing")
	assert.True(t, filicious.IsNotExist(err))

	_, err = a.List(ctx, "f.txt")
	assert.ErrorIs(t, err, filicious.ErrNotDir)
}

func TestDeleteNonRecursiveRefusesNonEmpty(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "dir/file.txt", []byte("x")))

	err := a.Delete(ctx, "dir", false)
	assert.ErrorIs(t, err, filicious.ErrNotEmpty)

	// The subtree is untouched after the refusal.
	ok, _ := a.Exists(ctx, "dir/file.txt")
	assert.True(t, ok)

	require.NoError(t, a.Delete(ctx, "dir", true))
	ok, _ = a.Exists(ctx, "dir")
	assert.False(t, ok)
}

func TestDeleteEmptyDirNonRecursive(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.CreateDir(ctx, "empty", false))
	require.NoError(t, a.Delete(ctx, "empty", false))
}

func TestUnsupportedOperations(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "f", []byte("x")))

	_, err := a.CreationTime(ctx, "f")
	assert.True(t, filicious.IsUnsupported(err))

	err = a.Chown(ctx, "f", 1000, 1000)
	assert.True(t, filicious.IsUnsupported(err))

	// Space probes answer only on a size-limited store.
	_, err = a.FreeSpace(ctx, "/")
	assert.True(t, filicious.IsUnsupported(err))
	_, err = a.TotalSpace(ctx, "/")
	assert.True(t, filicious.IsUnsupported(err))
}

func TestQuota(t *testing.T) {
	ctx := context.Background()
	a := memory.New(memory.Config{MaxSize: 10})

	require.NoError(t, a.WriteFile(ctx, "small", []byte("12345")))

	free, err := a.FreeSpace(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, int64(5), free)

	total, err := a.TotalSpace(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	err = a.WriteFile(ctx, "big", []byte("123456789AB"))
	assert.Error(t, err)

	// Replacing existing content accounts the delta, not the sum.
	require.NoError(t, a.WriteFile(ctx, "small", []byte("1234567890")))
}

func TestAppendAndTruncate(t *testing.T) {
	ctx := context.Background()
	a := memory.New()

	require.NoError(t, a.Append(ctx, "log.txt", []byte("one")))
	require.NoError(t, a.Append(ctx, "log.txt", []byte("two")))

	got, err := a.ReadFile(ctx, "log.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("onetwo"), got)

	require.NoError(t, a.Truncate(ctx, "log.txt", 3))
	got, _ = a.ReadFile(ctx, "log.txt")
	assert.Equal(t, []byte("one"), got)

	require.NoError(t, a.Truncate(ctx, "log.txt", 5))
	got, _ = a.ReadFile(ctx, "log.txt")
	assert.Equal(t, []byte{'o', 'n', 'e', 0, 0}, got)
}

func TestTouchCreatesAndSetsTimes(t *testing.T) {
	ctx := context.Background()
	a := memory.New()

	atime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mtime := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.Touch(ctx, "new.txt", atime, mtime))

	st, err := a.Stat(ctx, "new.txt")
	require.NoError(t, err)
	assert.Equal(t, filicious.TypeFile, st.Type)
	assert.True(t, st.ATime.Equal(atime))
	assert.True(t, st.MTime.Equal(mtime))
}

func TestChmodAndPermissionPredicates(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "f", []byte("x")))

	require.NoError(t, a.Chmod(ctx, "f", 0o644))
	st, err := a.Stat(ctx, "f")
	require.NoError(t, err)
	assert.True(t, st.IsReadable())
	assert.True(t, st.IsWritable())
	assert.False(t, st.IsExecutable())

	require.NoError(t, a.Chmod(ctx, "f", 0o500))
	st, _ = a.Stat(ctx, "f")
	assert.True(t, st.IsReadable())
	assert.False(t, st.IsWritable())
	assert.True(t, st.IsExecutable())
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "dir/a.txt", []byte("a")))

	handled, err := a.Rename(ctx, "dir/a.txt", "other/b.txt")
	require.NoError(t, err)
	assert.True(t, handled)

	ok, _ := a.Exists(ctx, "dir/a.txt")
	assert.False(t, ok)
	got, err := a.ReadFile(ctx, "other/b.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	// Absent source declines instead of failing.
	handled, err = a.Rename(ctx, "missing", "x")
	require.NoError(t, err)
	assert.False(t, handled)

	// A directory collision at the destination declines too.
	require.NoError(t, a.WriteFile(ctx, "src.txt", []byte("s")))
	require.NoError(t, a.CreateDir(ctx, "target", false))
	handled, err = a.Rename(ctx, "src.txt", "target")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestRenameDirectoryMovesSubtree(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "old/sub/f.txt", []byte("x")))

	handled, err := a.Rename(ctx, "old", "new")
	require.NoError(t, err)
	require.True(t, handled)

	got, err := a.ReadFile(ctx, "new/sub/f.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
	ok, _ := a.Exists(ctx, "old")
	assert.False(t, ok)
}

func TestOpenSpoolsAndWritesBack(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "f.txt", []byte("before")))

	s, err := a.Open(ctx, "f.txt")
	require.NoError(t, err)

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("before"), got)

	_, err = s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = s.Write([]byte("after!"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	got, err = a.ReadFile(ctx, "f.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("after!"), got)
}

func TestRecursiveSize(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "d/a", []byte("12345")))
	require.NoError(t, a.WriteFile(ctx, "d/sub/b", []byte("123")))
	require.NoError(t, a.WriteFile(ctx, "elsewhere", []byte("xxxx")))

	size, err := a.Size(ctx, "d", true)
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)

	// Non-recursive directory size is the raw stat size: zero.
	size, err = a.Size(ctx, "d", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestCreateFileAndCreateDir(t *testing.T) {
	ctx := context.Background()
	a := memory.New()

	require.NoError(t, a.CreateFile(ctx, "f"))
	ok, _ := a.IsFile(ctx, "f")
	assert.True(t, ok)
	got, err := a.ReadFile(ctx, "f")
	require.NoError(t, err)
	assert.Empty(t, got)

	// CreateFile truncates existing content.
	require.NoError(t, a.WriteFile(ctx, "f", []byte("payload")))
	require.NoError(t, a.CreateFile(ctx, "f"))
	got, _ = a.ReadFile(ctx, "f")
	assert.Empty(t, got)

	err = a.CreateDir(ctx, "f", false)
	assert.True(t, filicious.IsExist(err))

	err = a.CreateDir(ctx, "a/b/c", false)
	assert.True(t, filicious.IsNotExist(err))
	require.NoError(t, a.CreateDir(ctx, "a/b/c", true))

	err = a.CreateDir(ctx, "a/b/c", false)
	assert.True(t, filicious.IsExist(err))
	require.NoError(t, a.CreateDir(ctx, "a/b/c", true)) // parents mode tolerates existing dirs
}

func TestWatchSignalsOnMatchingChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := memory.New()

	token, err := a.Watch(ctx, "logs/*")
	require.NoError(t, err)
	assert.False(t, token.HasChanged())

	fired := make(chan struct{}, 1)
	token.RegisterChangeCallback(func() { fired <- struct{}{} })

	// A change outside the pattern does not fire.
	require.NoError(t, a.WriteFile(ctx, "other/x.txt", []byte("x")))
	assert.False(t, token.HasChanged())

	require.NoError(t, a.WriteFile(ctx, "logs/app.log", []byte("line")))
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("change callback did not fire")
	}
	assert.True(t, token.HasChanged())
}

func TestMIMEProbes(t *testing.T) {
	ctx := context.Background()
	a := memory.New()
	require.NoError(t, a.WriteFile(ctx, "data.json", []byte(`{"a":1}`)))

	mt, err := a.MIMEType(ctx, "data.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", mt)

	enc, err := a.MIMEEncoding(ctx, "data.json")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc)
}
