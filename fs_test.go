package ustar

import (
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/ustar/internal/testutil"
)

func newTestFS(t *testing.T, entries []testutil.Entry) (*FS, *testutil.TrackingSeeker) {
	t.Helper()
	a, rs := newTestArchive(t, entries)
	return NewFS(a), rs
}

func TestFS_Conformance(t *testing.T) {
	t.Parallel()

	fsys, _ := newTestFS(t, testutil.SampleTree())
	require.NoError(t, fstest.TestFS(fsys, "dir/a", "dir/b", "dir/c/d", "dir/e"))
}

func TestFS_StrictMatching(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, sampleWithLinks())
	fsys := NewFS(a)

	// The wrapped Archive keeps loose matching.
	ok, err := a.Exists("di")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = fsys.Stat("di")
	require.ErrorIs(t, err, fs.ErrNotExist)

	info, err := fsys.Stat("dir")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "dir", info.Name())
}

func TestFS_Stat(t *testing.T) {
	t.Parallel()

	fsys, rs := newTestFS(t, sampleWithLinks())

	tests := []struct {
		name  string
		isDir bool
		size  int64
	}{
		{".", true, 0},
		{"dir", true, 0},
		{"dir/b", false, 11},
		{"alink", false, 5},
		{"lnk", true, 0},
	}
	for _, tt := range tests {
		info, err := fsys.Stat(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.isDir, info.IsDir(), tt.name)
		assert.Equal(t, tt.size, info.Size(), tt.name)
		assert.Equal(t, int64(0), rs.Offset())
	}

	info, err := fsys.Stat("alink")
	require.NoError(t, err)
	assert.Equal(t, "alink", info.Name())
	e, ok := info.Sys().(Entry)
	require.True(t, ok)
	assert.Equal(t, "dir/a", e.Name)

	f, err := fsys.Open("alink")
	require.NoError(t, err)
	defer f.Close()
	info, err = f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "alink", info.Name())
	e, ok = info.Sys().(Entry)
	require.True(t, ok)
	assert.Equal(t, "dir/a", e.Name)
	assert.Equal(t, int64(5), e.Size)
}

func TestFS_Errors(t *testing.T) {
	t.Parallel()

	fsys, _ := newTestFS(t, sampleWithLinks())

	for _, name := range []string{"/dir", "dir/", "../dir", "dir//a", ""} {
		_, err := fsys.Open(name)
		require.ErrorIs(t, err, fs.ErrInvalid, name)
	}

	_, err := fsys.Open("missing")
	require.ErrorIs(t, err, fs.ErrNotExist)
	var pe *fs.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "open", pe.Op)

	_, err = fsys.Open("dangling")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = fsys.Open("loop1")
	require.ErrorIs(t, err, ErrLinkDepth)

	_, err = fsys.ReadDir("dir/a")
	require.ErrorIs(t, err, ErrNotDir)

	_, err = fsys.ReadFile("dir")
	require.ErrorIs(t, err, ErrNotFile)
}

func TestFS_ReadFile(t *testing.T) {
	t.Parallel()

	fsys, _ := newTestFS(t, sampleWithLinks())

	got, err := fs.ReadFile(fsys, "dir/c/d")
	require.NoError(t, err)
	assert.Equal(t, "delta", string(got))

	got, err = fsys.ReadFile("hard")
	require.NoError(t, err)
	assert.Equal(t, "bravo bravo", string(got))
}

func TestFS_ReadDir(t *testing.T) {
	t.Parallel()

	fsys, rs := newTestFS(t, sampleWithLinks())

	entries, err := fsys.ReadDir("dir")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "e"}, dirNames(entries))
	assert.True(t, entries[2].IsDir())
	assert.False(t, entries[0].IsDir())
	assert.Equal(t, int64(0), rs.Offset())

	entries, err = fsys.ReadDir("lnk")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "e"}, dirNames(entries))

	// An existing empty directory lists as empty, not missing.
	entries, err = fsys.ReadDir("empty")
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = fsys.ReadDir(".")
	require.NoError(t, err)
	names := dirNames(entries)
	assert.Contains(t, names, "dir")
	assert.Contains(t, names, "lnk")
	assert.IsIncreasing(t, names)

	for _, e := range entries {
		if e.Name() == "lnk" {
			assert.Equal(t, fs.ModeSymlink, e.Type())
		}
	}
}

func TestFS_OpenFile(t *testing.T) {
	t.Parallel()

	fsys, _ := newTestFS(t, sampleWithLinks())

	f, err := fsys.Open("dir/b")
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "brav", string(buf[:n]))

	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "o bravo", string(rest))

	ra, ok := f.(io.ReaderAt)
	require.True(t, ok)
	n, err = ra.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "brav", string(buf[:n]))

	n, err = ra.ReadAt(buf, 9)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "vo", string(buf[:n]))

	n, err = ra.ReadAt(buf, 11)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, n)

	s, ok := f.(io.Seeker)
	require.True(t, ok)
	pos, err := s.Seek(-5, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)
	rest, err = io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(rest))

	_, err = s.Seek(-1, io.SeekStart)
	require.ErrorIs(t, err, fs.ErrInvalid)
	_, err = s.Seek(0, 42)
	require.ErrorIs(t, err, fs.ErrInvalid)

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "b", info.Name())
	assert.Equal(t, int64(11), info.Size())

	require.NoError(t, f.Close())
	_, err = f.Read(buf)
	require.ErrorIs(t, err, fs.ErrClosed)
	require.ErrorIs(t, f.Close(), fs.ErrClosed)
}

func TestFS_OpenDir(t *testing.T) {
	t.Parallel()

	fsys, _ := newTestFS(t, sampleWithLinks())

	f, err := fsys.Open("dir")
	require.NoError(t, err)
	defer f.Close()

	dir, ok := f.(fs.ReadDirFile)
	require.True(t, ok)

	_, err = dir.Read(make([]byte, 1))
	require.ErrorIs(t, err, fs.ErrInvalid)

	first, err := dir.ReadDir(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, dirNames(first))

	second, err := dir.ReadDir(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, dirNames(second))

	_, err = dir.ReadDir(3)
	require.ErrorIs(t, err, io.EOF)

	all, err := dir.ReadDir(-1)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFS_OpenIrregular(t *testing.T) {
	t.Parallel()

	fsys, _ := newTestFS(t, []testutil.Entry{
		{Name: "fifo", Typeflag: '6'},
	})

	_, err := fsys.Open("fifo")
	require.ErrorIs(t, err, fs.ErrInvalid)
}

func dirNames(entries []fs.DirEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}
