package ustar

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/ustar/internal/testutil"
)

func TestExists(t *testing.T) {
	t.Parallel()

	a, rs := newTestArchive(t, sampleWithLinks())

	tests := []struct {
		path string
		want bool
	}{
		{"dir/", true},
		{"dir", true},
		{"dir/a", true},
		{"dir/c/d", true},
		{"lnk", true},
		{"di", true},     // raw prefix of "dir/"
		{"dir2", true},   // stored "dir2/x"
		{"dir/c/", true}, // explicit directory
		{"nope", false},
		{"dir/z", false},
		{"dir/a/b", false},
	}
	for _, tt := range tests {
		got, err := a.Exists(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Exists(%q)", tt.path)
		assert.Equal(t, int64(0), rs.Offset(), "cursor after Exists(%q)", tt.path)
	}
}

func TestExists_OverMatchesSiblingPrefix(t *testing.T) {
	t.Parallel()

	// Only "dir2/x" is stored; a query for "dir" still matches it.
	a, _ := newTestArchive(t, []testutil.Entry{testutil.File("dir2/x", "x")})
	got, err := a.Exists("dir")
	require.NoError(t, err)
	assert.True(t, got)

	strict, _ := newTestArchive(t, []testutil.Entry{testutil.File("dir2/x", "x")}, WithStrictPaths(true))
	got, err = strict.Exists("dir")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestTypedQueries(t *testing.T) {
	t.Parallel()

	a, rs := newTestArchive(t, sampleWithLinks())

	tests := []struct {
		path      string
		isDir     bool
		isFile    bool
		isSymlink bool
	}{
		{"dir/", true, false, false},
		{"dir/a", false, true, false},
		{"dir/c/", true, false, false},
		{"lnk", false, false, true},
		{"chain", false, false, true},
		{"hard", false, false, false},
		{"empty/", true, false, false},
		{"missing", false, false, false},
	}
	for _, tt := range tests {
		isDir, err := a.IsDir(tt.path)
		require.NoError(t, err)
		isFile, err := a.IsFile(tt.path)
		require.NoError(t, err)
		isSymlink, err := a.IsSymlink(tt.path)
		require.NoError(t, err)

		assert.Equal(t, tt.isDir, isDir, "IsDir(%q)", tt.path)
		assert.Equal(t, tt.isFile, isFile, "IsFile(%q)", tt.path)
		assert.Equal(t, tt.isSymlink, isSymlink, "IsSymlink(%q)", tt.path)
		assert.Equal(t, int64(0), rs.Offset())
	}
}

func TestTypedQueries_FirstMatchWins(t *testing.T) {
	t.Parallel()

	// "dir/a" is a raw prefix of "dir/ab", which comes first.
	a, _ := newTestArchive(t, []testutil.Entry{
		testutil.Dir("dir/ab/"),
		testutil.File("dir/a", "x"),
	})
	isFile, err := a.IsFile("dir/a")
	require.NoError(t, err)
	assert.False(t, isFile)

	strict, _ := newTestArchive(t, []testutil.Entry{
		testutil.Dir("dir/ab/"),
		testutil.File("dir/a", "x"),
	}, WithStrictPaths(true))
	isFile, err = strict.IsFile("dir/a")
	require.NoError(t, err)
	assert.True(t, isFile)
}

func TestTypedQueries_CorruptArchive(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, testutil.File("a", "x"), testutil.File("b", "y"))
	testutil.Patch(data, testutil.HeaderOffset(t, data, 1), []byte("c"))

	a := New(bytes.NewReader(data))
	_, err := a.Exists("b")
	require.ErrorIs(t, err, ErrBadChecksum)

	// The first header is still readable.
	ok, err := a.IsFile("a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStat(t *testing.T) {
	t.Parallel()

	a, rs := newTestArchive(t, sampleWithLinks())

	tests := []struct {
		path     string
		wantName string
		wantKind Kind
		wantSize int64
	}{
		{"dir/a", "dir/a", KindFile, 5},
		{"dir/", "dir/", KindDir, 0},
		{"lnk", "dir/", KindDir, 0},
		{"lnk-noslash", "dir/", KindDir, 0},
		{"alink", "dir/a", KindFile, 5},
		{"chain", "dir/a", KindFile, 5},
		{"hard", "dir/b", KindFile, 11},
	}
	for _, tt := range tests {
		e, err := a.Stat(tt.path)
		require.NoError(t, err, "Stat(%q)", tt.path)
		assert.Equal(t, tt.wantName, e.Name, "Stat(%q)", tt.path)
		assert.Equal(t, tt.wantKind, e.Kind, "Stat(%q)", tt.path)
		assert.Equal(t, tt.wantSize, e.Size, "Stat(%q)", tt.path)
		assert.Equal(t, int64(0), rs.Offset())
	}
}

func TestStat_Errors(t *testing.T) {
	t.Parallel()

	a, rs := newTestArchive(t, sampleWithLinks())

	_, err := a.Stat("missing")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = a.Stat("dangling")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = a.Stat("loop1")
	require.ErrorIs(t, err, ErrLinkDepth)
	var pe *fs.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "stat", pe.Op)
	assert.Equal(t, "loop1", pe.Path)
	assert.Equal(t, int64(0), rs.Offset())
}

func TestStat_SelfLink(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, []testutil.Entry{testutil.Symlink("self", "self")})
	_, err := a.Stat("self")
	require.ErrorIs(t, err, ErrLinkDepth)
}

func TestStat_MaxLinkHops(t *testing.T) {
	t.Parallel()

	entries := sampleWithLinks()

	// chain -> alink -> dir/a takes two hops.
	two, _ := newTestArchive(t, entries, WithMaxLinkHops(2))
	_, err := two.Stat("chain")
	require.NoError(t, err)

	one, _ := newTestArchive(t, entries, WithMaxLinkHops(1))
	_, err = one.Stat("chain")
	require.ErrorIs(t, err, ErrLinkDepth)

	none, _ := newTestArchive(t, entries, WithMaxLinkHops(-5))
	_, err = none.Stat("alink")
	require.ErrorIs(t, err, ErrLinkDepth)
}

func TestStat_ImplicitDirectory(t *testing.T) {
	t.Parallel()

	// No "pkg/" header: the directory exists only through its contents.
	a, _ := newTestArchive(t, []testutil.Entry{
		testutil.File("pkg/lib/a.go", "package lib"),
		testutil.File("pkg/main.go", "package main"),
	})

	e, err := a.Stat("pkg")
	require.NoError(t, err)
	assert.Equal(t, "pkg/", e.Name)
	assert.Equal(t, KindDir, e.Kind)
	assert.Equal(t, int64(-1), e.Offset)

	e, err = a.Stat("pkg/lib/")
	require.NoError(t, err)
	assert.Equal(t, KindDir, e.Kind)
}

func TestLstat(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, sampleWithLinks())

	e, err := a.Lstat("chain")
	require.NoError(t, err)
	assert.Equal(t, KindSymlink, e.Kind)
	assert.Equal(t, "alink", e.Linkname)

	e, err = a.Lstat("hard")
	require.NoError(t, err)
	assert.Equal(t, KindHardLink, e.Kind)

	_, err = a.Lstat("missing")
	require.ErrorIs(t, err, fs.ErrNotExist)
}
