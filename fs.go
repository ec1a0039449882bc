package ustar

import (
	"errors"
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/meigma/ustar/internal/pathutil"
)

// Interface compliance.
var (
	_ fs.FS         = (*FS)(nil)
	_ fs.StatFS     = (*FS)(nil)
	_ fs.ReadFileFS = (*FS)(nil)
	_ fs.ReadDirFS  = (*FS)(nil)

	_ fs.ReadDirFile = (*openDir)(nil)
	_ io.ReaderAt    = (*openFile)(nil)
	_ io.Seeker      = (*openFile)(nil)
)

// FS presents an Archive as an fs.FS.
//
// FS always uses strict path matching so that "a" never opens "ab". Names
// follow fs.ValidPath and links are followed. Like the Archive it wraps, FS
// is not safe for concurrent use.
type FS struct {
	a *Archive
}

// NewFS returns an fs.FS view of a. The view shares a's handle.
func NewFS(a *Archive) *FS {
	view := *a
	view.strict = true
	return &FS{a: &view}
}

// Open implements fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	e, err := f.stat("open", name)
	if err != nil {
		return nil, err
	}
	if e.Kind == KindDir {
		return &openDir{fsys: f, name: name, entry: e}, nil
	}
	if e.Kind != KindFile {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return &openFile{fsys: f, name: name, entry: e}, nil
}

// Stat implements fs.StatFS.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	e, err := f.stat("stat", name)
	if err != nil {
		return nil, err
	}
	return namedInfo(name, e), nil
}

// ReadFile implements fs.ReadFileFS.
func (f *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	return f.a.ReadFile(name)
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	e, err := f.stat("readdir", name)
	if err != nil {
		return nil, err
	}
	if e.Kind != KindDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrNotDir}
	}
	return f.readDir(name)
}

func (f *FS) stat(op, name string) (Entry, error) {
	if !fs.ValidPath(name) {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return syntheticDir("."), nil
	}
	e, err := f.a.Stat(name)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			pe.Op = op
		}
		return Entry{}, err
	}
	return e, nil
}

// readDir lists a directory already known to exist, so an empty listing is
// an empty directory rather than a missing one.
func (f *FS) readDir(name string) ([]fs.DirEntry, error) {
	entries, err := f.a.ListEntries(name, 0)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	out := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, fs.FileInfoToDirEntry(e.Info()))
	}
	slices.SortFunc(out, func(x, y fs.DirEntry) int {
		return strings.Compare(x.Name(), y.Name())
	})
	return out, nil
}

// namedInfo reports e under the base name of the path it was opened by,
// which differs from the stored name when links were followed. Sys still
// returns e unchanged.
func namedInfo(name string, e Entry) fs.FileInfo {
	return entryInfo{e: e, name: pathutil.Base(name)}
}

// openFile reads a regular file lazily through ReadFileAt.
type openFile struct {
	fsys   *FS
	name   string
	entry  Entry
	off    int64
	closed bool
}

func (f *openFile) Stat() (fs.FileInfo, error) {
	return namedInfo(f.name, f.entry), nil
}

func (f *openFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, &fs.PathError{Op: "read", Path: f.name, Err: fs.ErrClosed}
	}
	n, err := f.ReadAt(p, f.off)
	f.off += int64(n)
	return n, err
}

// ReadAt implements io.ReaderAt; it returns io.EOF when fewer than len(p)
// bytes remain.
func (f *openFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, &fs.PathError{Op: "read", Path: f.name, Err: fs.ErrClosed}
	}
	if off < 0 {
		return 0, &fs.PathError{Op: "read", Path: f.name, Err: fs.ErrInvalid}
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= f.entry.Size {
		return 0, io.EOF
	}
	n, _, err := f.fsys.a.ReadFileAt(f.name, off, p)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *openFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrClosed}
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.off + offset
	case io.SeekEnd:
		abs = f.entry.Size + offset
	default:
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	if abs < 0 {
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	f.off = abs
	return abs, nil
}

func (f *openFile) Close() error {
	if f.closed {
		return &fs.PathError{Op: "close", Path: f.name, Err: fs.ErrClosed}
	}
	f.closed = true
	return nil
}

// openDir implements fs.ReadDirFile over a listing taken on first use.
type openDir struct {
	fsys    *FS
	name    string
	entry   Entry
	entries []fs.DirEntry
	loaded  bool
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return namedInfo(d.name, d.entry), nil
}

func (d *openDir) Close() error {
	d.entries = nil
	return nil
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		var err error
		d.entries, err = d.fsys.readDir(d.name)
		if err != nil {
			return nil, err
		}
		d.loaded = true
	}

	if n <= 0 {
		out := d.entries
		d.entries = nil
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(d.entries))
	out := d.entries[:n:n]
	d.entries = d.entries[n:]
	return out, nil
}
