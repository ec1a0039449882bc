package ustar

import (
	"io/fs"
	"strings"

	"github.com/meigma/ustar/internal/block"
	"github.com/meigma/ustar/internal/header"
	"github.com/meigma/ustar/internal/pathutil"
)

// resolved is the terminal entry reached from a query path.
type resolved struct {
	entry Entry
	// target is the last path queried: the caller's path when no link was
	// followed, otherwise the final link target.
	target string
	hops   int
}

// matches reports whether a stored name answers a query for target.
func (a *Archive) matches(target, name string) bool {
	return pathutil.IsPrefixOf(target, name, a.strict)
}

// lookup scans from offset 0 and returns the first header matching target.
// The cursor is left at the start of the matched header's payload.
func (a *Archive) lookup(c *block.Cursor, target string) (*header.Header, int64, error) {
	var (
		found *header.Header
		at    int64
	)
	err := walk(c, func(h *header.Header, off int64) (bool, error) {
		if !a.matches(target, h.Name) {
			return false, nil
		}
		found, at = h, off
		return true, nil
	})
	if err != nil {
		return nil, 0, err
	}
	if found == nil {
		return nil, 0, fs.ErrNotExist
	}
	return found, at, nil
}

// implicitDir reports whether a header matched for target is a strict
// descendant of target rather than target itself, meaning target is a
// directory known only through the paths below it.
func implicitDir(target, name string) bool {
	if pathutil.IsRoot(target) || pathutil.SameEntry(target, name) {
		return false
	}
	return strings.HasPrefix(name, pathutil.DirPrefix(target))
}

// classify turns the header matched for target into an Entry.
func classify(target string, h *header.Header, off int64) Entry {
	if implicitDir(target, h.Name) {
		return syntheticDir(target)
	}
	return entryFromHeader(h, off)
}

// resolve finds the entry for path, following symbolic and hard links until
// a non-link entry is reached. On success the cursor is at the start of the
// terminal entry's payload.
func (a *Archive) resolve(c *block.Cursor, path string) (*resolved, error) {
	target := path
	for hops := 0; ; hops++ {
		h, off, err := a.lookup(c, target)
		if err != nil {
			return nil, err
		}
		e := classify(target, h, off)
		if e.Kind != KindSymlink && e.Kind != KindHardLink {
			return &resolved{entry: e, target: target, hops: hops}, nil
		}
		if hops >= a.maxHops {
			a.log().Debug("link hop limit reached", "path", path, "at", h.Name, "limit", a.maxHops)
			return nil, ErrLinkDepth
		}
		a.log().Debug("following link", "from", h.Name, "to", h.Linkname, "hop", hops+1)
		target = h.Linkname
	}
}

// first returns the first header matching path without following links.
func (a *Archive) first(op, path string) (*header.Header, int64, error) {
	var (
		h   *header.Header
		off int64
	)
	err := a.scan(func(c *block.Cursor) error {
		var err error
		h, off, err = a.lookup(c, path)
		return err
	})
	if err != nil {
		return nil, 0, &fs.PathError{Op: op, Path: path, Err: err}
	}
	return h, off, nil
}

// probe runs a typed query. Not-found is a false result, not an error.
func (a *Archive) probe(op, path string, want func(*header.Header) bool) (bool, error) {
	h, _, err := a.first(op, path)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return want(h), nil
}

func isNotExist(err error) bool {
	pe, ok := err.(*fs.PathError) //nolint:errorlint // first only returns *fs.PathError directly
	return ok && pe.Err == fs.ErrNotExist //nolint:errorlint // exact sentinel from lookup
}

// Exists reports whether any entry's stored name begins with path.
//
// The match is a raw prefix test unless WithStrictPaths is set, so a query
// for "dir" also succeeds when only "dir2/x" is stored.
func (a *Archive) Exists(path string) (bool, error) {
	return a.probe("exists", path, func(*header.Header) bool { return true })
}

// IsDir reports whether the first entry matching path is a directory.
// Links are not followed.
func (a *Archive) IsDir(path string) (bool, error) {
	return a.probe("isdir", path, (*header.Header).IsDir)
}

// IsFile reports whether the first entry matching path is a regular file.
// Links are not followed.
func (a *Archive) IsFile(path string) (bool, error) {
	return a.probe("isfile", path, (*header.Header).IsRegular)
}

// IsSymlink reports whether the first entry matching path is a symbolic link.
func (a *Archive) IsSymlink(path string) (bool, error) {
	return a.probe("issymlink", path, func(h *header.Header) bool {
		return h.Typeflag == header.TypeSymlink
	})
}

// Stat returns the entry path resolves to, following links.
//
// A path known only through its descendants (no explicit directory header
// precedes them) yields a synthetic directory entry.
func (a *Archive) Stat(path string) (Entry, error) {
	var e Entry
	err := a.scan(func(c *block.Cursor) error {
		r, err := a.resolve(c, path)
		if err != nil {
			return err
		}
		e = r.entry
		return nil
	})
	if err != nil {
		return Entry{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return e, nil
}

// Lstat returns the first entry matching path without following links.
func (a *Archive) Lstat(path string) (Entry, error) {
	h, off, err := a.first("lstat", path)
	if err != nil {
		return Entry{}, err
	}
	return classify(path, h, off), nil
}
