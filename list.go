package ustar

import (
	"io/fs"
	"strings"

	"github.com/meigma/ustar/internal/block"
	"github.com/meigma/ustar/internal/header"
	"github.com/meigma/ustar/internal/pathutil"
)

// List returns the stored names of the direct children of the directory at
// path. See ListEntries for the matching and capacity rules.
func (a *Archive) List(path string, capacity int) ([]string, error) {
	entries, err := a.ListEntries(path, capacity)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, err
}

// ListEntries returns the direct children of the directory at path, in
// archive order.
//
// path is resolved first (repeated trailing slashes collapsed to one),
// following links; listing then proceeds against the resolved path with
// exactly one trailing "/". A child is an entry whose
// name, with that prefix removed, is non-empty and contains no "/" other
// than an optional final one, so "dir/c/" is listed but "dir/c/d" is not.
// "", "." and "/" list the archive root.
//
// If capacity > 0 and more than capacity children exist, the scan stops and
// the first capacity entries are returned with ErrTruncated; retry with a
// larger capacity. capacity <= 0 means no limit.
//
// A path that resolves to a non-directory fails with ErrNotDir. A missing
// directory and an empty one both fail with fs.ErrNotExist.
func (a *Archive) ListEntries(path string, capacity int) ([]Entry, error) {
	var entries []Entry
	err := a.scan(func(c *block.Cursor) error {
		prefix := ""
		if !pathutil.IsRoot(path) {
			target := path
			if strings.HasSuffix(target, "/") {
				target = pathutil.DirPrefix(target)
			}
			r, err := a.resolve(c, target)
			if err != nil {
				return err
			}
			if r.entry.Kind != KindDir {
				return ErrNotDir
			}
			prefix = pathutil.DirPrefix(r.target)
			if r.hops > 0 {
				a.log().Debug("listing through link", "path", path, "resolved", prefix, "hops", r.hops)
			}
		}

		return walk(c, func(h *header.Header, off int64) (bool, error) {
			if !strings.HasPrefix(h.Name, prefix) {
				return false, nil
			}
			if _, ok := pathutil.Child(h.Name, prefix); !ok {
				return false, nil
			}
			if capacity > 0 && len(entries) == capacity {
				a.log().Debug("listing truncated", "path", path, "capacity", capacity)
				return true, ErrTruncated
			}
			entries = append(entries, entryFromHeader(h, off))
			return false, nil
		})
	})
	if err == nil && len(entries) == 0 {
		err = fs.ErrNotExist
	}
	if err != nil {
		return entries, &fs.PathError{Op: "list", Path: path, Err: err}
	}
	return entries, nil
}
