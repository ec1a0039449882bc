package ustar

import (
	"io/fs"
	"time"

	"github.com/meigma/ustar/internal/header"
	"github.com/meigma/ustar/internal/pathutil"
)

// Kind classifies an archive entry by its typeflag.
type Kind uint8

// Entry kinds.
const (
	KindOther Kind = iota
	KindFile
	KindDir
	KindSymlink
	KindHardLink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	case KindHardLink:
		return "hardlink"
	default:
		return "other"
	}
}

// Entry describes one archive member.
type Entry struct {
	// Name is the stored path. Directory names conventionally end in "/".
	Name string

	// Linkname is the link target for symbolic and hard links.
	Linkname string

	Kind Kind

	// Size is the payload size in bytes; zero for anything but regular files.
	Size int64

	// Mode holds the permission bits from the header.
	Mode fs.FileMode

	UID     int
	GID     int
	ModTime time.Time

	// Offset is the byte offset of the entry's header block. Synthetic
	// directory entries (directories implied only by descendant paths) have
	// Offset -1.
	Offset int64
}

func kindOf(h *header.Header) Kind {
	switch {
	case h.IsRegular():
		return KindFile
	case h.IsDir():
		return KindDir
	case h.Typeflag == header.TypeSymlink:
		return KindSymlink
	case h.Typeflag == header.TypeLink:
		return KindHardLink
	default:
		return KindOther
	}
}

func entryFromHeader(h *header.Header, off int64) Entry {
	var size int64
	if h.IsRegular() {
		size = h.Size
	}
	return Entry{
		Name:     h.Name,
		Linkname: h.Linkname,
		Kind:     kindOf(h),
		Size:     size,
		Mode:     fs.FileMode(h.Mode) & fs.ModePerm, //nolint:gosec // masked to permission bits
		UID:      h.UID,
		GID:      h.GID,
		ModTime:  h.ModTime,
		Offset:   off,
	}
}

// syntheticDir returns an entry for a directory implied by descendant paths.
func syntheticDir(name string) Entry {
	return Entry{
		Name:   pathutil.DirPrefix(name),
		Kind:   KindDir,
		Mode:   0o755,
		Offset: -1,
	}
}

// Info returns the entry as an fs.FileInfo. Sys returns the Entry.
func (e Entry) Info() fs.FileInfo {
	return entryInfo{e: e}
}

type entryInfo struct {
	e Entry
	// name overrides the base of e.Name when set.
	name string
}

func (i entryInfo) Name() string {
	if i.name != "" {
		return i.name
	}
	return pathutil.Base(i.e.Name)
}

func (i entryInfo) Size() int64        { return i.e.Size }
func (i entryInfo) ModTime() time.Time { return i.e.ModTime }
func (i entryInfo) IsDir() bool        { return i.e.Kind == KindDir }
func (i entryInfo) Sys() any           { return i.e }

func (i entryInfo) Mode() fs.FileMode {
	switch i.e.Kind {
	case KindDir:
		return i.e.Mode | fs.ModeDir
	case KindSymlink:
		return i.e.Mode | fs.ModeSymlink
	case KindOther:
		return i.e.Mode | fs.ModeIrregular
	default:
		return i.e.Mode
	}
}
