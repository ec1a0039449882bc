package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"testing"
	"time"
)

// fixedModTime keeps fixtures byte-for-byte reproducible.
var fixedModTime = time.Unix(1700000000, 0)

// Entry describes one member of a fixture archive.
type Entry struct {
	Name     string
	Typeflag byte
	Linkname string
	Body     []byte
	Mode     int64
}

// File returns a regular file entry.
func File(name, body string) Entry {
	return Entry{Name: name, Typeflag: tar.TypeReg, Body: []byte(body), Mode: 0o644}
}

// Dir returns a directory entry. name should end in "/".
func Dir(name string) Entry {
	return Entry{Name: name, Typeflag: tar.TypeDir, Mode: 0o755}
}

// Symlink returns a symbolic link entry pointing at target.
func Symlink(name, target string) Entry {
	return Entry{Name: name, Typeflag: tar.TypeSymlink, Linkname: target, Mode: 0o777}
}

// HardLink returns a hard link entry pointing at target.
func HardLink(name, target string) Entry {
	return Entry{Name: name, Typeflag: tar.TypeLink, Linkname: target, Mode: 0o644}
}

// BuildArchive writes entries as a ustar archive terminated by two zero blocks.
func BuildArchive(tb testing.TB, entries ...Entry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.Name,
			Typeflag: e.Typeflag,
			Linkname: e.Linkname,
			Mode:     e.Mode,
			Size:     int64(len(e.Body)),
			ModTime:  fixedModTime,
			Format:   tar.FormatUSTAR,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			tb.Fatalf("write header %s: %v", e.Name, err)
		}
		if len(e.Body) > 0 {
			if _, err := tw.Write(e.Body); err != nil {
				tb.Fatalf("write body %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		tb.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

// SampleTree is the canonical directory fixture:
//
//	dir/
//	 ├── a
//	 ├── b
//	 ├── c/
//	 │   └── d
//	 └── e/
func SampleTree() []Entry {
	return []Entry{
		Dir("dir/"),
		File("dir/a", "alpha"),
		File("dir/b", "bravo bravo"),
		Dir("dir/c/"),
		File("dir/c/d", "delta"),
		Dir("dir/e/"),
	}
}

// HeaderOffset returns the byte offset of the index-th header in a
// well-formed archive.
func HeaderOffset(tb testing.TB, data []byte, index int) int {
	tb.Helper()

	off := 0
	for i := 0; ; i++ {
		if off+512 > len(data) || data[off] == 0 {
			tb.Fatalf("archive has no header %d", index)
		}
		if i == index {
			return off
		}
		size := parseSize(tb, data[off+124:off+136])
		if t := data[off+156]; t != tar.TypeReg && t != 0 {
			size = 0
		}
		off += 512 + int((size+511)/512)*512
	}
}

// Patch overwrites data at off with b and returns data.
func Patch(data []byte, off int, b []byte) []byte {
	copy(data[off:], b)
	return data
}

// Reseal recomputes the checksum of the header at off after a patch.
func Reseal(data []byte, off int) []byte {
	block := data[off : off+512]
	copy(block[148:156], "        ")
	var sum int64
	for _, c := range block {
		sum += int64(c)
	}
	copy(block[148:156], fmt.Sprintf("%06o\x00 ", sum))
	return data
}

func parseSize(tb testing.TB, field []byte) int64 {
	tb.Helper()

	var v int64
	for _, c := range field {
		switch {
		case c >= '0' && c <= '7':
			v = v<<3 | int64(c-'0')
		case c == 0 || c == ' ':
		default:
			tb.Fatalf("bad size field %q", field)
		}
	}
	return v
}
