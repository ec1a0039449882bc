// Package ustar provides read-only navigation of POSIX ustar archives on a
// seekable handle, without extracting them.
//
// An [Archive] answers queries by scanning 512-byte headers from the start
// of the handle on every call; no index is kept. Every call leaves the
// handle at offset 0, so calls can be issued back to back on one handle.
// Handles are not safe for concurrent use.
//
// # Quick Start
//
// Validate an archive and read a file in chunks:
//
//	f, err := ustar.OpenFile("release.tar")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	if _, err := f.Check(); err != nil {
//	    return err
//	}
//	buf := make([]byte, 4096)
//	for off := int64(0); ; {
//	    n, remaining, err := f.ReadFileAt("etc/config.json", off, buf)
//	    if err != nil {
//	        return err
//	    }
//	    os.Stdout.Write(buf[:n])
//	    if remaining == 0 {
//	        break
//	    }
//	    off += int64(n)
//	}
//
// # Path matching
//
// By default a query matches the first entry whose stored name begins with
// the query bytes: "dir" matches "dir/" and also "dir2/x". Use
// [WithStrictPaths] to require the match to end at a path boundary. [NewFS]
// always matches strictly.
//
// # Links
//
// Symbolic and hard links are followed by [Archive.Stat], [Archive.List]
// and the read methods, up to [WithMaxLinkHops] hops (default 40); a cycle
// fails with [ErrLinkDepth].
//
// # Remote archives
//
// Any io.ReaderAt with a known size can be navigated with [NewReaderAt],
// including the HTTP range-request source in the http subpackage:
//
//	src, err := http.NewSource("https://example.com/image.tar")
//	if err != nil {
//	    return err
//	}
//	a := ustar.NewReaderAt(src, src.Size())
package ustar
