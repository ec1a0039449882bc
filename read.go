package ustar

import (
	"bytes"
	_ "crypto/sha256" // register digest.SHA256
	_ "crypto/sha512" // register digest.SHA384 and digest.SHA512
	"fmt"
	"io"
	"io/fs"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/ustar/internal/block"
)

// copyChunk is the buffer size used when streaming whole files.
const copyChunk = 32 << 10

// ReadFileAt copies bytes of the regular file at path, starting at off, into p.
//
// Links are followed. It returns the number of bytes written to p and the
// number of bytes of the file remaining after them; callers read a file
// sequentially by advancing off by n until remaining is zero.
//
// A path that does not resolve to a regular file fails with ErrNotFile. An
// offset outside [0, size) fails with ErrOffsetRange and writes nothing, so
// an empty file has no valid offset. If the handle ends before the recorded
// size, ReadFileAt fails with ErrShortRead; it never retries.
func (a *Archive) ReadFileAt(path string, off int64, p []byte) (n int, remaining int64, err error) {
	err = a.scan(func(c *block.Cursor) error {
		e, err := a.resolveFile(c, path)
		if err != nil {
			return err
		}
		if off < 0 || off >= e.Size {
			return ErrOffsetRange
		}
		if err := c.Skip(off); err != nil {
			return err
		}
		want := min(int64(len(p)), e.Size-off)
		n, err = c.ReadFull(p[:want])
		if err != nil {
			return err
		}
		remaining = e.Size - off - int64(n)
		return nil
	})
	if err != nil {
		return n, 0, &fs.PathError{Op: "read", Path: path, Err: err}
	}
	return n, remaining, nil
}

// resolveFile resolves path and requires a regular file.
func (a *Archive) resolveFile(c *block.Cursor, path string) (Entry, error) {
	r, err := a.resolve(c, path)
	if err != nil {
		return Entry{}, err
	}
	if r.entry.Kind != KindFile {
		return Entry{}, ErrNotFile
	}
	return r.entry, nil
}

// copyFile streams the whole regular file at path to w in one scan.
// limit <= 0 disables the size check.
func (a *Archive) copyFile(op, path string, w io.Writer, limit int64) (int64, error) {
	var written int64
	err := a.scan(func(c *block.Cursor) error {
		e, err := a.resolveFile(c, path)
		if err != nil {
			return err
		}
		if limit > 0 && e.Size > limit {
			return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrSizeOverflow, e.Size, limit)
		}
		buf := make([]byte, min(e.Size, copyChunk))
		for written < e.Size {
			chunk := buf[:min(int64(len(buf)), e.Size-written)]
			n, err := c.ReadFull(chunk)
			if err != nil {
				return err
			}
			if _, err := w.Write(chunk[:n]); err != nil {
				return err
			}
			written += int64(n)
		}
		return nil
	})
	if err != nil {
		return written, &fs.PathError{Op: op, Path: path, Err: err}
	}
	return written, nil
}

// ReadFile returns the whole content of the regular file at path,
// following links. Files larger than the WithMaxFileSize limit fail with
// ErrSizeOverflow.
func (a *Archive) ReadFile(path string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.copyFile("readfile", path, &buf, a.maxFileSize); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StreamFile writes the regular file at path to w, following links, and
// returns the number of bytes written. Unlike ReadFile it is not subject to
// WithMaxFileSize.
func (a *Archive) StreamFile(path string, w io.Writer) (int64, error) {
	return a.copyFile("stream", path, w, 0)
}

// Digest computes the digest of the regular file at path using alg,
// following links. Use digest.Canonical for SHA-256.
func (a *Archive) Digest(path string, alg digest.Algorithm) (digest.Digest, error) {
	if !alg.Available() {
		return "", &fs.PathError{Op: "digest", Path: path, Err: digest.ErrDigestUnsupported}
	}
	digester := alg.Digester()
	if _, err := a.copyFile("digest", path, digester.Hash(), 0); err != nil {
		return "", err
	}
	return digester.Digest(), nil
}
