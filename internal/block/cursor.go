// Package block provides a sequential cursor over the 512-byte blocks of a
// ustar archive.
package block

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/ustar/internal/header"
)

// ErrShortRead is returned when the handle yields fewer bytes than a block
// or payload span requires.
var ErrShortRead = errors.New("ustar: short read")

// Cursor reads headers and payloads from an io.ReadSeeker.
//
// Cursor tracks its own offset so callers can report positions without
// issuing extra seeks. It is not safe for concurrent use.
type Cursor struct {
	rs  io.ReadSeeker
	off int64
	buf [header.BlockSize]byte
}

// New returns a Cursor over rs. The cursor assumes rs is positioned at 0;
// call Rewind to enforce that.
func New(rs io.ReadSeeker) *Cursor {
	return &Cursor{rs: rs}
}

// Offset returns the current byte offset.
func (c *Cursor) Offset() int64 {
	return c.off
}

// Rewind seeks back to offset 0.
func (c *Cursor) Rewind() error {
	if _, err := c.rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	c.off = 0
	return nil
}

// ReadBlock reads the next 512-byte block. The returned slice is reused by
// the next call. It returns io.EOF when the stream ends exactly on a block
// boundary and ErrShortRead when it ends mid-block.
func (c *Cursor) ReadBlock() ([]byte, error) {
	n, err := io.ReadFull(c.rs, c.buf[:])
	c.off += int64(n)
	switch {
	case err == nil:
		return c.buf[:], nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: header at %d: %w", ErrShortRead, c.off-int64(n), err)
	default:
		return nil, fmt.Errorf("read header at %d: %w", c.off-int64(n), err)
	}
}

// Next reads and decodes the next header. It returns header.ErrEndOfArchive
// for a sentinel block and io.EOF when the stream ends without one.
func (c *Cursor) Next() (*header.Header, error) {
	block, err := c.ReadBlock()
	if err != nil {
		return nil, err
	}
	return header.Decode(block)
}

// SkipPayload advances past size payload bytes and their padding, landing on
// the next header boundary.
func (c *Cursor) SkipPayload(size int64) error {
	return c.Skip(Align(size))
}

// Skip advances n bytes without reading them.
func (c *Cursor) Skip(n int64) error {
	if n <= 0 {
		return nil
	}
	off, err := c.rs.Seek(n, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("skip %d bytes at %d: %w", n, c.off, err)
	}
	c.off = off
	return nil
}

// ReadFull reads exactly len(p) payload bytes. Any shortfall, including one
// caused by end of stream, is reported as ErrShortRead.
func (c *Cursor) ReadFull(p []byte) (int, error) {
	n, err := io.ReadFull(c.rs, p)
	c.off += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return n, fmt.Errorf("%w: wanted %d bytes at %d, got %d: %w",
				ErrShortRead, len(p), c.off-int64(n), n, io.ErrUnexpectedEOF)
		}
		return n, fmt.Errorf("read payload at %d: %w", c.off-int64(n), err)
	}
	return n, nil
}

// Align rounds size up to a whole number of blocks.
func Align(size int64) int64 {
	if size <= 0 {
		return 0
	}
	return (size + header.BlockSize - 1) / header.BlockSize * header.BlockSize
}
