package ustar

import (
	"errors"
	"io"
	"log/slog"

	"github.com/meigma/ustar/internal/block"
	"github.com/meigma/ustar/internal/header"
)

// Archive provides read-only access to a ustar archive on a seekable handle.
//
// Every method scans from offset 0 and leaves the handle at offset 0 when it
// returns, on success or failure, so calls compose without manual resets.
// An Archive holds no state besides the handle and is not safe for
// concurrent use; give each goroutine its own handle.
type Archive struct {
	rs          io.ReadSeeker
	maxHops     int
	strict      bool
	maxFileSize int64
	spoolDir    string
	logger      *slog.Logger
}

// New creates an Archive reading from rs.
func New(rs io.ReadSeeker, opts ...Option) *Archive {
	a := &Archive{
		rs:          rs,
		maxHops:     DefaultMaxLinkHops,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewReaderAt creates an Archive over the first size bytes of r.
// This is how remote sources such as the http package are navigated.
func NewReaderAt(r io.ReaderAt, size int64, opts ...Option) *Archive {
	return New(io.NewSectionReader(r, 0, size), opts...)
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// scan runs fn with a cursor positioned at offset 0 and rewinds the handle
// again on every exit path.
func (a *Archive) scan(fn func(c *block.Cursor) error) (err error) {
	c := block.New(a.rs)
	if err := c.Rewind(); err != nil {
		return err
	}
	defer func() {
		if rerr := c.Rewind(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	return fn(c)
}

// visitFunc is called for each header with the cursor at the start of the
// header's payload. Returning stop ends the walk; a visitor that consumes
// payload bytes must stop.
type visitFunc func(h *header.Header, off int64) (stop bool, err error)

// walk visits every header from offset 0 until a sentinel block or the end
// of the stream. Invalid headers are reported as *HeaderError.
func walk(c *block.Cursor, visit visitFunc) error {
	if err := c.Rewind(); err != nil {
		return err
	}
	for index := 0; ; index++ {
		off := c.Offset()
		h, err := c.Next()
		switch {
		case errors.Is(err, header.ErrEndOfArchive), errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, header.ErrBadMagic), errors.Is(err, header.ErrBadVersion),
			errors.Is(err, header.ErrBadChecksum), errors.Is(err, header.ErrBadOctal):
			return &HeaderError{Index: index, Offset: off, Err: err}
		case err != nil:
			return err
		}

		stop, err := visit(h, off)
		if err != nil || stop {
			return err
		}
		if err := c.SkipPayload(h.PayloadSize()); err != nil {
			return err
		}
	}
}

// Check validates every header and returns the number of non-sentinel
// headers.
//
// Each header must carry the "ustar\x00" magic, the "00" version and a
// correct checksum. On the first invalid header Check stops and returns the
// count of valid headers before it together with a *HeaderError; use Code
// for the classic numeric status.
func (a *Archive) Check() (int, error) {
	count := 0
	err := a.scan(func(c *block.Cursor) error {
		return walk(c, func(*header.Header, int64) (bool, error) {
			count++
			return false, nil
		})
	})
	if err != nil {
		a.log().Debug("archive check failed", "valid", count, "error", err)
		return count, err
	}
	a.log().Debug("archive check passed", "headers", count)
	return count, nil
}

// Entries returns every entry in archive order.
func (a *Archive) Entries() ([]Entry, error) {
	var entries []Entry
	err := a.scan(func(c *block.Cursor) error {
		return walk(c, func(h *header.Header, off int64) (bool, error) {
			entries = append(entries, entryFromHeader(h, off))
			return false, nil
		})
	})
	if err != nil {
		return entries, err
	}
	return entries, nil
}
