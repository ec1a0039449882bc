package ustar

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/meigma/ustar/internal/block"
	"github.com/meigma/ustar/internal/header"
	"github.com/meigma/ustar/internal/spool"
)

// Format errors re-exported from internal/header.
var (
	// ErrBadMagic is returned when a header's magic field is not "ustar\x00".
	ErrBadMagic = header.ErrBadMagic

	// ErrBadVersion is returned when a header's version field is not "00".
	ErrBadVersion = header.ErrBadVersion

	// ErrBadChecksum is returned when a header's checksum does not match its bytes.
	ErrBadChecksum = header.ErrBadChecksum

	// ErrBadOctal is returned when a numeric header field is not octal ASCII.
	ErrBadOctal = header.ErrBadOctal
)

// ErrShortRead is returned when the handle ends inside a header or payload.
var ErrShortRead = block.ErrShortRead

// ErrDecompression is returned by OpenFile when a compressed archive cannot be decoded.
var ErrDecompression = spool.ErrDecompression

// Sentinel errors specific to archive navigation.
var (
	// ErrNotDir is returned when a listed path resolves to a non-directory.
	// It matches fs.ErrNotExist.
	ErrNotDir error = &notFoundError{msg: "ustar: not a directory"}

	// ErrNotFile is returned when a read path resolves to a non-regular file.
	// It matches fs.ErrNotExist.
	ErrNotFile error = &notFoundError{msg: "ustar: not a regular file"}

	// ErrOffsetRange is returned when a read offset is at or past the file size.
	ErrOffsetRange = errors.New("ustar: offset out of range")

	// ErrLinkDepth is returned when link resolution exceeds the hop limit,
	// which is how link cycles surface.
	ErrLinkDepth = errors.New("ustar: too many levels of links")

	// ErrTruncated is returned by List when more children exist than the
	// requested capacity. The entries found before truncation are returned.
	ErrTruncated = errors.New("ustar: listing truncated")

	// ErrSizeOverflow is returned when a file exceeds the configured size limit.
	ErrSizeOverflow = errors.New("ustar: size overflow")
)

// notFoundError is a not-found variant that still satisfies
// errors.Is(err, fs.ErrNotExist).
type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == fs.ErrNotExist }

// HeaderError reports an invalid header found while scanning.
type HeaderError struct {
	// Index is the zero-based position of the header among non-sentinel headers.
	Index int
	// Offset is the byte offset of the header block.
	Offset int64
	Err    error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("ustar: header %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *HeaderError) Unwrap() error { return e.Err }

// Numeric status codes, compatible with the classic C interface.
const (
	CodeOK        = 0
	CodeMagic     = -1
	CodeVersion   = -2
	CodeChecksum  = -3
	CodeMalformed = -4
	CodeIO        = -5
)

// Code maps an error from Check to its numeric status code.
func Code(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrBadMagic):
		return CodeMagic
	case errors.Is(err, ErrBadVersion):
		return CodeVersion
	case errors.Is(err, ErrBadChecksum):
		return CodeChecksum
	case errors.Is(err, ErrBadOctal):
		return CodeMalformed
	default:
		return CodeIO
	}
}
