// Package header decodes and validates 512-byte ustar header blocks.
package header

import (
	"errors"
	"fmt"
	"time"
)

// BlockSize is the size of a ustar header and of the payload padding unit.
const BlockSize = 512

// Field offsets and widths within a header block.
const (
	nameOff, nameLen         = 0, 100
	modeOff, modeLen         = 100, 8
	uidOff, uidLen           = 108, 8
	gidOff, gidLen           = 116, 8
	sizeOff, sizeLen         = 124, 12
	mtimeOff, mtimeLen       = 136, 12
	chksumOff, chksumLen     = 148, 8
	typeflagOff              = 156
	linknameOff, linknameLen = 157, 100
	magicOff, magicLen       = 257, 6
	versionOff, versionLen   = 263, 2
	prefixOff, prefixLen     = 345, 155
)

const (
	magic   = "ustar\x00"
	version = "00"
)

// Typeflag values understood by the reader.
const (
	TypeReg     byte = '0'
	TypeRegA    byte = '\x00'
	TypeLink    byte = '1'
	TypeSymlink byte = '2'
	TypeChar    byte = '3'
	TypeBlock   byte = '4'
	TypeDir     byte = '5'
	TypeFifo    byte = '6'
	TypeCont    byte = '7'
)

// Decode errors.
var (
	// ErrEndOfArchive marks a sentinel block (first name byte is NUL).
	ErrEndOfArchive = errors.New("ustar: end of archive")

	// ErrBadMagic is returned when the magic field is not "ustar\x00".
	ErrBadMagic = errors.New("ustar: invalid magic")

	// ErrBadVersion is returned when the version field is not "00".
	ErrBadVersion = errors.New("ustar: invalid version")

	// ErrBadChecksum is returned when the stored checksum does not match the block.
	ErrBadChecksum = errors.New("ustar: invalid checksum")

	// ErrBadOctal is returned when a numeric field is not octal ASCII.
	ErrBadOctal = errors.New("ustar: malformed octal field")

	// ErrBlockSize is returned when Decode is given a block of the wrong length.
	ErrBlockSize = errors.New("ustar: header block must be 512 bytes")
)

// Header is a decoded ustar header.
type Header struct {
	// Name is the entry path, joined with the prefix field when present.
	Name     string
	Linkname string
	Typeflag byte
	Size     int64
	Mode     int64
	UID      int
	GID      int
	ModTime  time.Time
	Checksum int64
}

// IsRegular reports whether the typeflag denotes a regular file.
func (h *Header) IsRegular() bool {
	switch h.Typeflag {
	case TypeReg, TypeRegA, TypeCont:
		return true
	}
	return false
}

// IsDir reports whether the typeflag denotes a directory.
func (h *Header) IsDir() bool { return h.Typeflag == TypeDir }

// IsLink reports whether the header is a symbolic or hard link.
func (h *Header) IsLink() bool {
	return h.Typeflag == TypeSymlink || h.Typeflag == TypeLink
}

// PayloadSize returns the number of payload bytes following the header.
// Links, device nodes, directories and FIFOs never carry data whatever
// their size field says; every other typeflag, including pax and GNU
// extension records, is followed by Size bytes.
func (h *Header) PayloadSize() int64 {
	if h.Typeflag >= TypeLink && h.Typeflag <= TypeFifo {
		return 0
	}
	return h.Size
}

// Decode parses and validates one header block.
//
// Validation order is magic, version, checksum. A block whose first name
// byte is NUL yields ErrEndOfArchive without further checks.
func Decode(block []byte) (*Header, error) {
	if len(block) != BlockSize {
		return nil, ErrBlockSize
	}
	if block[nameOff] == 0 {
		return nil, ErrEndOfArchive
	}
	if string(block[magicOff:magicOff+magicLen]) != magic {
		return nil, ErrBadMagic
	}
	if string(block[versionOff:versionOff+versionLen]) != version {
		return nil, ErrBadVersion
	}

	stored, err := parseOctal(block[chksumOff : chksumOff+chksumLen])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadChecksum, err)
	}
	if stored != Checksum(block) {
		return nil, ErrBadChecksum
	}

	h := &Header{
		Name:     cString(block[nameOff : nameOff+nameLen]),
		Linkname: cString(block[linknameOff : linknameOff+linknameLen]),
		Typeflag: block[typeflagOff],
		Checksum: stored,
	}
	if prefix := cString(block[prefixOff : prefixOff+prefixLen]); prefix != "" {
		h.Name = prefix + "/" + h.Name
	}

	if h.Size, err = parseOctal(block[sizeOff : sizeOff+sizeLen]); err != nil {
		return nil, err
	}
	if h.Mode, err = parseOctal(block[modeOff : modeOff+modeLen]); err != nil {
		return nil, err
	}
	uid, err := parseOctal(block[uidOff : uidOff+uidLen])
	if err != nil {
		return nil, err
	}
	gid, err := parseOctal(block[gidOff : gidOff+gidLen])
	if err != nil {
		return nil, err
	}
	mtime, err := parseOctal(block[mtimeOff : mtimeOff+mtimeLen])
	if err != nil {
		return nil, err
	}
	h.UID, h.GID = int(uid), int(gid)
	h.ModTime = time.Unix(mtime, 0)
	return h, nil
}

// Checksum returns the unsigned byte sum of block with the checksum field
// counted as ASCII spaces.
func Checksum(block []byte) int64 {
	var sum int64
	for i, c := range block {
		if i >= chksumOff && i < chksumOff+chksumLen {
			c = ' '
		}
		sum += int64(c)
	}
	return sum
}

// parseOctal decodes a fixed-width octal ASCII field. Spaces and NULs on
// either side are padding; an all-padding field is zero.
func parseOctal(field []byte) (int64, error) {
	start, end := 0, len(field)
	for start < end && isPad(field[start]) {
		start++
	}
	for end > start && isPad(field[end-1]) {
		end--
	}

	var v int64
	for _, c := range field[start:end] {
		if c < '0' || c > '7' {
			return 0, ErrBadOctal
		}
		if v > (1<<62)>>3 {
			return 0, ErrBadOctal
		}
		v = v<<3 | int64(c-'0')
	}
	return v, nil
}

func isPad(c byte) bool { return c == ' ' || c == 0 }

// cString returns the bytes of field up to the first NUL.
func cString(field []byte) string {
	for i, c := range field {
		if c == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}
