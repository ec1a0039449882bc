// Package spool turns compressed archive streams into seekable temp files.
//
// A compressed tar cannot be navigated by offset, so OpenFile decompresses
// it once into a temporary file and navigates that instead.
package spool

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultMaxDecoderMemory is the default zstd decoder memory limit (256MB).
const DefaultMaxDecoderMemory = 256 << 20

// ErrDecompression is returned when a compressed stream cannot be decoded.
var ErrDecompression = errors.New("ustar: decompression failed")

// Compression identifies the outer compression of an archive stream.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect identifies the compression of the stream at r from its leading
// magic bytes. Short or empty inputs are reported as CompressionNone.
func Detect(r io.ReaderAt) (Compression, error) {
	var head [4]byte
	n, err := r.ReadAt(head[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return CompressionNone, fmt.Errorf("detect compression: %w", err)
	}
	switch {
	case bytes.HasPrefix(head[:n], zstdMagic):
		return CompressionZstd, nil
	case bytes.HasPrefix(head[:n], gzipMagic):
		return CompressionGzip, nil
	default:
		return CompressionNone, nil
	}
}

// Decompress copies the decoded form of src to dst.
func Decompress(dst io.Writer, src io.Reader, c Compression) (int64, error) {
	switch c {
	case CompressionNone:
		return io.Copy(dst, src)
	case CompressionGzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrDecompression, err)
		}
		defer zr.Close()
		n, err := io.Copy(dst, zr)
		if err != nil {
			return n, fmt.Errorf("%w: %w", ErrDecompression, err)
		}
		return n, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(src,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(DefaultMaxDecoderMemory),
		)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrDecompression, err)
		}
		defer dec.Close()
		n, err := io.Copy(dst, dec)
		if err != nil {
			return n, fmt.Errorf("%w: %w", ErrDecompression, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unknown compression %d", ErrDecompression, c)
	}
}

// File is a decompressed temporary copy. Close removes it.
type File struct {
	*os.File
}

// Close closes and removes the temporary file.
func (f *File) Close() error {
	name := f.Name()
	err := f.File.Close()
	return errors.Join(err, os.Remove(name))
}

// ToTemp decompresses src into a new temporary file in dir (os.TempDir when
// empty) and returns it positioned at offset 0.
func ToTemp(dir string, src io.Reader, c Compression) (*File, error) {
	tmp, err := os.CreateTemp(dir, ".ustar-spool-")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	f := &File{File: tmp}
	success := false
	defer func() {
		if !success {
			_ = f.Close() //nolint:errcheck // best-effort cleanup of partial spool
		}
	}()

	if _, err := Decompress(tmp, src, c); err != nil {
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}
	success = true
	return f, nil
}
