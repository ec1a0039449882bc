package ustar

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/meigma/ustar/internal/spool"
)

// File wraps an Archive with the local file handle it reads from.
// Close must be called to release file resources.
type File struct {
	*Archive
	closer      io.Closer
	compression spool.Compression
}

// Compression reports the outer compression OpenFile detected: "none",
// "gzip" or "zstd".
func (f *File) Compression() string {
	return f.compression.String()
}

// Close closes the underlying file and removes any decompressed copy.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

// OpenFile opens the archive at name for navigation.
//
// Plain tar files are read in place. gzip and zstd compressed archives are
// detected by their magic bytes and decompressed once into a temporary file
// (see WithSpoolDir), which Close removes.
func OpenFile(name string, opts ...Option) (*File, error) {
	f, err := os.Open(name) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	c, err := spool.Detect(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if c == spool.CompressionNone {
		return &File{Archive: New(f, opts...), closer: f}, nil
	}

	a := New(nil, opts...)
	a.log().Debug("spooling compressed archive", "path", name, "compression", c.String())
	tmp, err := spool.ToTemp(a.spoolDir, f, c)
	closeErr := f.Close()
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", name, err)
	}
	if closeErr != nil {
		return nil, errors.Join(closeErr, tmp.Close())
	}
	a.rs = tmp
	return &File{Archive: a, closer: tmp, compression: c}, nil
}

// Interface compliance.
var _ io.Closer = (*File)(nil)
