package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/meigma/ustar"
	ustarhttp "github.com/meigma/ustar/http"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// openArchive opens a local path or http(s) URL. The returned closer must be
// called once the archive is no longer used.
func openArchive(target string, opts *globalOptions) (*ustar.Archive, io.Closer, error) {
	if isURL(target) {
		src, err := ustarhttp.NewSource(target)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", target, err)
		}
		opts.logger.Debug("opened remote archive", "url", target, "size", src.Size())
		return ustar.NewReaderAt(src, src.Size(), opts.archiveOptions()...), nopCloser{}, nil
	}

	f, err := ustar.OpenFile(target, opts.archiveOptions()...)
	if err != nil {
		return nil, nil, err
	}
	opts.logger.Debug("opened archive", "path", target, "compression", f.Compression())
	return f.Archive, f, nil
}

// withArchive opens target, runs fn and closes the archive.
func withArchive(target string, opts *globalOptions, fn func(a *ustar.Archive) error) (err error) {
	a, closer, err := openArchive(target, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
