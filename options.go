package ustar

import "log/slog"

// DefaultMaxLinkHops bounds link resolution, matching the Linux SYMLOOP limit.
const DefaultMaxLinkHops = 40

// DefaultMaxFileSize is the default limit for whole-file reads (256MB).
const DefaultMaxFileSize = 256 << 20

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for debug output. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithMaxLinkHops limits how many symbolic or hard links a single
// resolution may follow. Values < 0 are treated as 0 (links never followed).
func WithMaxLinkHops(n int) Option {
	return func(a *Archive) {
		if n < 0 {
			n = 0
		}
		a.maxHops = n
	}
}

// WithStrictPaths selects boundary matching for path queries.
//
// By default a query matches any entry whose stored name begins with the
// query bytes, so "dir" also matches "dir2/x". With strict matching the
// match must end at a "/" or at the end of the stored name.
func WithStrictPaths(enabled bool) Option {
	return func(a *Archive) {
		a.strict = enabled
	}
}

// WithMaxFileSize limits ReadFile to files of at most limit bytes, since it
// buffers the whole file in memory. Set limit to 0 to disable the limit.
// ReadFileAt, StreamFile and Digest are never limited.
func WithMaxFileSize(limit int64) Option {
	return func(a *Archive) {
		a.maxFileSize = limit
	}
}

// WithSpoolDir sets the directory OpenFile uses for decompressed copies of
// compressed archives. The default is os.TempDir.
func WithSpoolDir(dir string) Option {
	return func(a *Archive) {
		a.spoolDir = dir
	}
}
