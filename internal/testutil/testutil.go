// Package testutil builds ustar fixtures and instrumented handles for tests.
package testutil

import (
	"bytes"
	"io"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data  []byte
	reads int
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.reads++
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Reads returns the number of ReadAt calls made so far.
func (m *MockByteSource) Reads() int {
	return m.reads
}

// TrackingSeeker is an io.ReadSeeker over a byte slice that records every
// seek so tests can assert where the cursor was left.
type TrackingSeeker struct {
	*bytes.Reader
	seeks int
}

// NewTrackingSeeker returns a TrackingSeeker over data.
func NewTrackingSeeker(data []byte) *TrackingSeeker {
	return &TrackingSeeker{Reader: bytes.NewReader(data)}
}

// Seek implements io.Seeker.
func (s *TrackingSeeker) Seek(offset int64, whence int) (int64, error) {
	s.seeks++
	return s.Reader.Seek(offset, whence)
}

// Offset returns the current cursor position.
func (s *TrackingSeeker) Offset() int64 {
	off, _ := s.Reader.Seek(0, io.SeekCurrent) //nolint:errcheck // bytes.Reader never fails a relative zero seek
	return off
}

// Seeks returns the number of Seek calls made so far.
func (s *TrackingSeeker) Seeks() int {
	return s.seeks
}

// FailingSeeker wraps a ReadSeeker and fails every read after the first
// limit bytes with err.
type FailingSeeker struct {
	io.ReadSeeker
	limit int64
	read  int64
	err   error
}

// NewFailingSeeker returns a FailingSeeker that errors after limit bytes.
func NewFailingSeeker(data []byte, limit int64, err error) *FailingSeeker {
	return &FailingSeeker{ReadSeeker: bytes.NewReader(data), limit: limit, err: err}
}

// Read implements io.Reader.
func (f *FailingSeeker) Read(p []byte) (int, error) {
	if f.read >= f.limit {
		return 0, f.err
	}
	if rem := f.limit - f.read; int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := f.ReadSeeker.Read(p)
	f.read += int64(n)
	return n, err
}
