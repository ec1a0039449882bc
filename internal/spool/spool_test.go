package spool

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestDetect(t *testing.T) {
	t.Parallel()

	plain := []byte("plain tar bytes")
	tests := []struct {
		name string
		data []byte
		want Compression
	}{
		{"plain", plain, CompressionNone},
		{"empty", nil, CompressionNone},
		{"one byte", []byte{0x1f}, CompressionNone},
		{"gzip", gzipBytes(t, plain), CompressionGzip},
		{"zstd", zstdBytes(t, plain), CompressionZstd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Detect(bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToTemp(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("ustar-spool "), 1000)
	tests := []struct {
		name string
		data []byte
		c    Compression
	}{
		{"none", content, CompressionNone},
		{"gzip", gzipBytes(t, content), CompressionGzip},
		{"zstd", zstdBytes(t, content), CompressionZstd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := ToTemp(t.TempDir(), bytes.NewReader(tt.data), tt.c)
			require.NoError(t, err)
			got, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, content, got)
			require.NoError(t, f.Close())
		})
	}
}

func TestToTemp_CorruptInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := append([]byte{0x1f, 0x8b}, bytes.Repeat([]byte{0xff}, 64)...)
	_, err := ToTemp(dir, bytes.NewReader(bad), CompressionGzip)
	require.ErrorIs(t, err, ErrDecompression)

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left, "partial spool file should be removed")
}

func TestCompressionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "gzip", CompressionGzip.String())
	assert.Equal(t, "zstd", CompressionZstd.String())
	assert.Equal(t, "unknown", Compression(99).String())
}
