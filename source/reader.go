package source

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type config struct {
	maxSize    int64
	decompress bool
}

// Option configures Read and Open.
type Option func(*config)

// WithMaxSize sets the maximum decompressed size (default: 256 MiB).
func WithMaxSize(n int64) Option {
	return func(c *config) {
		c.maxSize = n
	}
}

// WithoutDecompression returns the input bytes as they are, even when
// they look compressed.
func WithoutDecompression() Option {
	return func(c *config) {
		c.decompress = false
	}
}

func buildConfig(opts []Option) config {
	c := config{maxSize: DefaultMaxSize, decompress: true}
	for _, opt := range opts {
		opt(&c)
	}
	if c.maxSize <= 0 {
		c.maxSize = DefaultMaxSize
	}
	return c
}

// Open loads the file at path.
func Open(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Op: "open", Err: err}
	}
	defer f.Close()
	return read(f, path, buildConfig(opts))
}

// Read loads everything from r.
func Read(r io.Reader, opts ...Option) (*Document, error) {
	return read(r, "", buildConfig(opts))
}

func read(r io.Reader, path string, c config) (*Document, error) {
	br := bufio.NewReader(r)

	comp := CompressionNone
	if c.decompress {
		// Short inputs return fewer bytes and an error; both are fine here.
		magic, _ := br.Peek(len(zstdMagic))
		comp = sniff(magic)
	}

	var src io.Reader = br
	switch comp {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, &Error{Path: path, Op: "gzip", Err: err}
		}
		defer zr.Close()
		src = zr
	case CompressionZstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderMaxMemory(uint64(c.maxSize)))
		if err != nil {
			return nil, &Error{Path: path, Op: "zstd", Err: err}
		}
		defer zr.Close()
		src = zr
	}

	// One byte past the limit tells an exact fit from an overflow.
	data, err := io.ReadAll(io.LimitReader(src, c.maxSize+1))
	if err != nil {
		op := "read"
		if comp != CompressionNone {
			op = comp.String()
		}
		return nil, &Error{Path: path, Op: op, Err: err}
	}
	if int64(len(data)) > c.maxSize {
		return nil, &Error{
			Path: path,
			Op:   "read",
			Err:  fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.maxSize),
		}
	}

	return &Document{
		Path:        path,
		Data:        data,
		Compression: comp,
		Digest:      sha256.Sum256(data),
	}, nil
}

func sniff(magic []byte) Compression {
	switch {
	case bytes.HasPrefix(magic, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(magic, gzipMagic):
		return CompressionGzip
	default:
		return CompressionNone
	}
}
