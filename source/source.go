// Package source loads AA documents into memory for decoding.
//
// The aa decoder works on one contiguous buffer. This package produces
// that buffer from a file or stream, providing:
//   - Transparent gzip and zstd decompression (sniffed by magic bytes)
//   - A size bound on the decompressed document
//   - A SHA-256 digest of the decoded bytes for logging and caching
//
// Nothing here knows the AA grammar; the bytes are handed to aa unchanged.
package source

import (
	"errors"
	"fmt"
)

// DefaultMaxSize is the default bound on a decompressed document (256 MiB).
const DefaultMaxSize = 256 * 1024 * 1024

// Compression identifies how the input was encoded on disk.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionGzip Compression = 1
	CompressionZstd Compression = 2
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// Document is one fully loaded input.
type Document struct {
	Path        string      // file name, empty for streams
	Data        []byte      // decompressed bytes
	Compression Compression // encoding found on input
	Digest      [32]byte    // SHA-256 of Data
}

// Name returns Path, or "<stdin>" for unnamed streams.
func (d *Document) Name() string {
	if d.Path == "" {
		return "<stdin>"
	}
	return d.Path
}

// ErrTooLarge is returned when a document exceeds the configured size.
var ErrTooLarge = errors.New("document too large")

// Error records a failure to load a document.
type Error struct {
	Path string
	Op   string // "open", "read", "gzip" or "zstd"
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("source: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("source: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
