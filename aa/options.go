package aa

import (
	"fmt"
	"strings"
)

// DefaultMaxDepth is the nesting bound used when none is configured.
const DefaultMaxDepth = 256

// MaxDepthLimit caps any configured nesting bound. Typed decoding into
// recursive Go types uses one call frame per level.
const MaxDepthLimit = 10000

// Charset selects how string scalars become Go text.
type Charset uint8

const (
	// UTF8 validates string scalars on demand and rejects invalid ones
	// with ErrInvalidText.
	UTF8 Charset = iota
	// Windows1252 transcodes string scalars to UTF-8. ShopSite writes
	// its files in this code page; decoding it cannot fail.
	Windows1252
)

// String returns the charset's canonical label.
func (c Charset) String() string {
	switch c {
	case UTF8:
		return "utf-8"
	case Windows1252:
		return "windows-1252"
	default:
		return fmt.Sprintf("charset(%d)", uint8(c))
	}
}

// ParseCharset accepts the common labels for the supported charsets.
func ParseCharset(s string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "windows-1252", "windows1252", "cp1252", "latin1":
		return Windows1252, nil
	default:
		return UTF8, fmt.Errorf("aa: unsupported charset %q", s)
	}
}

// Options configures a Decoder.
type Options struct {
	// MaxDepth bounds collection nesting (default: DefaultMaxDepth,
	// at most MaxDepthLimit).
	MaxDepth int

	// Filename is reported in error messages.
	Filename string

	// Charset selects text decoding for string scalars.
	Charset Charset

	// BorrowStrings makes text results alias the input buffer instead of
	// copying. Only valid while the input is neither modified nor freed.
	BorrowStrings bool

	// StrictScalars requires the scalar kind to match the request:
	// numbers from N scalars, bools from B scalars, text from S scalars.
	StrictScalars bool

	// DisallowUnknownFields makes Decode fail on map keys that match no
	// struct field instead of skipping them.
	DisallowUnknownFields bool
}

// Option configures a Decoder.
type Option func(*Options)

// WithMaxDepth sets the nesting bound.
func WithMaxDepth(n int) Option {
	return func(o *Options) {
		o.MaxDepth = n
	}
}

// WithFilename sets the file name used in error messages.
func WithFilename(name string) Option {
	return func(o *Options) {
		o.Filename = name
	}
}

// WithCharset selects text decoding for string scalars.
func WithCharset(c Charset) Option {
	return func(o *Options) {
		o.Charset = c
	}
}

// WithBorrowedStrings enables zero-copy text results.
func WithBorrowedStrings() Option {
	return func(o *Options) {
		o.BorrowStrings = true
	}
}

// WithStrictScalars disables scalar kind coercion.
func WithStrictScalars() Option {
	return func(o *Options) {
		o.StrictScalars = true
	}
}

// WithDisallowUnknownFields rejects map keys with no matching struct field.
func WithDisallowUnknownFields() Option {
	return func(o *Options) {
		o.DisallowUnknownFields = true
	}
}

func buildOptions(opts []Option) Options {
	o := Options{MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxDepth > MaxDepthLimit {
		o.MaxDepth = MaxDepthLimit
	}
	return o
}
