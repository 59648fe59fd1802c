package aa

import (
	"fmt"
	"math"
)

// maxPrefixDigits bounds the length of a length or count prefix. Values
// past the int range saturate at math.MaxInt, which no input can hold,
// so they fail as truncated input on every platform.
const maxPrefixDigits = 18

// Scanner splits an AA byte buffer into tokens. It never copies payload
// bytes and never recurses into collections; it only reports their
// headers. After the first error the scanner is poisoned and keeps
// returning that error.
type Scanner struct {
	data []byte
	pos  int
	err  *Error
}

// NewScanner creates a scanner over data. The caller must keep data
// alive and unmodified while tokens from it are in use.
func NewScanner(data []byte) *Scanner {
	return &Scanner{data: data}
}

// Offset returns the current byte offset. After an error it is the
// point of failure.
func (s *Scanner) Offset() int {
	return s.pos
}

// Err returns the error that poisoned the scanner, if any.
func (s *Scanner) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// AtEnd reports whether only whitespace remains.
func (s *Scanner) AtEnd() bool {
	return s.skipSpace() >= len(s.data)
}

// Next returns the next token. End of input is a TokenEOF token with a
// nil error.
func (s *Scanner) Next() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}

	s.pos = s.skipSpace()
	if s.pos >= len(s.data) {
		return Token{Kind: TokenEOF, Offset: s.pos}, nil
	}

	start := s.pos
	marker := s.data[s.pos]
	kind, ok := kindForMarker(marker)
	if !ok {
		e := s.fail(start, ErrUnknownMarker)
		e.Found = fmt.Sprintf("%q", marker)
		return Token{}, e
	}
	s.pos++

	n, err := s.readPrefix()
	if err != nil {
		return Token{}, err
	}

	if !kind.IsScalar() {
		return Token{Kind: kind, Count: n, Offset: start}, nil
	}

	if len(s.data)-s.pos < n {
		e := s.fail(s.pos, ErrTruncatedInput)
		e.Expected = fmt.Sprintf("%s bytes", s.data[start+1:s.pos-1])
		e.Found = fmt.Sprintf("%d bytes", len(s.data)-s.pos)
		return Token{}, e
	}
	raw := s.data[s.pos : s.pos+n : s.pos+n]
	s.pos += n
	return Token{Kind: kind, Raw: raw, Offset: start}, nil
}

// readPrefix reads the decimal digits and delimiter after a marker.
func (s *Scanner) readPrefix() (int, error) {
	start := s.pos
	n := 0
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == Delimiter {
			break
		}
		if c < '0' || c > '9' {
			e := s.fail(s.pos, ErrMalformedLength)
			e.Found = fmt.Sprintf("%q in length prefix", c)
			return 0, e
		}
		if s.pos-start >= maxPrefixDigits {
			e := s.fail(start, ErrMalformedLength)
			e.Found = "length prefix too long"
			return 0, e
		}
		if n > (math.MaxInt-9)/10 {
			n = math.MaxInt
		} else {
			n = n*10 + int(c-'0')
		}
		s.pos++
	}

	if s.pos >= len(s.data) {
		// A prefix cut off by end of input is still a truncated file,
		// but one with no digits at all is malformed.
		kind := ErrTruncatedInput
		if s.pos == start {
			kind = ErrMalformedLength
		}
		e := s.fail(s.pos, kind)
		e.Expected = fmt.Sprintf("%q after length", Delimiter)
		return 0, e
	}
	if s.pos == start {
		e := s.fail(s.pos, ErrMalformedLength)
		e.Found = "empty length prefix"
		return 0, e
	}
	s.pos++ // delimiter
	return n, nil
}

func (s *Scanner) skipSpace() int {
	i := s.pos
	for i < len(s.data) {
		switch s.data[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

func (s *Scanner) fail(offset int, kind error) *Error {
	s.pos = offset
	s.err = newError(s.data, offset, kind)
	return s.err
}
