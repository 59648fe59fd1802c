package aa

import (
	"unicode/utf8"
	"unsafe"

	"golang.org/x/text/encoding/charmap"
)

// decodeText turns a string scalar into Go text under the given charset.
// ok is false only for invalid UTF-8 under UTF8.
func decodeText(raw []byte, cs Charset, borrow bool) (string, bool) {
	switch cs {
	case Windows1252:
		if isASCII(raw) {
			return bytesToString(raw, borrow), true
		}
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false
		}
		return string(out), true
	default:
		if !utf8.Valid(raw) {
			return "", false
		}
		return bytesToString(raw, borrow), true
	}
}

func bytesToString(b []byte, borrow bool) string {
	if !borrow || len(b) == 0 {
		return string(b)
	}
	return unsafe.String(&b[0], len(b))
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// isNumberText reports whether b matches
//
//	[+-]? digits? ('.' digits?)? ([eE] [+-]? digits)?
//
// with at least one mantissa digit.
func isNumberText(b []byte) bool {
	i := 0
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		i++
	}
	digits := 0
	for i < len(b) && isDigit(b[i]) {
		i++
		digits++
	}
	if i < len(b) && b[i] == '.' {
		i++
		for i < len(b) && isDigit(b[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
		exp := 0
		for i < len(b) && isDigit(b[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
