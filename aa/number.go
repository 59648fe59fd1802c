package aa

import (
	"strconv"
	"strings"
)

// Number is numeric scalar text exactly as it appeared in the input.
type Number string

// String returns the number text.
func (n Number) String() string {
	return string(n)
}

// Int64 parses the number as a base-10 integer.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Uint64 parses the number as a base-10 unsigned integer.
func (n Number) Uint64() (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(string(n), "+"), 10, 64)
}

// Float64 parses the number as a float.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// JSON returns the number as JSON number text. Text that already is a
// JSON number is returned unchanged; otherwise the sign, leading zeros
// and bare decimal points are normalized. ok is false when n is not
// number text at all.
func (n Number) JSON() (text string, ok bool) {
	s := string(n)
	if isJSONNumber(s) {
		return s, true
	}
	if !isNumberText([]byte(s)) {
		return "", false
	}

	var sb strings.Builder
	i := 0
	switch s[0] {
	case '-':
		sb.WriteByte('-')
		i++
	case '+':
		i++
	}
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	intPart := strings.TrimLeft(s[i:j], "0")
	if intPart == "" {
		intPart = "0"
	}
	sb.WriteString(intPart)

	i = j
	if i < len(s) && s[i] == '.' {
		i++
		j = i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > i {
			sb.WriteByte('.')
			sb.WriteString(s[i:j])
		}
		i = j
	}
	sb.WriteString(s[i:])
	return sb.String(), true
}

// isJSONNumber matches -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
func isJSONNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}
