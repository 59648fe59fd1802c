package aa

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *Error wraps exactly one of these, so callers can
// test with errors.Is(err, aa.ErrTruncatedInput).
var (
	ErrUnknownMarker       = errors.New("unknown marker")
	ErrMalformedLength     = errors.New("malformed length")
	ErrTruncatedInput      = errors.New("truncated input")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrExhaustedCollection = errors.New("exhausted collection")
	ErrUnconsumedElements  = errors.New("unconsumed elements")
	ErrDepthExceeded       = errors.New("depth exceeded")
	ErrInvalidText         = errors.New("invalid text")
	ErrNumberFormat        = errors.New("number format")
)

// Error is a decode failure with its location in the input.
type Error struct {
	Kind     error    // one of the Err* kinds above
	Offset   int      // byte offset into the input
	Pos      Position // line and column derived from Offset
	File     string   // optional, from WithFilename
	Expected string   // what the caller asked for, if relevant
	Found    string   // what the input held, if relevant
	Raw      []byte   // offending bytes, if relevant
	Err      error    // underlying cause (e.g. *strconv.NumError)
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteByte(':')
	}
	sb.WriteString(e.Pos.String())
	sb.WriteString(": aa: ")
	sb.WriteString(e.Kind.Error())

	switch {
	case e.Expected != "" && e.Found != "":
		fmt.Fprintf(&sb, ": expected %s, found %s", e.Expected, e.Found)
	case e.Expected != "":
		fmt.Fprintf(&sb, ": expected %s", e.Expected)
	case e.Found != "":
		fmt.Fprintf(&sb, ": %s", e.Found)
	}
	if e.Raw != nil {
		fmt.Fprintf(&sb, " %q", clip(e.Raw, 32))
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	fmt.Fprintf(&sb, " (offset %d)", e.Offset)
	return sb.String()
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// newError builds an *Error and resolves its line and column.
func newError(data []byte, offset int, kind error) *Error {
	if offset > len(data) {
		offset = len(data)
	}
	return &Error{
		Kind:   kind,
		Offset: offset,
		Pos:    positionAt(data, offset),
	}
}

func clip(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
