package aa

import "fmt"

// TokenKind identifies the syntactic unit the scanner found.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	// Scalars
	TokenString // S<len>,<bytes>
	TokenNumber // N<len>,<digits>
	TokenBool   // B<len>,<0|1>

	// Collection headers
	TokenSequence // A<count>,
	TokenMap      // H<count>,
)

// Markers as they appear on the wire.
const (
	MarkerString   byte = 'S'
	MarkerNumber   byte = 'N'
	MarkerBool     byte = 'B'
	MarkerSequence byte = 'A'
	MarkerMap      byte = 'H'

	// Delimiter ends every length or count prefix.
	Delimiter byte = ','
)

// String returns the token kind name.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenBool:
		return "bool"
	case TokenSequence:
		return "sequence"
	case TokenMap:
		return "map"
	default:
		return "unknown"
	}
}

// IsScalar reports whether the kind carries a byte payload.
func (k TokenKind) IsScalar() bool {
	return k == TokenString || k == TokenNumber || k == TokenBool
}

// Token is one unit of scanner output. Raw aliases the scanned input and
// is only valid while that buffer is left untouched.
type Token struct {
	Kind   TokenKind
	Raw    []byte // scalar payload, exactly the declared length
	Count  int    // element or pair count for collection headers
	Offset int    // offset of the marker byte
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch {
	case t.Kind.IsScalar():
		return fmt.Sprintf("%s(%q)", t.Kind, t.Raw)
	case t.Kind == TokenSequence || t.Kind == TokenMap:
		return fmt.Sprintf("%s[%d]", t.Kind, t.Count)
	default:
		return t.Kind.String()
	}
}

func kindForMarker(m byte) (TokenKind, bool) {
	switch m {
	case MarkerString:
		return TokenString, true
	case MarkerNumber:
		return TokenNumber, true
	case MarkerBool:
		return TokenBool, true
	case MarkerSequence:
		return TokenSequence, true
	case MarkerMap:
		return TokenMap, true
	}
	return TokenEOF, false
}
