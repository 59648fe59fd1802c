// Package aa decodes AA, the length-prefixed, self-describing text format
// ShopSite uses to persist nested catalog records.
//
// AA is designed to be:
//   - Self-describing (every value announces its shape with a marker)
//   - Exact (every scalar declares its byte length up front)
//   - Nestable (sequences and maps hold any values)
//
// # Wire Grammar
//
//	String:   S<len>,<len bytes>        S5,hello
//	Number:   N<len>,<number text>      N4,-1.5
//	Bool:     B<len>,<0|1>              B1,1
//	Sequence: A<count>,<count values>   A2,S1,aS1,b
//	Map:      H<count>,<count pairs>    H1,S2,okN1,1
//
// Scalar payloads may contain any bytes, including markers, commas and
// newlines. Whitespace between values is ignored.
//
// # Layers
//
// A Scanner turns bytes into tokens without copying payloads. A Decoder
// sits on top and offers type-directed reads (ExpectString, ExpectInt,
// BeginMap, SkipValue, ...) with collection cursors that check the
// declared counts. DecodeDocument builds a schema-free Value tree and
// Unmarshal binds into Go types.
//
// # Example
//
//	v, err := aa.DecodeDocument([]byte("H2,S2,okN1,1S1,0N1,0"))
//	// v.MarshalJSON() == {"ok":1,"0":0}
//
// # Errors
//
// Every failure is an *Error wrapping one of ErrUnknownMarker,
// ErrMalformedLength, ErrTruncatedInput, ErrTypeMismatch,
// ErrExhaustedCollection, ErrUnconsumedElements, ErrDepthExceeded,
// ErrInvalidText or ErrNumberFormat, with the byte offset and line and
// column of the failure. The first error ends the decode.
package aa
