package aa

import "fmt"

// Position is a human-oriented location in the input.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// positionAt walks data up to offset counting lines and columns.
// CR LF counts as one line break, tabs advance eight columns and other
// control bytes take no room. Only called on the error path.
func positionAt(data []byte, offset int) Position {
	pos := Position{Line: 1, Column: 1, Offset: offset}
	var last byte
	for _, b := range data[:offset] {
		switch {
		case last == '\r' && b == '\n':
		case b == '\r' || b == '\n':
			pos.Line++
			pos.Column = 1
		case b == '\t':
			pos.Column += 8
		case b < 0x20 || b == 0x7f:
		default:
			pos.Column++
		}
		last = b
	}
	return pos
}
