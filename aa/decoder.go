package aa

import (
	"errors"
	"fmt"
	"strconv"
)

// Decoder pulls typed values out of one AA buffer.
//
// Every read either returns the requested shape or a precise error. The
// first error poisons the decoder: all later calls return it again,
// because the byte position after a failure cannot be trusted.
//
// Collections are read through the SequenceAccess and MapAccess cursors
// returned by BeginSequence and BeginMap. Values inside them are read
// with the Decoder's own methods; a read claims the next slot of the
// innermost open collection.
type Decoder struct {
	data []byte
	sc   *Scanner
	opts Options

	// One-token lookahead. Filled by PeekKind, drained by nextToken.
	peek   Token
	peeked bool

	stack  []frame
	nextID uint64
	err    error
}

// frame tracks one open collection.
type frame struct {
	kind    TokenKind
	count   int  // declared elements or pairs
	slots   int  // unclaimed elements, or unclaimed keys plus values
	claimed bool // a slot was claimed and its value not read yet
	offset  int
	id      uint64
}

func (f *frame) keyDue() bool {
	return f.kind == TokenMap && f.slots%2 == 0
}

func (f *frame) done() bool {
	return f.slots == 0 && !f.claimed
}

// left returns the elements or pairs not yet consumed.
func (f *frame) left() int {
	n := f.slots
	if f.claimed {
		n++
	}
	if f.kind == TokenMap {
		return (n + 1) / 2
	}
	return n
}

// NewDecoder creates a decoder over data. Borrowed results (ExpectBytes,
// and text when WithBorrowedStrings is set) alias data, so the caller
// must keep it alive and unmodified for as long as those results are used.
func NewDecoder(data []byte, opts ...Option) *Decoder {
	return &Decoder{
		data: data,
		sc:   NewScanner(data),
		opts: buildOptions(opts),
	}
}

// IsSelfDescribing reports that every value announces its own shape, so
// DecodeValue can work without a target type.
func (d *Decoder) IsSelfDescribing() bool {
	return true
}

// Options returns the decoder's effective configuration.
func (d *Decoder) Options() Options {
	return d.opts
}

// Depth returns the number of open collections.
func (d *Decoder) Depth() int {
	return len(d.stack)
}

// Offset returns the offset of the next unread byte, or of the peeked
// token if there is one.
func (d *Decoder) Offset() int {
	if d.peeked {
		return d.peek.Offset
	}
	return d.sc.Offset()
}

// AtEnd reports whether only whitespace remains in the input.
func (d *Decoder) AtEnd() bool {
	if d.peeked {
		return d.peek.Kind == TokenEOF
	}
	return d.sc.AtEnd()
}

// Err returns the error that poisoned the decoder, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Close checks that every collection opened so far has been fully
// consumed. Collections whose slots are all consumed count as closed
// even without an explicit End.
func (d *Decoder) Close() error {
	if d.err != nil {
		return d.err
	}
	for i := len(d.stack) - 1; i >= 0; i-- {
		if !d.stack[i].done() {
			return d.unconsumed(&d.stack[i], "")
		}
	}
	d.stack = d.stack[:0]
	return nil
}

// PeekKind reports the kind of the next token without consuming it.
// Repeated calls return the same answer; the following read uses the
// peeked token.
func (d *Decoder) PeekKind() (TokenKind, error) {
	if d.err != nil {
		return TokenEOF, d.err
	}
	if !d.peeked {
		tok, err := d.sc.Next()
		if err != nil {
			return TokenEOF, d.fail(err)
		}
		d.peek, d.peeked = tok, true
	}
	return d.peek.Kind, nil
}

// ============================================================
// Scalars
// ============================================================

// ExpectString reads a scalar as text. Text is validated (or transcoded)
// here, never during scanning.
func (d *Decoder) ExpectString() (string, error) {
	tok, err := d.scalar("string", TokenString)
	if err != nil {
		return "", err
	}
	return d.text(tok)
}

// ExpectBytes reads a scalar's raw bytes without validation. The result
// aliases the input buffer.
func (d *Decoder) ExpectBytes() ([]byte, error) {
	tok, err := d.scalar("bytes", TokenString)
	if err != nil {
		return nil, err
	}
	return tok.Raw, nil
}

// ExpectNumber reads a scalar as number text, preserved verbatim.
func (d *Decoder) ExpectNumber() (Number, error) {
	tok, err := d.scalar("number", TokenNumber)
	if err != nil {
		return "", err
	}
	return d.number(tok)
}

// ExpectInt reads a signed integer that fits in bitSize bits
// (0 means int).
func (d *Decoder) ExpectInt(bitSize int) (int64, error) {
	tok, err := d.scalar("integer", TokenNumber)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(tok.Raw), 10, bitSize)
	if err != nil {
		return 0, d.numberError(tok, intName("int", bitSize), err)
	}
	return n, nil
}

// ExpectUint reads an unsigned integer that fits in bitSize bits
// (0 means uint).
func (d *Decoder) ExpectUint(bitSize int) (uint64, error) {
	tok, err := d.scalar("unsigned integer", TokenNumber)
	if err != nil {
		return 0, err
	}
	raw := tok.Raw
	if len(raw) > 1 && raw[0] == '+' {
		raw = raw[1:]
	}
	n, err := strconv.ParseUint(string(raw), 10, bitSize)
	if err != nil {
		return 0, d.numberError(tok, intName("uint", bitSize), err)
	}
	return n, nil
}

// ExpectFloat reads a floating point number of the given precision
// (32 or 64).
func (d *Decoder) ExpectFloat(bitSize int) (float64, error) {
	tok, err := d.scalar("float", TokenNumber)
	if err != nil {
		return 0, err
	}
	if !isNumberText(tok.Raw) {
		return 0, d.numberError(tok, intName("float", bitSize), nil)
	}
	f, err := strconv.ParseFloat(string(tok.Raw), bitSize)
	if err != nil {
		return 0, d.numberError(tok, intName("float", bitSize), err)
	}
	return f, nil
}

// ExpectBool reads a boolean. Accepted payloads are 0, 1, true and false.
func (d *Decoder) ExpectBool() (bool, error) {
	tok, err := d.scalar("bool", TokenBool)
	if err != nil {
		return false, err
	}
	return d.boolean(tok)
}

// ============================================================
// Collections
// ============================================================

// BeginSequence reads a sequence header. The caller must consume
// exactly Len() elements and then call End.
func (d *Decoder) BeginSequence() (*SequenceAccess, error) {
	tok, err := d.valueToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokenSequence {
		return nil, d.mismatch(tok, "sequence")
	}
	return d.openSequence(tok)
}

// BeginMap reads a map header. The caller must consume exactly Len()
// key/value pairs, in alternation, and then call End.
func (d *Decoder) BeginMap() (*MapAccess, error) {
	tok, err := d.valueToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokenMap {
		return nil, d.mismatch(tok, "map")
	}
	return d.openMap(tok)
}

// SkipValue discards the next value of any shape. Nested collections are
// walked iteratively and string payloads are never validated.
func (d *Decoder) SkipValue() error {
	tok, err := d.anyToken()
	if err != nil {
		return err
	}
	if tok.Kind.IsScalar() {
		return nil
	}
	if err := d.checkHeader(tok, 0); err != nil {
		return err
	}

	type pending struct {
		left  int
		isMap bool
	}
	stack := []pending{{left: slotsFor(tok), isMap: tok.Kind == TokenMap}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.left == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		key := top.isMap && top.left%2 == 0
		top.left--

		tok, err := d.nextToken()
		if err != nil {
			return err
		}
		if tok.Kind == TokenEOF {
			return d.truncated(tok)
		}
		if key && !tok.Kind.IsScalar() {
			return d.badKey(tok)
		}
		if tok.Kind.IsScalar() {
			continue
		}
		if err := d.checkHeader(tok, len(stack)); err != nil {
			return err
		}
		stack = append(stack, pending{left: slotsFor(tok), isMap: tok.Kind == TokenMap})
	}
	return nil
}

// ============================================================
// Internals
// ============================================================

func (d *Decoder) openSequence(tok Token) (*SequenceAccess, error) {
	f, err := d.push(tok)
	if err != nil {
		return nil, err
	}
	return &SequenceAccess{d: d, level: len(d.stack) - 1, id: f.id, count: f.count}, nil
}

func (d *Decoder) openMap(tok Token) (*MapAccess, error) {
	f, err := d.push(tok)
	if err != nil {
		return nil, err
	}
	return &MapAccess{d: d, level: len(d.stack) - 1, id: f.id, count: f.count}, nil
}

func (d *Decoder) push(tok Token) (*frame, error) {
	if err := d.checkHeader(tok, 0); err != nil {
		return nil, err
	}
	d.nextID++
	d.stack = append(d.stack, frame{
		kind:   tok.Kind,
		count:  tok.Count,
		slots:  slotsFor(tok),
		offset: tok.Offset,
		id:     d.nextID,
	})
	return &d.stack[len(d.stack)-1], nil
}

// checkHeader enforces the depth bound for a collection about to open
// extra levels below the current stack, and rejects counts the
// remaining input cannot possibly hold (every value takes at least
// three bytes).
func (d *Decoder) checkHeader(tok Token, extra int) error {
	if len(d.stack)+extra >= d.opts.MaxDepth {
		e := d.errAt(tok.Offset, ErrDepthExceeded)
		e.Found = fmt.Sprintf("more than %d nested collections", d.opts.MaxDepth)
		return d.fail(e)
	}
	per := 3
	if tok.Kind == TokenMap {
		per = 6
	}
	if rest := len(d.data) - d.sc.Offset(); tok.Count > rest/per {
		e := d.errAt(tok.Offset, ErrTruncatedInput)
		e.Expected = fmt.Sprintf("%d %s entries", tok.Count, tok.Kind)
		e.Found = fmt.Sprintf("%d bytes left", rest)
		return d.fail(e)
	}
	return nil
}

func slotsFor(tok Token) int {
	if tok.Kind == TokenMap {
		return tok.Count * 2
	}
	return tok.Count
}

// claim takes the next slot of the innermost open collection for a value
// read directly through the Decoder. key reports a map key slot.
func (d *Decoder) claim() (key bool, err error) {
	if d.err != nil {
		return false, d.err
	}
	if len(d.stack) == 0 {
		return false, nil
	}
	f := &d.stack[len(d.stack)-1]
	if f.claimed {
		f.claimed = false
		return false, nil
	}
	if f.slots == 0 {
		return false, d.exhausted(f)
	}
	key = f.keyDue()
	f.slots--
	return key, nil
}

// valueToken claims a slot and reads the token that starts its value.
func (d *Decoder) valueToken() (Token, error) {
	return d.claimToken(true)
}

// anyToken is valueToken for reads that accept whatever shape comes next.
func (d *Decoder) anyToken() (Token, error) {
	return d.claimToken(false)
}

func (d *Decoder) claimToken(typed bool) (Token, error) {
	key, err := d.claim()
	if err != nil {
		return Token{}, err
	}
	tok, err := d.nextToken()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind == TokenEOF {
		return Token{}, d.truncated(tok)
	}
	if key && !tok.Kind.IsScalar() {
		if !typed {
			return Token{}, d.badKey(tok)
		}
		return Token{}, d.mismatch(tok, "map key")
	}
	return tok, nil
}

func (d *Decoder) scalar(expected string, kind TokenKind) (Token, error) {
	tok, err := d.valueToken()
	if err != nil {
		return Token{}, err
	}
	if !tok.Kind.IsScalar() || (d.opts.StrictScalars && tok.Kind != kind) {
		return Token{}, d.mismatch(tok, expected)
	}
	return tok, nil
}

func (d *Decoder) nextToken() (Token, error) {
	if d.peeked {
		d.peeked = false
		return d.peek, nil
	}
	tok, err := d.sc.Next()
	if err != nil {
		return Token{}, d.fail(err)
	}
	return tok, nil
}

func (d *Decoder) text(tok Token) (string, error) {
	s, ok := decodeText(tok.Raw, d.opts.Charset, d.opts.BorrowStrings)
	if !ok {
		e := d.errAt(tok.Offset, ErrInvalidText)
		e.Found = "invalid " + d.opts.Charset.String()
		e.Raw = tok.Raw
		return "", d.fail(e)
	}
	return s, nil
}

func (d *Decoder) number(tok Token) (Number, error) {
	if !isNumberText(tok.Raw) {
		return "", d.numberError(tok, "number", nil)
	}
	return Number(tok.Raw), nil
}

func (d *Decoder) boolean(tok Token) (bool, error) {
	switch string(tok.Raw) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, d.numberError(tok, "bool (0, 1, true or false)", nil)
}

// ============================================================
// Errors
// ============================================================

func (d *Decoder) errAt(offset int, kind error) *Error {
	e := newError(d.data, offset, kind)
	e.File = d.opts.Filename
	return e
}

// fail poisons the decoder with err.
func (d *Decoder) fail(err error) error {
	var e *Error
	if errors.As(err, &e) && e.File == "" {
		e.File = d.opts.Filename
	}
	d.err = err
	return err
}

func (d *Decoder) mismatch(tok Token, expected string) error {
	e := d.errAt(tok.Offset, ErrTypeMismatch)
	e.Expected = expected
	e.Found = tok.Kind.String()
	return d.fail(e)
}

// badKey reports a token that cannot start a map key in a schema-free
// read.
func (d *Decoder) badKey(tok Token) error {
	e := d.errAt(tok.Offset, ErrUnknownMarker)
	e.Expected = "map key"
	if d.opts.StrictScalars && tok.Kind.IsScalar() {
		e.Expected = "string map key"
	}
	e.Found = fmt.Sprintf("%q", d.data[tok.Offset])
	return d.fail(e)
}

func (d *Decoder) truncated(tok Token) error {
	e := d.errAt(tok.Offset, ErrTruncatedInput)
	e.Expected = "value"
	e.Found = "end of input"
	return d.fail(e)
}

func (d *Decoder) numberError(tok Token, expected string, cause error) error {
	e := d.errAt(tok.Offset, ErrNumberFormat)
	e.Expected = expected
	e.Raw = tok.Raw
	if ne, ok := cause.(*strconv.NumError); ok {
		cause = ne.Err
	}
	e.Err = cause
	return d.fail(e)
}

func (d *Decoder) exhausted(f *frame) error {
	e := d.errAt(d.Offset(), ErrExhaustedCollection)
	e.Found = fmt.Sprintf("all %d entries of the %s at offset %d already read", f.count, f.kind, f.offset)
	return d.fail(e)
}

func (d *Decoder) unconsumed(f *frame, detail string) error {
	e := d.errAt(d.Offset(), ErrUnconsumedElements)
	if detail == "" {
		detail = fmt.Sprintf("%d of %d entries of the %s at offset %d not read", f.left(), f.count, f.kind, f.offset)
	}
	e.Found = detail
	return d.fail(e)
}

func intName(prefix string, bitSize int) string {
	if bitSize == 0 {
		return prefix
	}
	return prefix + strconv.Itoa(bitSize)
}
