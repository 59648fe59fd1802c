package aa

// SequenceAccess is a cursor over one sequence's elements.
//
//	seq, err := d.BeginSequence()
//	for seq.More() {
//		if err := seq.NextElement(); err != nil { ... }
//		s, err := d.ExpectString()
//	}
//	err = seq.End()
//
// NextElement is optional before a read; reading through the Decoder
// claims the next element on its own.
type SequenceAccess struct {
	d     *Decoder
	level int
	id    uint64
	count int
}

// Len returns the declared element count.
func (s *SequenceAccess) Len() int {
	return s.count
}

// Remaining returns how many elements have not been claimed yet.
func (s *SequenceAccess) Remaining() int {
	return s.d.remaining(s.level, s.id)
}

// More reports whether another element is available.
func (s *SequenceAccess) More() bool {
	return s.d.err == nil && s.Remaining() > 0
}

// NextElement claims the next element; the following Decoder read
// consumes it. Claiming past the declared count fails with
// ErrExhaustedCollection, claiming again before the previous element was
// read fails with ErrUnconsumedElements.
func (s *SequenceAccess) NextElement() error {
	f, err := s.d.enter(s.level, s.id)
	if err != nil {
		return err
	}
	if f.claimed {
		return s.d.unconsumed(f, "previous element claimed but not read")
	}
	if f.slots == 0 {
		return s.d.exhausted(f)
	}
	f.slots--
	f.claimed = true
	return nil
}

// End closes the sequence. It fails with ErrUnconsumedElements unless
// every element has been read.
func (s *SequenceAccess) End() error {
	return s.d.leave(s.level, s.id)
}

// MapAccess is a cursor over one map's key/value pairs. Keys and values
// strictly alternate: NextKey, then the value (optionally announced with
// NextValue), then the next key.
type MapAccess struct {
	d     *Decoder
	level int
	id    uint64
	count int
}

// Len returns the declared pair count.
func (m *MapAccess) Len() int {
	return m.count
}

// Remaining returns how many pairs have not been started yet.
func (m *MapAccess) Remaining() int {
	return m.d.remaining(m.level, m.id) / 2
}

// More reports whether another key is available.
func (m *MapAccess) More() bool {
	return m.d.err == nil && m.Remaining() > 0
}

// NextKey reads the next key as text.
func (m *MapAccess) NextKey() (string, error) {
	tok, err := m.key(true)
	if err != nil {
		return "", err
	}
	return m.d.text(tok)
}

// NextKeyBytes reads the next key without validating it. The result
// aliases the input buffer.
func (m *MapAccess) NextKeyBytes() ([]byte, error) {
	tok, err := m.key(true)
	if err != nil {
		return nil, err
	}
	return tok.Raw, nil
}

// NextValue claims the value belonging to the key just read. The
// following Decoder read consumes it.
func (m *MapAccess) NextValue() error {
	f, err := m.d.enter(m.level, m.id)
	if err != nil {
		return err
	}
	if f.claimed {
		return m.d.unconsumed(f, "value claimed but not read")
	}
	if f.slots == 0 {
		return m.d.exhausted(f)
	}
	if f.keyDue() {
		return m.d.unconsumed(f, "key not read before its value")
	}
	f.slots--
	f.claimed = true
	return nil
}

// End closes the map. It fails with ErrUnconsumedElements unless every
// pair has been read.
func (m *MapAccess) End() error {
	return m.d.leave(m.level, m.id)
}

// dynamicKey reads the next key for a schema-free decode.
func (m *MapAccess) dynamicKey() (string, error) {
	tok, err := m.key(false)
	if err != nil {
		return "", err
	}
	return m.d.text(tok)
}

// key reads the next key token. A typed read reports a collection in key
// position as a type mismatch; a schema-free read reports it as a marker
// that cannot start a key.
func (m *MapAccess) key(typed bool) (Token, error) {
	d := m.d
	f, err := d.enter(m.level, m.id)
	if err != nil {
		return Token{}, err
	}
	if f.claimed {
		return Token{}, d.unconsumed(f, "value claimed but not read")
	}
	if f.slots == 0 {
		return Token{}, d.exhausted(f)
	}
	if !f.keyDue() {
		return Token{}, d.unconsumed(f, "value of the previous key not read")
	}
	f.slots--

	tok, err := d.nextToken()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind == TokenEOF {
		return Token{}, d.truncated(tok)
	}
	if !tok.Kind.IsScalar() || (d.opts.StrictScalars && tok.Kind != TokenString) {
		if !typed {
			return Token{}, d.badKey(tok)
		}
		return Token{}, d.mismatch(tok, "map key")
	}
	return tok, nil
}

// ============================================================
// Frame bookkeeping
// ============================================================

// enter makes the frame at level the innermost one. Nested collections
// above it must be complete; they are closed on the way.
func (d *Decoder) enter(level int, id uint64) (*frame, error) {
	if d.err != nil {
		return nil, d.err
	}
	if level >= len(d.stack) || d.stack[level].id != id {
		e := d.errAt(d.Offset(), ErrExhaustedCollection)
		e.Found = "collection already closed"
		return nil, d.fail(e)
	}
	for i := len(d.stack) - 1; i > level; i-- {
		if !d.stack[i].done() {
			return nil, d.unconsumed(&d.stack[i], "")
		}
	}
	d.stack = d.stack[:level+1]
	return &d.stack[level], nil
}

func (d *Decoder) leave(level int, id uint64) error {
	f, err := d.enter(level, id)
	if err != nil {
		return err
	}
	if !f.done() {
		return d.unconsumed(f, "")
	}
	d.stack = d.stack[:level]
	return nil
}

func (d *Decoder) remaining(level int, id uint64) int {
	if level >= len(d.stack) || d.stack[level].id != id {
		return 0
	}
	return d.stack[level].slots
}
