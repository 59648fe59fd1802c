package aa

// DecodeDocument decodes the single value at the start of data into a
// schema-free tree. Bytes after that value are ignored; use a Decoder
// and AtEnd to reject them.
func DecodeDocument(data []byte, opts ...Option) (*Value, error) {
	d := NewDecoder(data, opts...)
	return d.DecodeValue()
}

// DecodeValue decodes the next value into a schema-free tree, choosing
// the shape from the input itself.
func (d *Decoder) DecodeValue() (*Value, error) {
	tok, err := d.anyToken()
	if err != nil {
		return nil, err
	}
	return d.buildValue(tok)
}

// building is a collection whose children are still being read.
type building struct {
	v   *Value
	seq *SequenceAccess
	m   *MapAccess
	key string
}

// buildValue turns tok and everything nested under it into a Value. It
// keeps open collections on its own stack, so input depth never grows
// the goroutine stack.
func (d *Decoder) buildValue(tok Token) (*Value, error) {
	var stack []building
	for {
		var done *Value
		switch tok.Kind {
		case TokenString:
			s, err := d.text(tok)
			if err != nil {
				return nil, err
			}
			done = Str(s)

		case TokenNumber:
			n, err := d.number(tok)
			if err != nil {
				return nil, err
			}
			done = Num(n)

		case TokenBool:
			b, err := d.boolean(tok)
			if err != nil {
				return nil, err
			}
			done = Bool(b)

		case TokenSequence:
			seq, err := d.openSequence(tok)
			if err != nil {
				return nil, err
			}
			v := &Value{kind: KindSequence, items: make([]*Value, 0, capHint(seq.Len()))}
			stack = append(stack, building{v: v, seq: seq})

		case TokenMap:
			m, err := d.openMap(tok)
			if err != nil {
				return nil, err
			}
			v := &Value{kind: KindMap, pairs: make([]MapEntry, 0, capHint(m.Len()))}
			stack = append(stack, building{v: v, m: m})

		default:
			return nil, d.truncated(tok)
		}

		// Attach finished values to their parents and close parents that
		// are full, until a parent wants another child.
		for {
			if done != nil {
				if len(stack) == 0 {
					return done, nil
				}
				top := &stack[len(stack)-1]
				if top.seq != nil {
					top.v.items = append(top.v.items, done)
				} else {
					top.v.pairs = append(top.v.pairs, MapEntry{Key: top.key, Value: done})
				}
				done = nil
			}

			top := &stack[len(stack)-1]
			if top.seq != nil && top.seq.More() {
				break
			}
			if top.m != nil && top.m.More() {
				key, err := top.m.dynamicKey()
				if err != nil {
					return nil, err
				}
				top.key = key
				break
			}

			var err error
			if top.seq != nil {
				err = top.seq.End()
			} else {
				err = top.m.End()
			}
			if err != nil {
				return nil, err
			}
			done = top.v
			stack = stack[:len(stack)-1]
		}

		var err error
		tok, err = d.anyToken()
		if err != nil {
			return nil, err
		}
	}
}

// capHint bounds preallocation by a declared count.
func capHint(n int) int {
	if n > 1024 {
		return 1024
	}
	return n
}
