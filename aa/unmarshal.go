package aa

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Unmarshaler is implemented by types that decode themselves. The
// implementation must consume exactly one value from d.
type Unmarshaler interface {
	UnmarshalAA(d *Decoder) error
}

// InvalidUnmarshalError describes an invalid argument passed to Unmarshal
// or Decode.
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	if e.Type == nil {
		return "aa: Unmarshal(nil)"
	}
	if e.Type.Kind() != reflect.Pointer {
		return "aa: Unmarshal(non-pointer " + e.Type.String() + ")"
	}
	return "aa: Unmarshal(nil " + e.Type.String() + ")"
}

// Unmarshal decodes the first value in data into v, which must be a
// non-nil pointer.
//
// Maps bind to structs (by `aa:"name"` tag, then exact field name, then
// case-insensitive name) and to map[string]T; sequences bind to slices
// and arrays; scalars bind to strings, bools, numbers, []byte, Number
// and encoding.TextUnmarshaler. An `any` target receives the plain Go
// form of Value.Interface. Keys with no matching field are skipped.
// A zero-length scalar stored into a pointer leaves it nil.
func Unmarshal(data []byte, v any, opts ...Option) error {
	return NewDecoder(data, opts...).Decode(v)
}

// Decode decodes the next value into v, which must be a non-nil pointer.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &InvalidUnmarshalError{Type: reflect.TypeOf(v)}
	}
	return d.decodeInto(rv.Elem())
}

var (
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	valueType           = reflect.TypeFor[Value]()
	numberType          = reflect.TypeFor[Number]()
)

// emptyScalar consumes the next value if it is a zero-length scalar.
func (d *Decoder) emptyScalar() (bool, error) {
	if _, err := d.PeekKind(); err != nil {
		return false, err
	}
	if !d.peek.Kind.IsScalar() || len(d.peek.Raw) != 0 {
		return false, nil
	}
	if _, err := d.valueToken(); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Decoder) decodeInto(rv reflect.Value) error {
	if d.err != nil {
		return d.err
	}

	if rv.Kind() == reflect.Pointer {
		empty, err := d.emptyScalar()
		if err != nil {
			return err
		}
		if empty {
			rv.SetZero()
			return nil
		}
		if !rv.IsNil() {
			return d.decodeInto(rv.Elem())
		}
		p := reflect.New(rv.Type().Elem())
		if err := d.decodeInto(p.Elem()); err != nil {
			return err
		}
		rv.Set(p)
		return nil
	}

	if rv.CanAddr() {
		pt := rv.Addr().Type()
		if pt.Implements(unmarshalerType) {
			return rv.Addr().Interface().(Unmarshaler).UnmarshalAA(d)
		}
		if pt.Implements(textUnmarshalerType) {
			return d.decodeText(rv.Addr().Interface().(encoding.TextUnmarshaler), rv.Type())
		}
	}

	switch rv.Type() {
	case valueType:
		v, err := d.DecodeValue()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(*v))
		return nil
	case numberType:
		n, err := d.ExpectNumber()
		if err != nil {
			return err
		}
		rv.SetString(string(n))
		return nil
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return d.unsupported(rv.Type())
		}
		v, err := d.DecodeValue()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(v.Interface()))
		return nil

	case reflect.String:
		s, err := d.ExpectString()
		if err != nil {
			return err
		}
		rv.SetString(s)
		return nil

	case reflect.Bool:
		b, err := d.ExpectBool()
		if err != nil {
			return err
		}
		rv.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := d.ExpectInt(rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := d.ExpectUint(rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := d.ExpectFloat(rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetFloat(f)
		return nil

	case reflect.Slice:
		return d.decodeSlice(rv)

	case reflect.Array:
		return d.decodeArray(rv)

	case reflect.Map:
		return d.decodeMap(rv)

	case reflect.Struct:
		return d.decodeStruct(rv)

	default:
		return d.unsupported(rv.Type())
	}
}

func (d *Decoder) decodeText(u encoding.TextUnmarshaler, t reflect.Type) error {
	kind, err := d.PeekKind()
	if err != nil {
		return err
	}
	offset := d.Offset()
	s, err := d.ExpectString()
	if err != nil {
		return err
	}
	if err := u.UnmarshalText([]byte(s)); err != nil {
		e := d.errAt(offset, ErrTypeMismatch)
		e.Expected = t.String()
		e.Found = kind.String()
		e.Err = err
		return d.fail(e)
	}
	return nil
}

func (d *Decoder) decodeSlice(rv reflect.Value) error {
	kind, err := d.PeekKind()
	if err != nil {
		return err
	}
	// Byte slices also accept a scalar, copied out of the input buffer.
	if rv.Type().Elem().Kind() == reflect.Uint8 && kind.IsScalar() {
		b, err := d.ExpectBytes()
		if err != nil {
			return err
		}
		rv.SetBytes(append([]byte{}, b...))
		return nil
	}

	seq, err := d.BeginSequence()
	if err != nil {
		return err
	}
	out := reflect.MakeSlice(rv.Type(), 0, capHint(seq.Len()))
	for seq.More() {
		elem := reflect.New(rv.Type().Elem()).Elem()
		if err := d.decodeInto(elem); err != nil {
			return err
		}
		out = reflect.Append(out, elem)
	}
	if err := seq.End(); err != nil {
		return err
	}
	rv.Set(out)
	return nil
}

func (d *Decoder) decodeArray(rv reflect.Value) error {
	seq, err := d.BeginSequence()
	if err != nil {
		return err
	}
	i := 0
	for ; seq.More(); i++ {
		if i < rv.Len() {
			if err := d.decodeInto(rv.Index(i)); err != nil {
				return err
			}
			continue
		}
		if err := d.SkipValue(); err != nil {
			return err
		}
	}
	for ; i < rv.Len(); i++ {
		rv.Index(i).SetZero()
	}
	return seq.End()
}

func (d *Decoder) decodeMap(rv reflect.Value) error {
	t := rv.Type()
	if t.Key().Kind() != reflect.String {
		return d.unsupported(t)
	}
	m, err := d.BeginMap()
	if err != nil {
		return err
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(t, capHint(m.Len())))
	}
	for m.More() {
		key, err := m.NextKey()
		if err != nil {
			return err
		}
		elem := reflect.New(t.Elem()).Elem()
		if err := d.decodeInto(elem); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
	}
	return m.End()
}

func (d *Decoder) decodeStruct(rv reflect.Value) error {
	fields := cachedFields(rv.Type())
	m, err := d.BeginMap()
	if err != nil {
		return err
	}
	for m.More() {
		key, err := m.NextKey()
		if err != nil {
			return err
		}
		f := fields.lookup(key)
		if f == nil {
			if d.opts.DisallowUnknownFields {
				e := d.errAt(d.Offset(), ErrTypeMismatch)
				e.Expected = "a field of " + rv.Type().String()
				e.Found = fmt.Sprintf("unknown key %q", key)
				return d.fail(e)
			}
			if err := d.SkipValue(); err != nil {
				return err
			}
			continue
		}
		if err := d.decodeInto(rv.FieldByIndex(f.index)); err != nil {
			return err
		}
	}
	return m.End()
}

func (d *Decoder) unsupported(t reflect.Type) error {
	kind, err := d.PeekKind()
	if err != nil {
		return err
	}
	e := d.errAt(d.Offset(), ErrTypeMismatch)
	e.Expected = t.String()
	e.Found = kind.String() + " (unsupported target type)"
	return d.fail(e)
}

// ============================================================
// Struct field cache
// ============================================================

type field struct {
	name  string
	index []int
}

type structFields struct {
	list   []field
	byName map[string]int
	byFold map[string]int
}

func (s *structFields) lookup(key string) *field {
	if i, ok := s.byName[key]; ok {
		return &s.list[i]
	}
	if i, ok := s.byFold[strings.ToLower(key)]; ok {
		return &s.list[i]
	}
	return nil
}

var fieldCache sync.Map // map[reflect.Type]*structFields

func cachedFields(t reflect.Type) *structFields {
	if f, ok := fieldCache.Load(t); ok {
		return f.(*structFields)
	}
	f, _ := fieldCache.LoadOrStore(t, typeFields(t))
	return f.(*structFields)
}

// typeFields lists the decodable fields of t. Embedded structs are
// walked breadth-first: a field at a shallower depth hides deeper fields
// of the same name, and among fields at the same depth a single tagged
// one wins. Otherwise the ambiguous name is dropped.
func typeFields(t reflect.Type) *structFields {
	type embed struct {
		typ   reflect.Type
		index []int
	}
	sf := &structFields{
		byName: make(map[string]int),
		byFold: make(map[string]int),
	}
	taken := make(map[string]bool)
	visited := make(map[reflect.Type]bool)

	level := []embed{{typ: t}}
	for len(level) > 0 {
		var next []embed
		var order []string
		found := make(map[string][]fieldCandidate)

		for _, e := range level {
			if visited[e.typ] {
				continue
			}

			for i := 0; i < e.typ.NumField(); i++ {
				f := e.typ.Field(i)
				tag := f.Tag.Get("aa")
				if tag == "-" {
					continue
				}
				idx := append(append([]int{}, e.index...), i)
				if f.Anonymous && f.Type.Kind() == reflect.Struct && tag == "" {
					next = append(next, embed{typ: f.Type, index: idx})
					continue
				}
				if !f.IsExported() {
					continue
				}
				name, _, _ := strings.Cut(tag, ",")
				tagged := name != ""
				if !tagged {
					name = f.Name
				}
				if taken[name] {
					continue
				}
				if _, seen := found[name]; !seen {
					order = append(order, name)
				}
				found[name] = append(found[name], fieldCandidate{field{name: name, index: idx}, tagged})
			}
		}

		for _, e := range level {
			visited[e.typ] = true
		}
		for _, name := range order {
			taken[name] = true
			f, ok := dominantField(found[name])
			if !ok {
				continue
			}
			sf.list = append(sf.list, f)
			sf.byName[name] = len(sf.list) - 1
			if _, dup := sf.byFold[strings.ToLower(name)]; !dup {
				sf.byFold[strings.ToLower(name)] = len(sf.list) - 1
			}
		}
		level = next
	}
	return sf
}

// fieldCandidate is a field competing for a name at one depth.
type fieldCandidate struct {
	field
	tagged bool
}

// dominantField picks the field that owns a name among fields at the
// same depth.
func dominantField(cands []fieldCandidate) (field, bool) {
	if len(cands) == 1 {
		return cands[0].field, true
	}
	var win *fieldCandidate
	for i := range cands {
		if !cands[i].tagged {
			continue
		}
		if win != nil {
			return field{}, false
		}
		win = &cands[i]
	}
	if win == nil {
		return field{}, false
	}
	return win.field, true
}
