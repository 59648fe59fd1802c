package aa

import (
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind represents the shape of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
	KindSequence
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a schema-free AA value: the tree DecodeDocument builds.
type Value struct {
	kind Kind

	str   string
	num   Number
	b     bool
	items []*Value
	pairs []MapEntry
}

// MapEntry is one key/value pair of a map, in document order.
type MapEntry struct {
	Key   string
	Value *Value
}

// ============================================================
// Constructors
// ============================================================

// Str creates a string value.
func Str(s string) *Value {
	return &Value{kind: KindString, str: s}
}

// Num creates a number value from number text.
func Num(n Number) *Value {
	return &Value{kind: KindNumber, num: n}
}

// Int creates a number value from an integer.
func Int(n int64) *Value {
	return Num(Number(strconv.FormatInt(n, 10)))
}

// Float creates a number value from a float.
func Float(f float64) *Value {
	return Num(Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

// Bool creates a boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBool, b: b}
}

// Seq creates a sequence value.
func Seq(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{kind: KindSequence, items: items}
}

// Map creates a map value. Duplicate keys are kept as given.
func Map(entries ...MapEntry) *Value {
	if entries == nil {
		entries = []MapEntry{}
	}
	return &Value{kind: KindMap, pairs: entries}
}

// Entry creates a MapEntry for use with Map.
func Entry(key string, value *Value) MapEntry {
	return MapEntry{Key: key, Value: value}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value's shape.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindInvalid
	}
	return v.kind
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if err := v.expect(KindString); err != nil {
		return "", err
	}
	return v.str, nil
}

// AsNumber returns the number text.
func (v *Value) AsNumber() (Number, error) {
	if err := v.expect(KindNumber); err != nil {
		return "", err
	}
	return v.num, nil
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if err := v.expect(KindBool); err != nil {
		return false, err
	}
	return v.b, nil
}

// AsSeq returns the sequence elements.
func (v *Value) AsSeq() ([]*Value, error) {
	if err := v.expect(KindSequence); err != nil {
		return nil, err
	}
	return v.items, nil
}

// AsMap returns the map pairs in document order, duplicates included.
func (v *Value) AsMap() ([]MapEntry, error) {
	if err := v.expect(KindMap); err != nil {
		return nil, err
	}
	return v.pairs, nil
}

func (v *Value) expect(k Kind) error {
	if v == nil {
		return fmt.Errorf("aa: nil value")
	}
	if v.kind != k {
		return fmt.Errorf("aa: expected %s, got %s", k, v.kind)
	}
	return nil
}

// Len returns the length of a sequence or the pair count of a map.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindSequence:
		return len(v.items)
	case KindMap:
		return len(v.pairs)
	default:
		return 0
	}
}

// Get returns the value for key in a map. With duplicate keys the last
// one wins.
func (v *Value) Get(key string) *Value {
	if v.Kind() != KindMap {
		return nil
	}
	for i := len(v.pairs) - 1; i >= 0; i-- {
		if v.pairs[i].Key == key {
			return v.pairs[i].Value
		}
	}
	return nil
}

// Index returns the i-th element of a sequence.
func (v *Value) Index(i int) (*Value, error) {
	if v.Kind() != KindSequence {
		return nil, fmt.Errorf("aa: not a sequence")
	}
	if i < 0 || i >= len(v.items) {
		return nil, fmt.Errorf("aa: index %d out of bounds (len=%d)", i, len(v.items))
	}
	return v.items[i], nil
}

// Unique materializes a map into a key-unique ordered map. Keys keep the
// position of their first occurrence and the value of their last.
func (v *Value) Unique() (*orderedmap.OrderedMap[string, *Value], error) {
	if err := v.expect(KindMap); err != nil {
		return nil, err
	}
	om := orderedmap.New[string, *Value](len(v.pairs))
	for _, e := range v.pairs {
		om.Set(e.Key, e.Value)
	}
	return om, nil
}

// Interface converts the tree to plain Go values: string, Number, bool,
// []any and map[string]any (last duplicate key wins).
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindSequence:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.pairs))
		for _, e := range v.pairs {
			out[e.Key] = e.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports structural equality: same shapes, same scalars, same
// sequence order and same map pairs in the same order.
func (v *Value) Equal(o *Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for i := range v.pairs {
			if v.pairs[i].Key != o.pairs[i].Key || !v.pairs[i].Value.Equal(o.pairs[i].Value) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// ============================================================
// Mutators
// ============================================================

// Append adds a value to a sequence.
func (v *Value) Append(item *Value) {
	if v.Kind() != KindSequence {
		panic("aa: cannot append to non-sequence")
	}
	v.items = append(v.items, item)
}

// Add appends a pair to a map, keeping any earlier pair with the same key.
func (v *Value) Add(key string, val *Value) {
	if v.Kind() != KindMap {
		panic("aa: cannot add to non-map")
	}
	v.pairs = append(v.pairs, MapEntry{Key: key, Value: val})
}
