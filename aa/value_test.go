package aa

import (
	"math/rand/v2"
	"strconv"
	"testing"
)

// ============================================================
// Value Tests
// ============================================================

func TestDecodeDocument_Scenario(t *testing.T) {
	v, err := DecodeDocument([]byte("H2,S2,okN1,1S1,0N1,0"))
	if err != nil {
		t.Fatalf("DecodeDocument failed: %v", err)
	}
	if v.Kind() != KindMap || v.Len() != 2 {
		t.Fatalf("got %s with %d entries", v.Kind(), v.Len())
	}
	n, err := v.Get("ok").AsNumber()
	if err != nil || n != "1" {
		t.Errorf("ok = %q, %v", n, err)
	}
	n, err = v.Get("0").AsNumber()
	if err != nil || n != "0" {
		t.Errorf("0 = %q, %v", n, err)
	}
}

func TestDecodeDocument_Shapes(t *testing.T) {
	tests := []struct {
		input string
		want  *Value
	}{
		{"S0,", Str("")},
		{"S5,hello", Str("hello")},
		{"N4,-1.5", Num("-1.5")},
		{"B1,1", Bool(true)},
		{"B5,false", Bool(false)},
		{"A0,", Seq()},
		{"H0,", Map()},
		{"A2,S1,aN1,2", Seq(Str("a"), Int(2))},
		{"H1,S1,kA1,H0,", Map(Entry("k", Seq(Map())))},
		{"\n  A1,\r\n\tS1,x\n", Seq(Str("x"))},
		{"H1,N2,42S1,v", Map(Entry("42", Str("v")))},
	}
	for _, tt := range tests {
		got, err := DecodeDocument([]byte(tt.input))
		if err != nil {
			t.Errorf("%q: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.input, got.Interface(), tt.want.Interface())
		}
	}
}

func TestValue_DuplicateKeys(t *testing.T) {
	v, err := DecodeDocument([]byte("H3,S1,aN1,1S1,bN1,2S1,aN1,3"))
	if err != nil {
		t.Fatalf("DecodeDocument failed: %v", err)
	}

	pairs, err := v.AsMap()
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 3 {
		t.Fatalf("AsMap kept %d pairs, want 3", len(pairs))
	}

	if n, _ := v.Get("a").AsNumber(); n != "3" {
		t.Errorf("Get(a) = %q, want last value 3", n)
	}

	om, err := v.Unique()
	if err != nil {
		t.Fatal(err)
	}
	if om.Len() != 2 {
		t.Fatalf("Unique has %d keys, want 2", om.Len())
	}
	var keys []string
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Unique keys = %v, want [a b]", keys)
	}
	a, _ := om.Get("a")
	if n, _ := a.AsNumber(); n != "3" {
		t.Errorf("Unique a = %q, want 3", n)
	}

	m := v.Interface().(map[string]any)
	if m["a"] != Number("3") {
		t.Errorf("Interface a = %v, want 3", m["a"])
	}
}

func TestValue_Accessors(t *testing.T) {
	v := Seq(Str("x"), Bool(true))
	if _, err := v.AsStr(); err == nil {
		t.Error("AsStr on a sequence should fail")
	}
	item, err := v.Index(1)
	if err != nil {
		t.Fatal(err)
	}
	if b, err := item.AsBool(); err != nil || !b {
		t.Errorf("Index(1) = %v, %v", b, err)
	}
	if _, err := v.Index(2); err == nil {
		t.Error("Index out of bounds should fail")
	}
	if v.Get("x") != nil {
		t.Error("Get on a sequence should return nil")
	}

	v.Append(Int(7))
	if v.Len() != 3 {
		t.Errorf("Len after Append = %d", v.Len())
	}

	m := Map()
	m.Add("k", Str("1"))
	m.Add("k", Str("2"))
	if m.Len() != 2 {
		t.Errorf("Add should keep duplicates, Len = %d", m.Len())
	}

	var nilValue *Value
	if nilValue.Kind() != KindInvalid {
		t.Error("nil value should be KindInvalid")
	}
}

func TestRoundTrip(t *testing.T) {
	values := []*Value{
		Str(""),
		Str("S1,a"),
		Str("H2,A3,\n,,,"),
		Str("naïve “quotes”"),
		Num("0"),
		Num("-12.5e+3"),
		Num("+007"),
		Bool(true),
		Bool(false),
		Seq(),
		Map(),
		Seq(Seq(Seq()), Map(Entry("", Str("")))),
		Map(
			Entry("name", Str("Widget, large")),
			Entry("price", Num("19.99")),
			Entry("tags", Seq(Str("a"), Str("b"))),
			Entry("name", Str("duplicate")),
		),
	}
	for i, v := range values {
		data := encode(v)
		got, err := DecodeDocument(data)
		if err != nil {
			t.Errorf("value %d (%q): %v", i, data, err)
			continue
		}
		if !got.Equal(v) {
			t.Errorf("value %d (%q): round trip changed the value", i, data)
		}
	}
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		v := randomValue(rng, 4)
		data := encode(v)
		got, err := DecodeDocument(data)
		if err != nil {
			t.Fatalf("case %d (%q): %v", i, data, err)
		}
		if !got.Equal(v) {
			t.Fatalf("case %d (%q): round trip changed the value", i, data)
		}
		d := NewDecoder(data)
		if err := d.SkipValue(); err != nil || !d.AtEnd() {
			t.Fatalf("case %d: SkipValue = %v, AtEnd = %v", i, err, d.AtEnd())
		}
	}
}

var randomRunes = []rune("SNBAH,0123456789 \n\t\r-+.eé“”日")

func randomText(rng *rand.Rand) string {
	n := rng.IntN(12)
	rs := make([]rune, n)
	for i := range rs {
		rs[i] = randomRunes[rng.IntN(len(randomRunes))]
	}
	return string(rs)
}

func randomValue(rng *rand.Rand, depth int) *Value {
	pick := rng.IntN(5)
	if depth == 0 {
		pick = rng.IntN(3)
	}
	switch pick {
	case 0:
		return Str(randomText(rng))
	case 1:
		if rng.IntN(2) == 0 {
			return Int(rng.Int64N(1<<40) - 1<<39)
		}
		return Float(rng.NormFloat64() * 1e6)
	case 2:
		return Bool(rng.IntN(2) == 1)
	case 3:
		n := rng.IntN(5)
		items := make([]*Value, n)
		for i := range items {
			items[i] = randomValue(rng, depth-1)
		}
		return Seq(items...)
	default:
		n := rng.IntN(5)
		pairs := make([]MapEntry, n)
		for i := range pairs {
			pairs[i] = Entry(randomText(rng), randomValue(rng, depth-1))
		}
		return Map(pairs...)
	}
}

// sampleCatalog builds a ShopSite-like product list for benchmarks.
func sampleCatalog(n int) *Value {
	products := make([]*Value, n)
	for i := range products {
		products[i] = Map(
			Entry("sku", Str("SKU-"+strconv.Itoa(i))),
			Entry("name", Str("Product number "+strconv.Itoa(i)+", blue")),
			Entry("price", Float(float64(i)*1.25)),
			Entry("taxable", Bool(i%2 == 0)),
			Entry("categories", Seq(Str("Home"), Str("Garden"))),
			Entry("description", Str("Lorem ipsum dolor sit amet.\nSecond line.")),
		)
	}
	return Map(
		Entry("store", Str("Example Store")),
		Entry("products", Seq(products...)),
	)
}
