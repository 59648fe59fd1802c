package aa

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

// ============================================================
// Unmarshal Tests
// ============================================================

type Dimensions struct {
	Width  float64 `aa:"w"`
	Height float64 `aa:"h"`
}

type Audit struct {
	Created time.Time `aa:"created"`
	Editor  string    `aa:"editor"`
}

type Product struct {
	Audit

	SKU        string            `aa:"sku"`
	Name       string            `aa:"name"`
	Price      float64           `aa:"price"`
	Quantity   uint16            `aa:"qty"`
	Taxable    bool              `aa:"taxable"`
	Categories []string          `aa:"categories"`
	Attributes map[string]string `aa:"attributes"`
	Size       *Dimensions       `aa:"size"`
	Raw        []byte            `aa:"raw"`
	Extra      any               `aa:"extra"`
	Notes      *Value            `aa:"notes"`
	Weight     Number            `aa:"weight"`
	Internal   string            `aa:"-"`
	Discount   int
}

func productDoc() *Value {
	return Map(
		Entry("sku", Str("W-100")),
		Entry("name", Str("Widget")),
		Entry("price", Num("19.99")),
		Entry("qty", Num("12")),
		Entry("taxable", Bool(true)),
		Entry("categories", Seq(Str("Home"), Str("Garden"))),
		Entry("attributes", Map(Entry("color", Str("blue")), Entry("finish", Str("matte")))),
		Entry("size", Map(Entry("w", Num("2.5")), Entry("h", Num("4")))),
		Entry("raw", Str("\x00\x01")),
		Entry("extra", Seq(Str("x"), Num("1"), Bool(false))),
		Entry("notes", Map(Entry("a", Str("b")))),
		Entry("weight", Num("0.750")),
		Entry("Internal", Str("ignored")),
		Entry("discount", Num("-3")),
		Entry("created", Str("2024-03-01T10:00:00Z")),
		Entry("editor", Str("kim")),
		Entry("unknown", Seq(Map(Entry("deep", Str("\xff\xfe"))))),
	)
}

func TestUnmarshal_Struct(t *testing.T) {
	var p Product
	if err := Unmarshal(encode(productDoc()), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if p.SKU != "W-100" || p.Name != "Widget" || p.Price != 19.99 || p.Quantity != 12 || !p.Taxable {
		t.Errorf("scalars = %+v", p)
	}
	if !reflect.DeepEqual(p.Categories, []string{"Home", "Garden"}) {
		t.Errorf("Categories = %v", p.Categories)
	}
	if p.Attributes["color"] != "blue" || p.Attributes["finish"] != "matte" {
		t.Errorf("Attributes = %v", p.Attributes)
	}
	if p.Size == nil || p.Size.Width != 2.5 || p.Size.Height != 4 {
		t.Errorf("Size = %+v", p.Size)
	}
	if string(p.Raw) != "\x00\x01" {
		t.Errorf("Raw = %q", p.Raw)
	}
	if !reflect.DeepEqual(p.Extra, []any{"x", Number("1"), false}) {
		t.Errorf("Extra = %#v", p.Extra)
	}
	if p.Notes == nil || p.Notes.Get("a") == nil {
		t.Errorf("Notes = %v", p.Notes)
	}
	if p.Weight != "0.750" {
		t.Errorf("Weight = %q", p.Weight)
	}
	if p.Internal != "" {
		t.Errorf("Internal = %q, want skipped", p.Internal)
	}
	if p.Discount != -3 {
		t.Errorf("Discount = %d (case-insensitive match)", p.Discount)
	}
	if !p.Created.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) || p.Editor != "kim" {
		t.Errorf("Audit = %+v", p.Audit)
	}
}

func TestUnmarshal_RawBytesAreCopied(t *testing.T) {
	data := []byte("S3,abc")
	var b []byte
	if err := Unmarshal(data, &b); err != nil {
		t.Fatal(err)
	}
	data[3] = 'x'
	if string(b) != "abc" {
		t.Errorf("[]byte should not alias the input, got %q", b)
	}
}

func TestUnmarshal_DisallowUnknownFields(t *testing.T) {
	var p Product
	err := Unmarshal(encode(productDoc()), &p, WithDisallowUnknownFields())
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), `unknown key "Internal"`) {
		t.Errorf("error should name the key: %v", err)
	}
}

func TestUnmarshal_Containers(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		arr := [3]int{9, 9, 9}
		if err := Unmarshal([]byte("A2,N1,1N1,2"), &arr); err != nil {
			t.Fatal(err)
		}
		if arr != [3]int{1, 2, 0} {
			t.Errorf("arr = %v", arr)
		}
	})

	t.Run("array overflow", func(t *testing.T) {
		var arr [1]string
		if err := Unmarshal([]byte("A3,S1,aS1,bS1,c"), &arr); err != nil {
			t.Fatal(err)
		}
		if arr[0] != "a" {
			t.Errorf("arr = %v", arr)
		}
	})

	t.Run("nested slices", func(t *testing.T) {
		var got [][]int
		if err := Unmarshal([]byte("A2,A2,N1,1N1,2A0,"), &got); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, [][]int{{1, 2}, {}}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("map of any", func(t *testing.T) {
		var got map[string]any
		if err := Unmarshal([]byte("H2,S1,aB1,1S1,bH0,"), &got); err != nil {
			t.Fatal(err)
		}
		want := map[string]any{"a": true, "b": map[string]any{}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %#v", got)
		}
	})

	t.Run("pointer to pointer", func(t *testing.T) {
		var got **string
		if err := Unmarshal([]byte("S2,hi"), &got); err != nil {
			t.Fatal(err)
		}
		if got == nil || *got == nil || **got != "hi" {
			t.Errorf("got %v", got)
		}
	})
}

func TestUnmarshal_EmptyScalarIsNil(t *testing.T) {
	var got struct {
		A *string
		B *int
		C *bool
		D *string
		E []*float64
	}
	def := "old"
	got.A = &def
	input := "H5,S1,AS0,S1,BS0,S1,CB0,S1,DS2,hiS1,EA2,N0,N3,1.5"
	if err := Unmarshal([]byte(input), &got); err != nil {
		t.Fatal(err)
	}
	if got.A != nil || got.B != nil || got.C != nil {
		t.Errorf("empty scalars should leave nil pointers: %v %v %v", got.A, got.B, got.C)
	}
	if got.D == nil || *got.D != "hi" {
		t.Errorf("D = %v", got.D)
	}
	if len(got.E) != 2 || got.E[0] != nil || got.E[1] == nil || *got.E[1] != 1.5 {
		t.Errorf("E = %v", got.E)
	}

	// A failed decode must not leave a half-filled pointer behind.
	var bad struct{ B *int }
	err := Unmarshal([]byte("H1,S1,BS1,x"), &bad)
	if !errors.Is(err, ErrNumberFormat) {
		t.Fatalf("expected ErrNumberFormat, got %v", err)
	}
	if bad.B != nil {
		t.Errorf("B = %v, want nil after a failed decode", *bad.B)
	}
}

type (
	Label   struct{ Name string }
	Labeled struct{ Label }
	Titled  struct{ Name string }
	Tagged  struct {
		Title string `aa:"Name"`
	}
)

func TestUnmarshal_EmbeddedFieldPrecedence(t *testing.T) {
	t.Run("shallower field wins", func(t *testing.T) {
		var got struct {
			Labeled
			Titled
		}
		if err := Unmarshal([]byte("H1,S4,NameS1,x"), &got); err != nil {
			t.Fatal(err)
		}
		if got.Titled.Name != "x" || got.Labeled.Label.Name != "" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("tagged field wins at the same depth", func(t *testing.T) {
		var got struct {
			Titled
			Tagged
		}
		if err := Unmarshal([]byte("H1,S4,NameS1,x"), &got); err != nil {
			t.Fatal(err)
		}
		if got.Tagged.Title != "x" || got.Titled.Name != "" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("ambiguous name is dropped", func(t *testing.T) {
		var got struct {
			Label
			Titled
		}
		err := Unmarshal([]byte("H1,S4,NameS1,x"), &got, WithDisallowUnknownFields())
		if err == nil || !strings.Contains(err.Error(), `unknown key "Name"`) {
			t.Errorf("expected the ambiguous key to be unknown, got %v", err)
		}
	})
}

type celsius float64

func (c *celsius) UnmarshalAA(d *Decoder) error {
	s, err := d.ExpectString()
	if err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "C"), 64)
	if err != nil {
		return err
	}
	*c = celsius(f)
	return nil
}

func TestUnmarshal_Unmarshaler(t *testing.T) {
	var temps []celsius
	if err := Unmarshal([]byte("A2,S3,21CS4,-4.5"), &temps); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(temps, []celsius{21, -4.5}) {
		t.Errorf("temps = %v", temps)
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		into  any
		kind  error
	}{
		{"string into int", "S1,x", new(int), ErrNumberFormat},
		{"map into slice", "H0,", new([]int), ErrTypeMismatch},
		{"seq into struct", "A0,", new(Dimensions), ErrTypeMismatch},
		{"int overflow", "N3,256", new(uint8), ErrNumberFormat},
		{"bad time", "S3,now", new(time.Time), ErrTypeMismatch},
		{"unsupported", "S1,x", new(chan int), ErrTypeMismatch},
		{"int map keys", "H0,", new(map[int]string), ErrTypeMismatch},
		{"truncated", "H1,S1,w", new(Dimensions), ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal([]byte(tt.input), tt.into)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestUnmarshal_InvalidTarget(t *testing.T) {
	var p Product
	for _, target := range []any{nil, p, (*Product)(nil)} {
		err := Unmarshal([]byte("H0,"), target)
		var ie *InvalidUnmarshalError
		if !errors.As(err, &ie) {
			t.Errorf("Unmarshal(%T) = %v, want *InvalidUnmarshalError", target, err)
		}
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	type catalog struct {
		Store    string    `aa:"store"`
		Products []Product `aa:"products"`
	}
	data := encode(sampleCatalog(200))
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var c catalog
		if err := Unmarshal(data, &c); err != nil {
			b.Fatal(err)
		}
	}
}
