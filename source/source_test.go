package source

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/Neumenon/aa/aa"
)

const sampleDoc = "H2,S2,okN1,1S1,0N1,0"

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestRead_Compression(t *testing.T) {
	raw := []byte(sampleDoc)
	tests := []struct {
		name  string
		input []byte
		want  Compression
	}{
		{"raw", raw, CompressionNone},
		{"gzip", gzipBytes(t, raw), CompressionGzip},
		{"zstd", zstdBytes(t, raw), CompressionZstd},
	}

	plain, err := Read(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Read(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if doc.Compression != tt.want {
				t.Errorf("Compression = %s, want %s", doc.Compression, tt.want)
			}
			if !bytes.Equal(doc.Data, raw) {
				t.Errorf("Data = %q, want %q", doc.Data, raw)
			}
			if !SameContent(doc, plain) {
				t.Error("digest differs from the raw input")
			}

			v, err := aa.DecodeDocument(doc.Data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			js, _ := v.MarshalJSON()
			if string(js) != `{"ok":1,"0":0}` {
				t.Errorf("JSON = %s", js)
			}
		})
	}
}

func TestRead_WithoutDecompression(t *testing.T) {
	gz := gzipBytes(t, []byte(sampleDoc))
	doc, err := Read(bytes.NewReader(gz), WithoutDecompression())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Compression != CompressionNone || !bytes.Equal(doc.Data, gz) {
		t.Errorf("expected the compressed bytes untouched, got %s", doc.Compression)
	}
}

func TestRead_TooLarge(t *testing.T) {
	data := []byte(strings.Repeat("S1,x", 100))

	if _, err := Read(bytes.NewReader(data), WithMaxSize(int64(len(data)))); err != nil {
		t.Errorf("exact fit should load: %v", err)
	}

	_, err := Read(bytes.NewReader(data), WithMaxSize(int64(len(data)-1)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	// The bound applies to the decompressed size.
	_, err = Read(bytes.NewReader(gzipBytes(t, data)), WithMaxSize(64))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("gzip: expected ErrTooLarge, got %v", err)
	}
}

func TestRead_CorruptGzip(t *testing.T) {
	gz := gzipBytes(t, []byte(sampleDoc))
	_, err := Read(bytes.NewReader(gz[:len(gz)-6]))
	var se *Error
	if !errors.As(err, &se) || se.Op != "gzip" {
		t.Fatalf("expected gzip *Error, got %v", err)
	}
}

func TestRead_ShortInput(t *testing.T) {
	for _, input := range []string{"", "A", "\x1f"} {
		doc, err := Read(strings.NewReader(input))
		if err != nil {
			t.Errorf("%q: %v", input, err)
			continue
		}
		if string(doc.Data) != input || doc.Compression != CompressionNone {
			t.Errorf("%q: got %q (%s)", input, doc.Data, doc.Compression)
		}
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.aa.zst")
	if err := os.WriteFile(path, zstdBytes(t, []byte("S3,abc")), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if doc.Path != path || doc.Name() != path {
		t.Errorf("Path = %q", doc.Path)
	}
	if string(doc.Data) != "S3,abc" {
		t.Errorf("Data = %q", doc.Data)
	}
	same, err := Read(strings.NewReader("S3,abc"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.DigestHex() != same.DigestHex() {
		t.Error("digest of the decompressed file differs from the raw bytes")
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.aa"))
	var se *Error
	if !errors.As(err, &se) || se.Op != "open" {
		t.Fatalf("expected open *Error, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist in chain: %v", err)
	}
}

func TestDigestHex(t *testing.T) {
	doc, err := Read(strings.NewReader("abc"))
	if err != nil {
		t.Fatal(err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if doc.DigestHex() != want {
		t.Errorf("DigestHex = %s, want %s", doc.DigestHex(), want)
	}
	if doc.Name() != "<stdin>" {
		t.Errorf("Name = %q", doc.Name())
	}
	if SameContent(doc, nil) {
		t.Error("nil document should never match")
	}
}

func TestCompression_String(t *testing.T) {
	for c, want := range map[Compression]string{
		CompressionNone: "none",
		CompressionGzip: "gzip",
		CompressionZstd: "zstd",
		Compression(9):  "unknown(9)",
	} {
		if c.String() != want {
			t.Errorf("%d: got %s, want %s", c, c.String(), want)
		}
	}
}
