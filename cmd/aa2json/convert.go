package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Neumenon/aa/aa"
	"github.com/Neumenon/aa/source"
)

// converter turns loaded documents into JSON under one configuration.
type converter struct {
	cfg     Config
	charset aa.Charset
	log     zerolog.Logger
}

func newConverter(cfg Config, log zerolog.Logger) (*converter, error) {
	cs, err := aa.ParseCharset(cfg.Charset)
	if err != nil {
		return nil, err
	}
	return &converter{cfg: cfg, charset: cs, log: log}, nil
}

// load reads path, or stdin when path is empty.
func (c *converter) load(path string, stdin io.Reader) (*source.Document, error) {
	opts := []source.Option{source.WithMaxSize(c.cfg.MaxInputBytes)}
	if path == "" {
		return source.Read(stdin, opts...)
	}
	return source.Open(path, opts...)
}

// render decodes doc and returns its JSON, newline included.
func (c *converter) render(doc *source.Document) ([]byte, error) {
	log := c.log.With().Str("run", uuid.NewString()).Str("input", doc.Name()).Logger()
	start := time.Now()

	d := aa.NewDecoder(doc.Data,
		aa.WithMaxDepth(c.cfg.MaxDepth),
		aa.WithCharset(c.charset),
		aa.WithFilename(doc.Name()),
	)
	v, err := d.DecodeValue()
	if err != nil {
		return nil, err
	}
	if !d.AtEnd() {
		if c.cfg.Strict {
			return nil, fmt.Errorf("%s: unexpected data after the document at offset %d", doc.Name(), d.Offset())
		}
		log.Warn().Int("offset", d.Offset()).Msg("ignoring data after the document")
	}

	out, err := aa.ToJSON(v, aa.JSONOptions{Indent: c.cfg.indent()})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Name(), err)
	}

	log.Debug().
		Int("bytes", len(doc.Data)).
		Str("sha256", doc.DigestHex()).
		Stringer("compression", doc.Compression).
		Dur("elapsed", time.Since(start)).
		Msg("converted")
	return append(out, '\n'), nil
}

// convert writes the JSON for doc to w.
func (c *converter) convert(doc *source.Document, w io.Writer) error {
	out, err := c.render(doc)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// convertToFile writes the JSON for doc to path. The file is only
// created or truncated once decoding has succeeded.
func (c *converter) convertToFile(doc *source.Document, path string) error {
	out, err := c.render(doc)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := f.Write(out); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
