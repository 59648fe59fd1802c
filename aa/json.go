package aa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mailru/easyjson/jwriter"
)

// ============================================================
// JSON rendering
// ============================================================
//
// Maps become objects with keys in document order (duplicate keys are
// written as they appear), sequences become arrays, numbers are written
// verbatim when they already are JSON numbers.

// JSONOptions configures WriteJSON.
type JSONOptions struct {
	// Indent enables pretty printing with this indent unit (e.g. "    "
	// or "\t"). Empty means compact output.
	Indent string
}

// MarshalJSON renders the value as compact JSON.
func (v *Value) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	if err := writeJSON(&w, v); err != nil {
		return nil, err
	}
	return w.BuildBytes()
}

// ToJSON renders the value as JSON with the given options.
func ToJSON(v *Value, opts JSONOptions) ([]byte, error) {
	compact, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if opts.Indent == "" {
		return compact, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", opts.Indent); err != nil {
		return nil, fmt.Errorf("aa: indent JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJSON renders the value to out, followed by a newline.
func WriteJSON(out io.Writer, v *Value, opts JSONOptions) error {
	data, err := ToJSON(v, opts)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return err
}

func writeJSON(w *jwriter.Writer, v *Value) error {
	switch v.Kind() {
	case KindString:
		w.String(v.str)

	case KindNumber:
		text, ok := v.num.JSON()
		if !ok {
			return fmt.Errorf("aa: %q is not a number", string(v.num))
		}
		w.RawString(text)

	case KindBool:
		w.Bool(v.b)

	case KindSequence:
		w.RawByte('[')
		for i, item := range v.items {
			if i > 0 {
				w.RawByte(',')
			}
			if err := writeJSON(w, item); err != nil {
				return err
			}
		}
		w.RawByte(']')

	case KindMap:
		w.RawByte('{')
		for i, e := range v.pairs {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(e.Key)
			w.RawByte(':')
			if err := writeJSON(w, e.Value); err != nil {
				return err
			}
		}
		w.RawByte('}')

	default:
		w.RawString("null")
	}
	return w.Error
}
