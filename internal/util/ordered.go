package util

import (
	"encoding/json"
	"fmt"
)

// WalkObject reads one JSON object from dec and calls fn for every member in
// document order. fn must consume exactly one value from dec. A JSON null is
// treated as an empty object.
func WalkObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	return WalkMembers(dec, fn)
}

// WalkMembers is WalkObject for a decoder that has already consumed the
// opening brace. It consumes the closing brace.
func WalkMembers(dec *json.Decoder, fn func(key string) error) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	// Closing brace.
	_, err := dec.Token()
	return err
}

// WalkArray reads one JSON array from dec and calls fn once per element.
// fn must consume exactly one value from dec. A JSON null is treated as an
// empty array.
func WalkArray(dec *json.Decoder, fn func(i int) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("expected JSON array, got %v", tok)
	}
	for i := 0; dec.More(); i++ {
		if err := fn(i); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	_, err = dec.Token()
	return err
}

// ObjectWriter builds a JSON object whose members keep insertion order.
type ObjectWriter struct {
	buf   []byte
	count int
	err   error
}

// NewObjectWriter starts an empty object.
func NewObjectWriter() *ObjectWriter {
	return &ObjectWriter{buf: []byte{'{'}}
}

// Field appends key: value, marshaling value with encoding/json.
func (w *ObjectWriter) Field(key string, value any) {
	if w.err != nil {
		return
	}
	k, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	v, err := json.Marshal(value)
	if err != nil {
		w.err = err
		return
	}
	if w.count > 0 {
		w.buf = append(w.buf, ',')
	}
	w.buf = append(w.buf, k...)
	w.buf = append(w.buf, ':')
	w.buf = append(w.buf, v...)
	w.count++
}

// Bytes closes the object and returns it.
func (w *ObjectWriter) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	out := make([]byte, len(w.buf), len(w.buf)+1)
	copy(out, w.buf)
	return append(out, '}'), nil
}
