package verification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RedactedSentinel is the placeholder providers send for withheld values.
const RedactedSentinel = "****"

// Kind is the JSON kind of a raw value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindComposite
)

// Value is a single provider attribute. Numbers keep their original literal
// so exports round-trip exactly.
type Value struct {
	kind Kind
	text string
}

// StringValue wraps a string attribute.
func StringValue(s string) Value { return Value{kind: KindString, text: s} }

// NumberValue wraps a JSON number literal such as "12345678901".
func NumberValue(literal string) Value { return Value{kind: KindNumber, text: literal} }

// NullValue is an explicit JSON null.
func NullValue() Value { return Value{kind: KindNull} }

// Kind reports the JSON kind of v.
func (v Value) Kind() Kind { return v.kind }

// Empty reports whether v carries no displayable information: null, the
// empty string or the redaction sentinel.
func (v Value) Empty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.text == "" || v.text == RedactedSentinel
	default:
		return false
	}
}

// String renders v for display. Numbers are normalised through decimal so
// large identifiers never appear in exponent form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindNumber:
		d, err := decimal.NewFromString(v.text)
		if err != nil {
			return v.text
		}
		return d.String()
	default:
		return v.text
	}
}

// MarshalJSON writes v back in its original JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return marshalString(v.text)
	default:
		return []byte(v.text), nil
	}
}

func valueFromJSON(raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Value{}, errors.New("empty value")
	}
	switch raw[0] {
	case 'n':
		return NullValue(), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case 't', 'f':
		return Value{kind: KindBool, text: string(raw)}, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return Value{}, err
		}
		return Value{kind: KindComposite, text: buf.String()}, nil
	default:
		return NumberValue(string(raw)), nil
	}
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// RawData is the loosely typed provider payload. It keeps the key order of
// the response so normalised sections are stable.
type RawData struct {
	keys   []string
	values map[string]Value
}

// ParseRawData decodes a provider data object. Empty input and null yield an
// empty bag.
func ParseRawData(b []byte) (RawData, error) {
	var d RawData
	if len(bytes.TrimSpace(b)) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return RawData{}, err
	}
	return d, nil
}

// Set stores value under key, appending key if it is new.
func (d *RawData) Set(key string, value Value) {
	if d.values == nil {
		d.values = make(map[string]Value)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key.
func (d RawData) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys in response order.
func (d RawData) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of attributes.
func (d RawData) Len() int { return len(d.keys) }

// UnmarshalJSON decodes an object while recording key order. Repeated keys
// keep their first position and their last value.
func (d *RawData) UnmarshalJSON(b []byte) error {
	*d = RawData{}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("provider data must be an object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		value, err := valueFromJSON(raw)
		if err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		d.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the bag as an object in its original key order.
func (d RawData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalString(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := d.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
