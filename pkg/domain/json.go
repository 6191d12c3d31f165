package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// MarshalJSON renders the value in its natural JSON form: strings for text
// and date kinds, numbers for numeric kinds, null for missing decimals, and
// arrays for vectors.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.elems != nil {
		return json.Marshal(v.elems)
	}
	switch v.kind {
	case KindInteger:
		return []byte(v.text), nil
	case KindDecimal:
		if math.IsNaN(v.num) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindUnknown:
		return []byte("null"), nil
	default:
		return json.Marshal(v.text)
	}
}

// UnmarshalJSON hydrates a value from its natural JSON form. Strings stay
// string-kinded until schema coercion assigns the declared kind; numbers
// become integers when written without a fraction.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty value payload")
	}
	switch trimmed[0] {
	case 'n':
		*v = Value{kind: KindDecimal, num: math.NaN()}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '[':
		var elems []Value
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return err
		}
		kind := KindUnknown
		for _, e := range elems {
			if e.Kind() != KindUnknown {
				kind = e.Kind()
				break
			}
		}
		*v = Vector(kind, elems)
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(trimmed, &num); err != nil {
			return err
		}
		text := num.String()
		if !strings.ContainsAny(text, ".eE") {
			if i, err := num.Int64(); err == nil {
				*v = Integer(i)
				return nil
			}
		}
		f, err := num.Float64()
		if err != nil {
			return err
		}
		*v = Decimal(f)
		return nil
	}
}

// MarshalJSON renders the field map as a JSON object in insertion order.
func (f FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range f.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON hydrates the field map preserving the source key order, so
// diagnostics reference fields in the order the producer wrote them.
func (f *FieldMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("field map: expected object, got %v", tok)
	}
	*f = FieldMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("field map: expected key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		f.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
