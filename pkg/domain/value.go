package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the canonical value kind a field may carry.
type Kind int

// Canonical value kinds shared by schema tables, property types, and readings.
const (
	KindUnknown Kind = iota
	// KindString holds free text.
	KindString
	// KindInteger holds a signed whole number.
	KindInteger
	// KindDecimal holds a floating-point number; NaN encodes "no data".
	KindDecimal
	// KindDate holds a calendar day.
	KindDate
	// KindDateTime holds an absolute instant.
	KindDateTime
)

// Textual profiles accepted for date-kinded values. All instants are UTC.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "STR"
	case KindInteger:
		return "INT"
	case KindDecimal:
		return "DEC"
	case KindDate:
		return "DATE"
	case KindDateTime:
		return "DATETIME"
	default:
		return "UNKNOWN"
	}
}

// ParseKind maps a schema token to a Kind. FLT is accepted as an alias of DEC.
func ParseKind(token string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "STR", "STRING":
		return KindString, true
	case "INT", "INTEGER":
		return KindInteger, true
	case "DEC", "FLT", "FLOAT", "DECIMAL":
		return KindDecimal, true
	case "DATE":
		return KindDate, true
	case "DATETIME", "DATE-TIME":
		return KindDateTime, true
	default:
		return KindUnknown, false
	}
}

// Value is the typed currency exchanged between the coercer, validator,
// merge engine, and augmentation engine. A Value is either a scalar or,
// after reading merge, a vector of scalars sharing one element kind.
type Value struct {
	kind  Kind
	text  string
	num   float64
	whole int64
	ts    time.Time
	elems []Value
}

// String constructs a string-kinded scalar.
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// Integer constructs an integer-kinded scalar.
func Integer(i int64) Value {
	return Value{kind: KindInteger, whole: i, num: float64(i), text: strconv.FormatInt(i, 10)}
}

// Decimal constructs a decimal-kinded scalar. NaN is the canonical
// missing-data value and formats as an empty string.
func Decimal(f float64) Value {
	v := Value{kind: KindDecimal, num: f}
	if !math.IsNaN(f) {
		v.text = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v
}

// Date constructs a date-kinded scalar truncated to the day in UTC.
func Date(t time.Time) Value {
	day := t.UTC().Truncate(24 * time.Hour)
	return Value{kind: KindDate, ts: day, text: day.Format(DateLayout)}
}

// DateTime constructs a datetime-kinded scalar in UTC, second precision.
func DateTime(t time.Time) Value {
	ts := t.UTC().Truncate(time.Second)
	return Value{kind: KindDateTime, ts: ts, text: ts.Format(DateTimeLayout)}
}

// Vector constructs a vector value from scalar elements. The element kind is
// recorded so empty vectors still coerce consistently.
func Vector(kind Kind, elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: kind, elems: cp}
}

// Kind returns the value kind (element kind for vectors).
func (v Value) Kind() Kind { return v.kind }

// IsVector reports whether the value holds parallel samples.
func (v Value) IsVector() bool { return v.elems != nil }

// Len returns the sample count: 1 for scalars, element count for vectors.
func (v Value) Len() int {
	if v.elems != nil {
		return len(v.elems)
	}
	return 1
}

// Index returns sample i. Scalars only answer index 0.
func (v Value) Index(i int) Value {
	if v.elems != nil {
		return v.elems[i]
	}
	return v
}

// Elems returns a copy of the vector elements, or the scalar as a one-element
// slice.
func (v Value) Elems() []Value {
	if v.elems == nil {
		return []Value{v}
	}
	out := make([]Value, len(v.elems))
	copy(out, v.elems)
	return out
}

// Append returns a vector with the sample added. Appending to a scalar
// promotes it to a two-element vector.
func (v Value) Append(sample Value) Value {
	elems := v.Elems()
	elems = append(elems, sample)
	return Vector(v.kind, elems)
}

// IsEmpty reports whether the value carries no data. NaN decimals count as
// empty for mandatory-field purposes.
func (v Value) IsEmpty() bool {
	if v.elems != nil {
		return len(v.elems) == 0
	}
	switch v.kind {
	case KindUnknown:
		return true
	case KindDecimal:
		return math.IsNaN(v.num) && v.text == ""
	default:
		return strings.TrimSpace(v.text) == ""
	}
}

// Text returns the canonical textual form.
func (v Value) Text() string { return v.text }

// Int returns the integral payload; valid for integer-kinded values.
func (v Value) Int() int64 { return v.whole }

// Float returns the numeric payload. Integer values convert; anything else
// yields NaN.
func (v Value) Float() float64 {
	switch v.kind {
	case KindDecimal:
		return v.num
	case KindInteger:
		return float64(v.whole)
	default:
		return math.NaN()
	}
}

// Time returns the absolute-time payload of date-kinded values.
func (v Value) Time() time.Time { return v.ts }

// Equal performs a NaN-aware comparison: two missing decimals compare equal
// so "no data" matches "no data". Vectors compare element-wise.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	if (v.elems == nil) != (other.elems == nil) {
		return false
	}
	if v.elems != nil {
		if len(v.elems) != len(other.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(other.elems[i]) {
				return false
			}
		}
		return true
	}
	switch v.kind {
	case KindDecimal:
		if math.IsNaN(v.num) && math.IsNaN(other.num) {
			return true
		}
		return v.num == other.num
	case KindInteger:
		return v.whole == other.whole
	case KindDate, KindDateTime:
		return v.ts.Equal(other.ts)
	default:
		return v.text == other.text
	}
}

// Coerce converts raw text into a value of the declared kind. Failure is
// signalled by the boolean, never by a panic or error: the caller decides
// severity. Empty input coerces to the kind's empty value.
func Coerce(raw string, kind Kind) (Value, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		switch kind {
		case KindDecimal:
			return Value{kind: KindDecimal, num: math.NaN()}, true
		default:
			return Value{kind: kind}, true
		}
	}
	switch kind {
	case KindString:
		return String(raw), true
	case KindInteger:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return Value{}, false
		}
		return Integer(i), true
	case KindDecimal:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsInf(f, 0) {
			return Value{}, false
		}
		return Decimal(f), true
	case KindDate:
		t, err := time.ParseInLocation(DateLayout, trimmed, time.UTC)
		if err != nil {
			return Value{}, false
		}
		return Date(t), true
	case KindDateTime:
		t, err := time.ParseInLocation(DateTimeLayout, trimmed, time.UTC)
		if err != nil {
			return Value{}, false
		}
		return DateTime(t), true
	default:
		return Value{}, false
	}
}

// InferKind guesses the kind of a value whose declared type is not yet
// known. Numeric forms win over date forms; anything else is a string.
func InferKind(raw string) Kind {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return KindString
	}
	if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return KindInteger
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) {
		return KindDecimal
	}
	if _, err := time.ParseInLocation(DateTimeLayout, trimmed, time.UTC); err == nil {
		return KindDateTime
	}
	if _, err := time.ParseInLocation(DateLayout, trimmed, time.UTC); err == nil {
		return KindDate
	}
	return KindString
}
