package settings

import (
	"fmt"
	"strconv"
	"time"
)

// Type is the declared type of a setting value.
type Type int

// Supported value types. The zero Type is invalid.
const (
	TypeInvalid Type = iota
	TypeString
	TypeInteger
	TypeBoolean
	TypeDuration
	TypeFloat
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeDuration:
		return "duration"
	case TypeFloat:
		return "float"
	default:
		return "invalid"
	}
}

// Value is an immutable typed setting value.
type Value struct {
	typ Type
	s   string
	i   int64
	b   bool
	d   time.Duration
	f   float64
}

// String creates a string value.
func String(v string) Value { return Value{typ: TypeString, s: v} }

// Integer creates an integer value.
func Integer(v int64) Value { return Value{typ: TypeInteger, i: v} }

// Boolean creates a boolean value.
func Boolean(v bool) Value { return Value{typ: TypeBoolean, b: v} }

// Duration creates a duration value.
func Duration(v time.Duration) Value { return Value{typ: TypeDuration, d: v} }

// Float creates a float value.
func Float(v float64) Value { return Value{typ: TypeFloat, f: v} }

// Type returns the declared type of the value.
func (v Value) Type() Type { return v.typ }

// IsValid reports whether the value carries a type.
func (v Value) IsValid() bool { return v.typ != TypeInvalid }

// Equal reports type-and-value equality.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeString:
		return v.s == other.s
	case TypeInteger:
		return v.i == other.i
	case TypeBoolean:
		return v.b == other.b
	case TypeDuration:
		return v.d == other.d
	case TypeFloat:
		return v.f == other.f
	default:
		return true
	}
}

// Any returns the underlying Go value.
func (v Value) Any() any {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeInteger:
		return v.i
	case TypeBoolean:
		return v.b
	case TypeDuration:
		return v.d
	case TypeFloat:
		return v.f
	default:
		return nil
	}
}

// Text returns the value in its textual wire form.
func (v Value) Text() string {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeBoolean:
		return strconv.FormatBool(v.b)
	case TypeDuration:
		return FormatDuration(v.d)
	case TypeFloat:
		return formatFloat(v.f)
	default:
		return ""
	}
}

// GoString implements fmt.GoStringer for readable test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("%s(%s)", v.typ, v.Text())
}
