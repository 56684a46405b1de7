// Package types provides core data types for the datagroom cleaning pipeline.
package types

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of a single cell value.
type Kind int

const (
	// KindMissing marks an absent value. It is the zero Kind.
	KindMissing Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// ParseKind maps a kind name back to its Kind. Unrecognized names are
// reported as KindString so that round-tripped data stays readable.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "missing":
		return KindMissing, true
	case "str":
		return KindString, true
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "bool":
		return KindBool, true
	case "datetime":
		return KindTime, true
	}
	return KindString, false
}

// IsNumeric reports whether the kind is int or float.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a single table cell. Only the field matching Kind is meaningful.
// The zero Value is the missing cell.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
}

// MissingValue returns the missing cell.
func MissingValue() Value {
	return Value{}
}

// StringValue returns a string cell.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// IntValue returns an integer cell.
func IntValue(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

// FloatValue returns a float cell.
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// BoolValue returns a boolean cell.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// TimeValue returns a datetime cell.
func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool {
	return v.Kind == KindMissing
}

// String renders the cell as text. Missing cells render as the empty string,
// times as RFC 3339, floats with the shortest exact representation.
func (v Value) String() string {
	switch v.Kind {
	case KindMissing:
		return ""
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// AsFloat coerces the cell to a float64. String cells are parsed, bool cells
// map to 1/0, time and missing cells do not coerce.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Equal reports whether two cells hold the same value. Int and float cells
// compare numerically, so IntValue(5) equals FloatValue(5).
func (v Value) Equal(o Value) bool {
	if v.Kind == KindMissing || o.Kind == KindMissing {
		return v.Kind == o.Kind
	}
	if v.Kind.IsNumeric() && o.Kind.IsNumeric() {
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		return a == b
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindTime:
		return v.Time.Equal(o.Time)
	default:
		return false
	}
}

// Less orders two cells of comparable kinds. Numeric cells order numerically,
// strings lexicographically, times chronologically. Mixed or missing kinds
// report false for ok.
func (v Value) Less(o Value) (less, ok bool) {
	if vf, vok := v.AsFloat(); vok {
		if of, ook := o.AsFloat(); ook {
			return vf < of, true
		}
	}
	if v.Kind == KindString && o.Kind == KindString {
		return v.Str < o.Str, true
	}
	if v.Kind == KindTime && o.Kind == KindTime {
		return v.Time.Before(o.Time), true
	}
	return false, false
}
