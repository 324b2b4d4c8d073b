package ingestion

import (
	"fmt"
	"math"
	"strconv"
)

// Value represents a typed cell value with an explicit missing marker
type Value struct {
	Type      ValueType `json:"type"`
	IntVal    *int64    `json:"int_val,omitempty"`
	FloatVal  *float64  `json:"float_val,omitempty"`
	TextVal   *string   `json:"text_val,omitempty"`
	IsMissing bool      `json:"is_missing"`
}

// ValueType defines the storage type for values
type ValueType string

const (
	ValueTypeInteger ValueType = "integer"
	ValueTypeFloat   ValueType = "float"
	ValueTypeText    ValueType = "text"
	ValueTypeMissing ValueType = "missing"
)

// NewIntegerValue creates an integer value
func NewIntegerValue(n int64) Value {
	return Value{Type: ValueTypeInteger, IntVal: &n}
}

// NewFloatValue creates a floating-point value. NaN is stored as missing.
func NewFloatValue(f float64) Value {
	if math.IsNaN(f) {
		return NewMissingValue()
	}
	return Value{Type: ValueTypeFloat, FloatVal: &f}
}

// NewTextValue creates a text value. Empty text is a valid, present value.
func NewTextValue(s string) Value {
	return Value{Type: ValueTypeText, TextVal: &s}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{Type: ValueTypeMissing, IsMissing: true}
}

// Absent reports whether the value is missing. The zero Value is missing.
func (v Value) Absent() bool {
	switch v.Type {
	case ValueTypeInteger:
		return v.IntVal == nil
	case ValueTypeFloat:
		return v.FloatVal == nil
	case ValueTypeText:
		return v.TextVal == nil
	}
	return true
}

// IsNumeric returns true if the value is a present integer or float
func (v Value) IsNumeric() bool {
	return (v.Type == ValueTypeInteger && v.IntVal != nil) ||
		(v.Type == ValueTypeFloat && v.FloatVal != nil)
}

// IsInteger returns true if the value is a present integer
func (v Value) IsInteger() bool {
	return v.Type == ValueTypeInteger && v.IntVal != nil
}

// IsText returns true if the value is present text
func (v Value) IsText() bool {
	return v.Type == ValueTypeText && v.TextVal != nil
}

// AsFloat64 returns the numeric value as float64 and whether it was numeric
func (v Value) AsFloat64() (float64, bool) {
	switch {
	case v.IsInteger():
		return float64(*v.IntVal), true
	case v.Type == ValueTypeFloat && v.FloatVal != nil:
		return *v.FloatVal, true
	}
	return 0, false
}

// AsInt64 returns the integer value and whether the value was an integer
func (v Value) AsInt64() (int64, bool) {
	if v.IsInteger() {
		return *v.IntVal, true
	}
	return 0, false
}

// AsString returns the text value, or empty string if not text
func (v Value) AsString() string {
	if v.TextVal != nil {
		return *v.TextVal
	}
	return ""
}

// Interface returns nil, int64, float64 or string.
func (v Value) Interface() interface{} {
	switch {
	case v.Absent():
		return nil
	case v.IsInteger():
		return *v.IntVal
	case v.IsText():
		return *v.TextVal
	}
	f, _ := v.AsFloat64()
	return f
}

// Equal compares two values. Missing equals missing, integers and floats
// compare numerically, text compares exactly and never equals a number.
func (v Value) Equal(other Value) bool {
	if v.Absent() || other.Absent() {
		return v.Absent() && other.Absent()
	}
	if v.IsText() || other.IsText() {
		return v.IsText() && other.IsText() && *v.TextVal == *other.TextVal
	}
	if v.IsInteger() && other.IsInteger() {
		return *v.IntVal == *other.IntVal
	}
	a, _ := v.AsFloat64()
	b, _ := other.AsFloat64()
	return a == b
}

// Canonical returns an encoding that is identical for any two Equal values.
// Distinct values may share an encoding only for integers beyond 2^53.
func (v Value) Canonical() string {
	switch {
	case v.Absent():
		return "a"
	case v.IsText():
		return "t:" + *v.TextVal
	}
	f, _ := v.AsFloat64()
	if f == 0 {
		f = 0 // fold -0 into 0
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// String returns the string representation of the value
func (v Value) String() string {
	switch {
	case v.Absent():
		return "<missing>"
	case v.IsInteger():
		return strconv.FormatInt(*v.IntVal, 10)
	case v.IsText():
		return *v.TextVal
	}
	f, _ := v.AsFloat64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// GoString makes %#v output readable in test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("%s(%s)", v.Type, v.String())
}
