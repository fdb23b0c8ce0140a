package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the variant tag of a Value and the base of a declared Type.
type Kind uint8

const (
	Int Kind = iota
	Float
	Double
	String
)

// String returns the canonical type name used in graph documents.
func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Numeric reports whether values of this kind are mutually coercible with
// the other numeric kinds.
func (k Kind) Numeric() bool {
	return k == Int || k == Float || k == Double
}

// Value is a tagged scalar. The zero Value is Int 0.
type Value struct {
	kind Kind
	i    int32
	f    float32
	d    float64
	s    string
}

func IntValue(v int32) Value { return Value{kind: Int, i: v} }
func FloatValue(v float32) Value { return Value{kind: Float, f: v} }
func DoubleValue(v float64) Value { return Value{kind: Double, d: v} }
func StringValue(v string) Value { return Value{kind: String, s: v} }

// Zero returns the type-appropriate default for k: numeric zero or the empty
// string.
func Zero(k Kind) Value {
	return Value{kind: k}
}

// Bool encodes a boolean the way graph documents do: Int 1 or Int 0.
func Bool(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

func (v Value) Kind() Kind { return v.kind }

// Int returns the payload of an Int value and zero for every other variant.
func (v Value) Int() int32 {
	if v.kind != Int {
		return 0
	}
	return v.i
}

// Float returns the payload of a Float value and zero for every other variant.
func (v Value) Float() float32 {
	if v.kind != Float {
		return 0
	}
	return v.f
}

// Double returns the payload of a Double value and zero for every other
// variant.
func (v Value) Double() float64 {
	if v.kind != Double {
		return 0
	}
	return v.d
}

// Str returns the payload of a String value and "" for every other variant.
func (v Value) Str() string {
	if v.kind != String {
		return ""
	}
	return v.s
}

// Number widens any numeric variant to float64. Strings read as zero.
func (v Value) Number() float64 {
	switch v.kind {
	case Int:
		return float64(v.i)
	case Float:
		return float64(v.f)
	case Double:
		return v.d
	}
	return 0
}

// Equal reports whether both the variant tag and the payload match. Float
// payloads compare with ==, so NaN never equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f
	case Double:
		return v.d == o.d
	case String:
		return v.s == o.s
	}
	return false
}

// String renders the payload without any type decoration.
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(int64(v.i), 10)
	case Float:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case String:
		return v.s
	}
	return ""
}

// GoString makes test failures show the variant.
func (v Value) GoString() string {
	if v.kind == String {
		return fmt.Sprintf("string(%q)", v.s)
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// Coerce converts v to kind k with C cast semantics between numeric kinds
// (float to int truncates toward zero). A value already of kind k is
// returned untouched. Coercion between string and numeric kinds is not
// defined and yields Zero(k).
func Coerce(v Value, k Kind) Value {
	if v.kind == k {
		return v
	}
	if !v.kind.Numeric() || !k.Numeric() {
		return Zero(k)
	}
	switch k {
	case Int:
		return IntValue(truncInt32(v.Number()))
	case Float:
		if v.kind == Int {
			return FloatValue(float32(v.i))
		}
		return FloatValue(float32(v.d))
	default:
		return DoubleValue(v.Number())
	}
}

// truncInt32 mirrors a C (int32_t) cast for in-range values and saturates
// outside it, where C leaves the result undefined.
func truncInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}
