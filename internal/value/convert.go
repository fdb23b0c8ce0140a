package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// ErrUnsupportedParameter is returned for document parameters that do not
// map onto a scalar Value (objects, arrays, null).
var ErrUnsupportedParameter = errors.New("unsupported parameter value")

// FromAny converts a decoded document scalar into a Value. Integers that fit
// in 32 bits become Int, other numbers become Double, booleans become Int
// 1/0 and strings stay strings.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return StringValue(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return fromInt64(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q", ErrUnsupportedParameter, v.String())
		}
		return DoubleValue(f), nil
	case int:
		return fromInt64(int64(v)), nil
	case int32:
		return IntValue(v), nil
	case int64:
		return fromInt64(v), nil
	case uint64:
		if v <= math.MaxInt32 {
			return IntValue(int32(v)), nil
		}
		return DoubleValue(float64(v)), nil
	case float32:
		return DoubleValue(float64(v)), nil
	case float64:
		return DoubleValue(v), nil
	case nil:
		return Value{}, fmt.Errorf("%w: null", ErrUnsupportedParameter)
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedParameter, raw)
}

// ToAny is the inverse of FromAny for document writers.
func ToAny(v Value) any {
	switch v.kind {
	case Int:
		return int64(v.i)
	case Float:
		return float64(v.f)
	case Double:
		return v.d
	}
	return v.s
}

func fromInt64(i int64) Value {
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return IntValue(int32(i))
	}
	return DoubleValue(float64(i))
}

// FromCty converts a known, non-null primitive cty value using the same
// mapping as FromAny. cty numbers carry no int/float distinction, so whole
// numbers within 32 bits decode as Int.
func FromCty(v cty.Value) (Value, error) {
	if v.IsNull() || !v.IsKnown() {
		return Value{}, fmt.Errorf("%w: null or unknown", ErrUnsupportedParameter)
	}
	switch v.Type() {
	case cty.Bool:
		return Bool(v.True()), nil
	case cty.String:
		return StringValue(v.AsString()), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return fromInt64(i), nil
			}
		}
		f, _ := bf.Float64()
		return DoubleValue(f), nil
	}
	return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedParameter, v.Type().FriendlyName())
}

// ToCty converts v into the cty value an HCL writer emits.
func ToCty(v Value) cty.Value {
	switch v.kind {
	case Int:
		return cty.NumberIntVal(int64(v.i))
	case Float:
		return cty.NumberFloatVal(float64(v.f))
	case Double:
		return cty.NumberFloatVal(v.d)
	}
	return cty.StringVal(v.s)
}
