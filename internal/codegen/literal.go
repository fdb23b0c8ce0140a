package codegen

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vk/nodeflowgo/internal/value"
)

// cType is the C type of a numeric kind.
func cType(k value.Kind) string {
	switch k {
	case value.Int:
		return "int32_t"
	case value.Float:
		return "float"
	case value.Double:
		return "double"
	}
	panic(fmt.Sprintf("codegen: no C type for %s", k))
}

// cLiteral renders v exactly. Floating-point values use C99 hex notation so
// no decimal round trip is involved.
func cLiteral(v value.Value) string {
	switch v.Kind() {
	case value.Int:
		if v.Int() == math.MinInt32 {
			return "(-2147483647 - 1)"
		}
		return strconv.FormatInt(int64(v.Int()), 10)
	case value.Float:
		f := float64(v.Float())
		if s, ok := cSpecial(f, "f"); ok {
			return s
		}
		return strconv.FormatFloat(f, 'x', -1, 32) + "f"
	case value.Double:
		d := v.Double()
		if s, ok := cSpecial(d, ""); ok {
			return s
		}
		return strconv.FormatFloat(d, 'x', -1, 64)
	}
	panic(fmt.Sprintf("codegen: no C literal for %s", v.Kind()))
}

func cSpecial(f float64, suffix string) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "(0.0" + suffix + " / 0.0" + suffix + ")", true
	case math.IsInf(f, 1):
		return "(1.0" + suffix + " / 0.0" + suffix + ")", true
	case math.IsInf(f, -1):
		return "(-1.0" + suffix + " / 0.0" + suffix + ")", true
	}
	return "", false
}

// cConvert renders expr, of kind from, converted to kind to the way
// value.Coerce converts.
func cConvert(expr string, from, to value.Kind) string {
	switch {
	case from == to:
		return expr
	case to == value.Int:
		return "nf_i32((double)(" + expr + "))"
	default:
		return "(" + cType(to) + ")(" + expr + ")"
	}
}
