package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseType(t *testing.T) {
	t.Run("base and async names", func(t *testing.T) {
		cases := map[string]Type{
			"int":          {Kind: Int},
			"float":        {Kind: Float},
			"double":       {Kind: Double},
			"string":       {Kind: String},
			"async_int":    {Kind: Int, Async: true},
			"async_double": {Kind: Double, Async: true},
		}
		for name, want := range cases {
			got, err := ParseType(name)
			require.NoError(t, err, name)
			assert.Equal(t, want, got, name)
			assert.Equal(t, name, got.String())
		}
	})

	t.Run("unknown names fail", func(t *testing.T) {
		for _, name := range []string{"", "bool", "async_", "Int", "async_async_int"} {
			_, err := ParseType(name)
			assert.ErrorIs(t, err, ErrUnknownType, name)
		}
	})
}

func TestTypeCompatible(t *testing.T) {
	i := MustParseType("int")
	ai := MustParseType("async_int")
	d := MustParseType("double")
	s := MustParseType("string")
	as := MustParseType("async_string")

	assert.True(t, i.Compatible(ai))
	assert.True(t, i.SameBase(ai))
	assert.True(t, i.Compatible(d))
	assert.False(t, i.SameBase(d))
	assert.True(t, s.Compatible(as))
	assert.False(t, s.Compatible(i))
	assert.False(t, d.Compatible(as))
}

func TestValueEqual(t *testing.T) {
	assert.True(t, IntValue(3).Equal(IntValue(3)))
	assert.False(t, IntValue(3).Equal(DoubleValue(3)), "tag participates")
	assert.False(t, FloatValue(1).Equal(FloatValue(2)))
	assert.True(t, StringValue("ab").Equal(StringValue("ab")))
	assert.False(t, DoubleValue(math.NaN()).Equal(DoubleValue(math.NaN())))
	assert.True(t, Value{}.Equal(IntValue(0)))
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, IntValue(2), Coerce(DoubleValue(2.9), Int))
	assert.Equal(t, IntValue(-2), Coerce(DoubleValue(-2.9), Int))
	assert.Equal(t, FloatValue(0.5), Coerce(DoubleValue(0.5), Float))
	assert.Equal(t, DoubleValue(7), Coerce(IntValue(7), Double))
	assert.Equal(t, FloatValue(16777216), Coerce(IntValue(16777217), Float))
	assert.Equal(t, IntValue(math.MaxInt32), Coerce(DoubleValue(1e12), Int))
	assert.Equal(t, Zero(Int), Coerce(StringValue("5"), Int))
	assert.Equal(t, Zero(String), Coerce(IntValue(5), String))

	s := StringValue("kept")
	assert.Equal(t, s, Coerce(s, String))
}

func TestAccessorsIgnoreOtherVariants(t *testing.T) {
	v := StringValue("x")
	assert.Zero(t, v.Int())
	assert.Zero(t, v.Float())
	assert.Zero(t, v.Double())
	assert.Zero(t, v.Number())
	assert.Equal(t, "", IntValue(1).Str())
	assert.Equal(t, 2.5, FloatValue(2.5).Number())
}

func TestFromAny(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want Value
	}{
		{"json int", json.Number("42"), IntValue(42)},
		{"json big int", json.Number("4294967296"), DoubleValue(4294967296)},
		{"json float", json.Number("1.5"), DoubleValue(1.5)},
		{"json whole float", json.Number("3.0"), DoubleValue(3)},
		{"yaml int", 7, IntValue(7)},
		{"yaml float", 0.25, DoubleValue(0.25)},
		{"true", true, IntValue(1)},
		{"false", false, IntValue(0)},
		{"string", "hello", StringValue("hello")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromAny(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := FromAny(nil)
	assert.ErrorIs(t, err, ErrUnsupportedParameter)
	_, err = FromAny(map[string]any{})
	assert.ErrorIs(t, err, ErrUnsupportedParameter)
}

func TestCtyRoundTrip(t *testing.T) {
	got, err := FromCty(cty.NumberIntVal(5))
	require.NoError(t, err)
	assert.Equal(t, IntValue(5), got)

	got, err = FromCty(cty.NumberFloatVal(0.125))
	require.NoError(t, err)
	assert.Equal(t, DoubleValue(0.125), got)

	got, err = FromCty(cty.True)
	require.NoError(t, err)
	assert.Equal(t, IntValue(1), got)

	got, err = FromCty(ToCty(StringValue("abc")))
	require.NoError(t, err)
	assert.Equal(t, StringValue("abc"), got)

	_, err = FromCty(cty.NullVal(cty.String))
	assert.ErrorIs(t, err, ErrUnsupportedParameter)
	_, err = FromCty(cty.ListValEmpty(cty.String))
	assert.ErrorIs(t, err, ErrUnsupportedParameter)
}
