// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantOf(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want Variant
	}{
		{"nil", nil, NullVariant()},
		{"empty struct", struct{}{}, EmptyVariant()},
		{"string", "abc", StringVariant("abc")},
		{"int8", int8(-1), I1Variant(-1)},
		{"int16", int16(-2), I2Variant(-2)},
		{"int32", int32(-3), I4Variant(-3)},
		{"int64", int64(-4), I8Variant(-4)},
		{"int", 5, I8Variant(5)},
		{"uint8", uint8(6), UI1Variant(6)},
		{"uint16", uint16(7), UI2Variant(7)},
		{"uint32", uint32(8), UI4Variant(8)},
		{"uint64", uint64(9), UI8Variant(9)},
		{"uint", uint(10), UI8Variant(10)},
		{"float32", float32(1.5), R4Variant(1.5)},
		{"float64", 2.5, R8Variant(2.5)},
		{"bool", true, BoolVariant(true)},
		{"variant", I4Variant(11), I4Variant(11)},
		{"string slice", []string{"a", "b"}, ArrayVariant([]Variant{StringVariant("a"), StringVariant("b")})},
		{"byte slice", []uint8{1, 2}, ArrayVariant([]Variant{UI1Variant(1), UI1Variant(2)})},
		{"empty slice", []int32{}, ArrayVariant([]Variant{})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := VariantOf(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(v), "want %v, got %v", tc.want, v)
		})
	}

	_, err := VariantOf(map[string]int{})
	var unsupported *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "map[string]int", unsupported.Type)

	_, err = VariantOf([]interface{}{"a", complex(1, 1)})
	assert.True(t, errors.As(err, &unsupported))
}

func TestVariantAccessors(t *testing.T) {
	s, ok := StringVariant("x").AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	_, ok = I4Variant(1).AsString()
	assert.False(t, ok)

	n, ok := I2Variant(-7).AsInt64()
	assert.True(t, ok)
	assert.Equal(t, int64(-7), n)
	_, ok = UI2Variant(7).AsInt64()
	assert.False(t, ok)

	u, ok := UI1Variant(200).AsUint64()
	assert.True(t, ok)
	assert.Equal(t, uint64(200), u)

	f, ok := R4Variant(0.5).AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, 0.5, f)

	b, ok := BoolVariant(true).AsBool()
	assert.True(t, ok && b)

	assert.True(t, NullVariant().IsNull())
	assert.True(t, EmptyVariant().IsNull())
	assert.False(t, StringVariant("").IsNull())

	assert.Nil(t, NullVariant().Interface())
	assert.Equal(t, []interface{}{"a", uint8(1)}, ArrayVariant([]Variant{StringVariant("a"), UI1Variant(1)}).Interface())
}

func TestVariantEqual(t *testing.T) {
	assert.True(t, NullVariant().Equal(NullVariant()))
	assert.False(t, NullVariant().Equal(EmptyVariant()))
	assert.False(t, I4Variant(1).Equal(UI4Variant(1)), "kinds must match")
	assert.False(t, I4Variant(1).Equal(I4Variant(2)))
	assert.False(t, ArrayVariant([]Variant{I4Variant(1)}).Equal(ArrayVariant([]Variant{})))
}

func TestVariantString(t *testing.T) {
	assert.Equal(t, "Null", NullVariant().String())
	assert.Equal(t, `String("a")`, StringVariant("a").String())
	assert.Equal(t, `Array[I4(1), String("b")]`, ArrayVariant([]Variant{I4Variant(1), StringVariant("b")}).String())
}
