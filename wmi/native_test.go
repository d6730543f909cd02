// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"math"
	"testing"

	ole "github.com/go-ole/go-ole"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNativeScalars(t *testing.T) {
	tests := []struct {
		name string
		in   ole.VARIANT
		want Variant
	}{
		{"empty", ole.VARIANT{VT: ole.VT_EMPTY}, EmptyVariant()},
		{"null", ole.VARIANT{VT: ole.VT_NULL}, NullVariant()},
		{"i1", ole.VARIANT{VT: ole.VT_I1, Val: -5}, I1Variant(-5)},
		{"i2", ole.VARIANT{VT: ole.VT_I2, Val: -300}, I2Variant(-300)},
		{"i4", ole.VARIANT{VT: ole.VT_I4, Val: -70000}, I4Variant(-70000)},
		{"int", ole.VARIANT{VT: ole.VT_INT, Val: 12}, I4Variant(12)},
		{"i8", ole.VARIANT{VT: ole.VT_I8, Val: math.MinInt64}, I8Variant(math.MinInt64)},
		{"ui1", ole.VARIANT{VT: ole.VT_UI1, Val: 255}, UI1Variant(255)},
		{"ui2", ole.VARIANT{VT: ole.VT_UI2, Val: 65535}, UI2Variant(65535)},
		{"ui4", ole.VARIANT{VT: ole.VT_UI4, Val: 4000000000}, UI4Variant(4000000000)},
		{"uint", ole.VARIANT{VT: ole.VT_UINT, Val: 1}, UI4Variant(1)},
		{"ui8", ole.VARIANT{VT: ole.VT_UI8, Val: -1}, UI8Variant(math.MaxUint64)},
		{"r4", ole.VARIANT{VT: ole.VT_R4, Val: int64(math.Float32bits(1.25))}, R4Variant(1.25)},
		{"r8", ole.VARIANT{VT: ole.VT_R8, Val: int64(math.Float64bits(-2.5))}, R8Variant(-2.5)},
		{"true", ole.VARIANT{VT: ole.VT_BOOL, Val: int64(uint16(0xFFFF))}, BoolVariant(true)},
		{"false", ole.VARIANT{VT: ole.VT_BOOL, Val: 0}, BoolVariant(false)},
		{"null bstr", ole.VARIANT{VT: ole.VT_BSTR}, StringVariant("")},
		{"null unknown", ole.VARIANT{VT: ole.VT_UNKNOWN}, NullVariant()},
		{"null array", ole.VARIANT{VT: ole.VT_ARRAY | ole.VT_BSTR}, ArrayVariant([]Variant{})},
		{"null variant array", ole.VARIANT{VT: ole.VT_ARRAY | ole.VT_VARIANT}, ArrayVariant([]Variant{})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := FromNative(&tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(v), "want %v, got %v", tc.want, v)
		})
	}
}

func TestFromNativeUnsupported(t *testing.T) {
	for _, vt := range []ole.VT{ole.VT_CY, ole.VT_DATE, ole.VT_DISPATCH, ole.VT_ERROR} {
		_, err := FromNative(&ole.VARIANT{VT: vt})
		var convErr *ConversionError
		require.True(t, errors.As(err, &convErr), "VT %v", vt)
		assert.Equal(t, uint16(vt), convErr.VT)
		assert.Empty(t, convErr.Reason)
	}

	// the element type is checked even when the SAFEARRAY is NULL
	for _, vt := range []ole.VT{ole.VT_DATE, ole.VT_CY, ole.VT_DECIMAL, ole.VT_DISPATCH} {
		_, err := FromNative(&ole.VARIANT{VT: ole.VT_ARRAY | vt})
		var convErr *ConversionError
		require.True(t, errors.As(err, &convErr), "VT_ARRAY|%v", vt)
		assert.Equal(t, uint16(ole.VT_ARRAY|vt), convErr.VT)
	}

	_, err := FromNative(&ole.VARIANT{VT: ole.VT_BOOL, Val: 1})
	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Contains(t, convErr.Error(), "invalid VARIANT_BOOL value 1")
}

func TestDecodeUTF16(t *testing.T) {
	s, err := decodeUTF16([]uint16{'C', ':', 0xD83D, 0xDE00})
	require.NoError(t, err)
	assert.Equal(t, "C:\U0001F600", s)

	_, err = decodeUTF16([]uint16{'a', 0xD83D})
	assert.Equal(t, errInvalidUTF16, err)

	_, err = decodeUTF16([]uint16{0xDE00, 'a'})
	assert.Equal(t, errInvalidUTF16, err)
}

func TestToNativeScalars(t *testing.T) {
	tests := []struct {
		name string
		in   Variant
		vt   ole.VT
		val  int64
	}{
		{"empty", EmptyVariant(), ole.VT_EMPTY, 0},
		{"null", NullVariant(), ole.VT_NULL, 0},
		{"sint8 widens to i2", I1Variant(-3), ole.VT_I2, -3},
		{"i2", I2Variant(-300), ole.VT_I2, -300},
		{"i4", I4Variant(70000), ole.VT_I4, 70000},
		{"ui1", UI1Variant(200), ole.VT_UI1, 200},
		{"uint16 widens to i4", UI2Variant(65535), ole.VT_I4, 65535},
		{"uint32 travels as i4", UI4Variant(math.MaxUint32), ole.VT_I4, -1},
		{"r4", R4Variant(1.5), ole.VT_R4, int64(math.Float32bits(1.5))},
		{"r8", R8Variant(1.5), ole.VT_R8, int64(math.Float64bits(1.5))},
		{"true", BoolVariant(true), ole.VT_BOOL, 0xFFFF},
		{"false", BoolVariant(false), ole.VT_BOOL, 0},
		{"empty array", ArrayVariant([]Variant{}), ole.VT_NULL, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			native, err := ToNative(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.vt, native.VT)
			assert.Equal(t, tc.val, native.Val)

			back, err := FromNative(&native)
			require.NoError(t, err)
			if tc.in.Kind() == KindUI2 || tc.in.Kind() == KindUI4 || tc.in.Kind() == KindI1 || tc.in.Kind() == KindArray {
				return
			}
			assert.True(t, tc.in.Equal(back), "want %v, got %v", tc.in, back)
		})
	}
}

func TestToNativeMixedArray(t *testing.T) {
	_, err := ToNative(ArrayVariant([]Variant{I4Variant(1), StringVariant("2")}))
	var unsupported *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "array of mixed I4 and String", unsupported.Type)
}

func TestNativeArrayType(t *testing.T) {
	tests := map[VariantKind]ole.VT{
		KindUI1:    ole.VT_UI1,
		KindI1:     ole.VT_I2,
		KindUI4:    ole.VT_I4,
		KindUI8:    ole.VT_BSTR,
		KindString: ole.VT_BSTR,
		KindBool:   ole.VT_BOOL,
		KindObject: ole.VT_UNKNOWN,
	}
	for kind, want := range tests {
		vt, ok := nativeArrayType(kind)
		assert.True(t, ok, kind.String())
		assert.Equal(t, want, vt, kind.String())
	}
	_, ok := nativeArrayType(KindNull)
	assert.False(t, ok)

	assert.Equal(t, "-9", arrayElementText(I8Variant(-9)))
	assert.Equal(t, "18446744073709551615", arrayElementText(UI8Variant(math.MaxUint64)))
	assert.Equal(t, "x", arrayElementText(StringVariant("x")))
}
