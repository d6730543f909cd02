// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertIntoCIMType(t *testing.T) {
	tests := []struct {
		name    string
		in      Variant
		cimType CIMType
		want    Variant
	}{
		{"uint32 read as i4", I4Variant(-1), CIM_UINT32, UI4Variant(4294967295)},
		{"uint16 read as i4", I4Variant(65535), CIM_UINT16, UI2Variant(65535)},
		{"sint8 read as i2", I2Variant(-5), CIM_SINT8, I1Variant(-5)},
		{"uint64 read as string", StringVariant("18446744073709551615"), CIM_UINT64, UI8Variant(18446744073709551615)},
		{"sint64 read as string", StringVariant("-42"), CIM_SINT64, I8Variant(-42)},
		{"real64 from string", StringVariant("2.5"), CIM_REAL64, R8Variant(2.5)},
		{"real32 from int", I4Variant(3), CIM_REAL32, R4Variant(3)},
		{"real64 from uint", UI8Variant(7), CIM_REAL64, R8Variant(7)},
		{"float to uint8", R8Variant(200.7), CIM_UINT8, UI1Variant(200)},
		{"float to sint16", R8Variant(-12.9), CIM_SINT16, I2Variant(-12)},
		{"char16 read as i2", I2Variant('A'), CIM_CHAR16, StringVariant("A")},
		{"boolean", BoolVariant(true), CIM_BOOLEAN, BoolVariant(true)},
		{"datetime stays string", StringVariant("20190101000000.000000+000"), CIM_DATETIME, StringVariant("20190101000000.000000+000")},
		{"reference stays string", StringVariant(`Win32_Process.Handle="4"`), CIM_REFERENCE, StringVariant(`Win32_Process.Handle="4"`)},
		{"null passes", NullVariant(), CIM_UINT32, NullVariant()},
		{"empty cim type", I4Variant(3), CIM_EMPTY, NullVariant()},
		{"array elements", ArrayVariant([]Variant{I4Variant(-1), I4Variant(1)}), CIM_UINT32 | CIM_FLAG_ARRAY, ArrayVariant([]Variant{UI4Variant(4294967295), UI4Variant(1)})},
		{"scalar wrapped into array", StringVariant("5"), CIM_UINT64 | CIM_FLAG_ARRAY, ArrayVariant([]Variant{UI8Variant(5)})},
		{"null array", NullVariant(), CIM_STRING | CIM_FLAG_ARRAY, ArrayVariant([]Variant{})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ConvertIntoCIMType(tc.in, tc.cimType)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(v), "want %v, got %v", tc.want, v)
		})
	}
}

func TestConvertIntoCIMTypeErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      Variant
		cimType CIMType
		cause   error
	}{
		{"bool to uint32", BoolVariant(true), CIM_UINT32, nil},
		{"int to boolean", I4Variant(1), CIM_BOOLEAN, nil},
		{"int to string", I4Variant(1), CIM_STRING, nil},
		{"not a number", StringVariant("abc"), CIM_UINT32, strconv.ErrSyntax},
		{"out of range", StringVariant("256"), CIM_UINT8, strconv.ErrRange},
		{"negative unsigned", StringVariant("-1"), CIM_UINT64, strconv.ErrSyntax},
		{"lone surrogate", I2Variant(-0x2800), CIM_CHAR16, errInvalidUTF16},
		{"array element", ArrayVariant([]Variant{StringVariant("1"), StringVariant("x")}), CIM_SINT32 | CIM_FLAG_ARRAY, strconv.ErrSyntax},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ConvertIntoCIMType(tc.in, tc.cimType)
			var convErr *CIMConversionError
			require.True(t, errors.As(err, &convErr), "got %v", err)
			if tc.cause != nil {
				assert.True(t, errors.Is(err, tc.cause), "got %v", err)
			}
		})
	}
}

func TestCIMTypeString(t *testing.T) {
	assert.Equal(t, "uint32", CIM_UINT32.String())
	assert.Equal(t, "string[]", (CIM_STRING | CIM_FLAG_ARRAY).String())
	assert.Equal(t, "0x63", CIMType(99).String())
	assert.True(t, (CIM_OBJECT | CIM_FLAG_ARRAY).IsArray())
	assert.Equal(t, CIM_OBJECT, (CIM_OBJECT | CIM_FLAG_ARRAY).Elem())
}
