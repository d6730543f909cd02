// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"strconv"
	"unicode/utf16"
)

// ConvertIntoCIMType coerces a Variant read from a property into the property's declared CIM
// type.  COM widens several CIM types on the way out (uint32 arrives as VT_I4, uint64 as a
// decimal BSTR, char16 as VT_I2); this undoes that.
//
// Numeric casts wrap like Go conversions.  Strings are parsed for numeric CIM types and kept as
// strings for datetime, reference and string types.  Array CIM types convert each element,
// wrap a scalar into a one element array and turn Null or Empty into an empty array.
func ConvertIntoCIMType(v Variant, cimType CIMType) (Variant, error) {
	if cimType == CIM_EMPTY {
		return NullVariant(), nil
	}

	if cimType.IsArray() {
		elemType := cimType.Elem()
		switch v.kind {
		case KindArray:
			return ConvertIntoCIMType(v, elemType)
		case KindEmpty, KindNull:
			return ArrayVariant([]Variant{}), nil
		}
		elem, err := ConvertIntoCIMType(v, elemType)
		if err != nil {
			return Variant{}, err
		}
		return ArrayVariant([]Variant{elem}), nil
	}

	switch v.kind {
	case KindEmpty, KindNull, KindObject:
		return v, nil
	case KindI1, KindI2, KindI4, KindI8:
		n, _ := v.AsInt64()
		return castSigned(v, n, cimType)
	case KindUI1, KindUI2, KindUI4, KindUI8:
		n, _ := v.AsUint64()
		return castUnsigned(v, n, cimType)
	case KindR4, KindR8:
		f, _ := v.AsFloat64()
		return castFloat(v, f, cimType)
	case KindBool:
		if cimType == CIM_BOOLEAN {
			return v, nil
		}
		return Variant{}, &CIMConversionError{Value: v, CIMType: cimType}
	case KindString:
		s, _ := v.AsString()
		return parseCIMString(v, s, cimType)
	case KindArray:
		arr, _ := v.AsArray()
		out := make([]Variant, 0, len(arr))
		for _, elem := range arr {
			converted, err := ConvertIntoCIMType(elem, cimType)
			if err != nil {
				return Variant{}, err
			}
			out = append(out, converted)
		}
		return ArrayVariant(out), nil
	}
	return Variant{}, &CIMConversionError{Value: v, CIMType: cimType}
}

func castSigned(v Variant, n int64, cimType CIMType) (Variant, error) {
	switch cimType {
	case CIM_UINT8:
		return UI1Variant(uint8(n)), nil
	case CIM_UINT16:
		return UI2Variant(uint16(n)), nil
	case CIM_UINT32:
		return UI4Variant(uint32(n)), nil
	case CIM_UINT64:
		return UI8Variant(uint64(n)), nil
	case CIM_SINT8:
		return I1Variant(int8(n)), nil
	case CIM_SINT16:
		return I2Variant(int16(n)), nil
	case CIM_SINT32:
		return I4Variant(int32(n)), nil
	case CIM_SINT64:
		return I8Variant(n), nil
	case CIM_REAL32:
		return R4Variant(float32(n)), nil
	case CIM_REAL64:
		return R8Variant(float64(n)), nil
	case CIM_CHAR16:
		return char16Variant(v, uint16(n), cimType)
	}
	return Variant{}, &CIMConversionError{Value: v, CIMType: cimType}
}

func castUnsigned(v Variant, n uint64, cimType CIMType) (Variant, error) {
	switch cimType {
	case CIM_REAL32:
		return R4Variant(float32(n)), nil
	case CIM_REAL64:
		return R8Variant(float64(n)), nil
	}
	return castSigned(v, int64(n), cimType)
}

func castFloat(v Variant, f float64, cimType CIMType) (Variant, error) {
	switch cimType {
	case CIM_REAL32:
		return R4Variant(float32(f)), nil
	case CIM_REAL64:
		return R8Variant(f), nil
	case CIM_UINT8, CIM_UINT16, CIM_UINT32, CIM_UINT64:
		if f < 0 {
			return castSigned(v, int64(f), cimType)
		}
		return castSigned(v, int64(uint64(f)), cimType)
	}
	return castSigned(v, int64(f), cimType)
}

func char16Variant(v Variant, u uint16, cimType CIMType) (Variant, error) {
	if utf16.IsSurrogate(rune(u)) {
		return Variant{}, &CIMConversionError{Value: v, CIMType: cimType, Err: errInvalidUTF16}
	}
	return StringVariant(string(rune(u))), nil
}

func parseCIMString(v Variant, s string, cimType CIMType) (Variant, error) {
	var (
		out Variant
		err error
	)
	switch cimType {
	case CIM_REAL64:
		var f float64
		f, err = strconv.ParseFloat(s, 64)
		out = R8Variant(f)
	case CIM_REAL32:
		var f float64
		f, err = strconv.ParseFloat(s, 32)
		out = R4Variant(float32(f))
	case CIM_UINT64, CIM_UINT32, CIM_UINT16, CIM_UINT8:
		var n uint64
		n, err = strconv.ParseUint(s, 10, cimBitSize(cimType))
		if err == nil {
			out, err = castSigned(v, int64(n), cimType)
		}
	case CIM_SINT64, CIM_SINT32, CIM_SINT16, CIM_SINT8:
		var n int64
		n, err = strconv.ParseInt(s, 10, cimBitSize(cimType))
		if err == nil {
			out, err = castSigned(v, n, cimType)
		}
	default:
		// string, char16, datetime and reference stay strings
		return v, nil
	}
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return Variant{}, &CIMConversionError{Value: v, CIMType: cimType, Err: err}
	}
	return out, nil
}

func cimBitSize(cimType CIMType) int {
	switch cimType {
	case CIM_UINT8, CIM_SINT8:
		return 8
	case CIM_UINT16, CIM_SINT16:
		return 16
	case CIM_UINT32, CIM_SINT32:
		return 32
	}
	return 64
}
