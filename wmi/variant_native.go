// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"math"
	"strconv"
	"unicode"
	"unicode/utf16"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

const vtTypeMask ole.VT = 0x0FFF

// VARIANT_BOOL values
const (
	variantTrue  = -1
	variantFalse = 0
)

// FromNative converts a native VARIANT into a Variant.  The VARIANT is left untouched; the
// caller still owns it and must clear it.
func FromNative(v *ole.VARIANT) (Variant, error) {
	if v.VT&ole.VT_ARRAY != 0 {
		elemVT := v.VT & vtTypeMask
		if !arrayElementSupported(elemVT) {
			return Variant{}, &ConversionError{VT: uint16(v.VT)}
		}
		parray := (*ole.SafeArray)(unsafe.Pointer(uintptr(v.Val)))
		if parray == nil {
			return ArrayVariant([]Variant{}), nil
		}
		elems, err := safeArrayElements(parray, elemVT)
		if err != nil {
			return Variant{}, err
		}
		return ArrayVariant(elems), nil
	}

	switch v.VT {
	case ole.VT_EMPTY:
		return EmptyVariant(), nil
	case ole.VT_NULL:
		return NullVariant(), nil
	case ole.VT_BSTR:
		s, err := bstrToString((*uint16)(unsafe.Pointer(uintptr(v.Val))))
		if err != nil {
			return Variant{}, &ConversionError{VT: uint16(v.VT), Reason: err.Error()}
		}
		return StringVariant(s), nil
	case ole.VT_I1:
		return I1Variant(int8(v.Val)), nil
	case ole.VT_I2:
		return I2Variant(int16(v.Val)), nil
	case ole.VT_I4, ole.VT_INT:
		return I4Variant(int32(v.Val)), nil
	case ole.VT_I8:
		return I8Variant(v.Val), nil
	case ole.VT_UI1:
		return UI1Variant(uint8(v.Val)), nil
	case ole.VT_UI2:
		return UI2Variant(uint16(v.Val)), nil
	case ole.VT_UI4, ole.VT_UINT:
		return UI4Variant(uint32(v.Val)), nil
	case ole.VT_UI8:
		return UI8Variant(uint64(v.Val)), nil
	case ole.VT_R4:
		return R4Variant(math.Float32frombits(uint32(v.Val))), nil
	case ole.VT_R8:
		return R8Variant(math.Float64frombits(uint64(v.Val))), nil
	case ole.VT_BOOL:
		return boolFromNative(v.VT, int16(v.Val))
	case ole.VT_UNKNOWN:
		punk := (*ole.IUnknown)(unsafe.Pointer(uintptr(v.Val)))
		if punk == nil {
			return NullVariant(), nil
		}
		obj, err := unknownToClassObject(punk)
		if err != nil {
			return Variant{}, err
		}
		return ObjectVariant(obj), nil
	}
	return Variant{}, &ConversionError{VT: uint16(v.VT)}
}

func boolFromNative(vt ole.VT, b int16) (Variant, error) {
	switch b {
	case variantTrue:
		return BoolVariant(true), nil
	case variantFalse:
		return BoolVariant(false), nil
	}
	return Variant{}, &ConversionError{VT: uint16(vt), Reason: "invalid VARIANT_BOOL value " + strconv.Itoa(int(b))}
}

// bstrToString reads a length prefixed BSTR.  Unpaired surrogates are an error.
func bstrToString(p *uint16) (string, error) {
	if p == nil {
		return "", nil
	}
	byteLen := *(*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) - 4))
	return decodeUTF16(unsafe.Slice(p, byteLen/2))
}

var errInvalidUTF16 = errors.New("invalid UTF-16 string")

func decodeUTF16(units []uint16) (string, error) {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		if !utf16.IsSurrogate(u) {
			runes = append(runes, u)
			continue
		}
		if i+1 >= len(units) {
			return "", errInvalidUTF16
		}
		r := utf16.DecodeRune(u, rune(units[i+1]))
		if r == unicode.ReplacementChar {
			return "", errInvalidUTF16
		}
		runes = append(runes, r)
		i++
	}
	return string(runes), nil
}

// ToNative converts a Variant into a native VARIANT.  The caller owns the result and must clear
// it with ole.VariantClear.  Allocation failure of a native string or array panics.
//
// Values are widened the way WMI expects them: sint8 travels as VT_I2, uint16 and uint32 as
// VT_I4 and 64 bit integers as decimal strings.
func ToNative(v Variant) (ole.VARIANT, error) {
	switch v.kind {
	case KindEmpty:
		return ole.VARIANT{VT: ole.VT_EMPTY}, nil
	case KindNull:
		return ole.VARIANT{VT: ole.VT_NULL}, nil
	case KindString:
		s, _ := v.AsString()
		return stringToNative(s)
	case KindI1:
		return ole.VARIANT{VT: ole.VT_I2, Val: int64(v.val.(int8))}, nil
	case KindI2:
		return ole.VARIANT{VT: ole.VT_I2, Val: int64(v.val.(int16))}, nil
	case KindI4:
		return ole.VARIANT{VT: ole.VT_I4, Val: int64(v.val.(int32))}, nil
	case KindI8:
		return stringToNative(strconv.FormatInt(v.val.(int64), 10))
	case KindUI1:
		return ole.VARIANT{VT: ole.VT_UI1, Val: int64(v.val.(uint8))}, nil
	case KindUI2:
		return ole.VARIANT{VT: ole.VT_I4, Val: int64(int32(v.val.(uint16)))}, nil
	case KindUI4:
		return ole.VARIANT{VT: ole.VT_I4, Val: int64(int32(v.val.(uint32)))}, nil
	case KindUI8:
		return stringToNative(strconv.FormatUint(v.val.(uint64), 10))
	case KindR4:
		return ole.VARIANT{VT: ole.VT_R4, Val: int64(math.Float32bits(v.val.(float32)))}, nil
	case KindR8:
		return ole.VARIANT{VT: ole.VT_R8, Val: int64(math.Float64bits(v.val.(float64)))}, nil
	case KindBool:
		if v.val.(bool) {
			return ole.VARIANT{VT: ole.VT_BOOL, Val: int64(uint16(0xFFFF))}, nil
		}
		return ole.VARIANT{VT: ole.VT_BOOL, Val: variantFalse}, nil
	case KindObject:
		o, _ := v.AsObject()
		return objectToNative(o)
	case KindArray:
		arr, _ := v.AsArray()
		if len(arr) == 0 {
			return ole.VARIANT{VT: ole.VT_NULL}, nil
		}
		for _, e := range arr[1:] {
			if e.kind != arr[0].kind {
				return ole.VARIANT{}, &UnsupportedTypeError{Type: "array of mixed " + arr[0].kind.String() + " and " + e.kind.String()}
			}
		}
		return arrayToNative(arr)
	}
	return ole.VARIANT{}, &UnsupportedTypeError{Type: v.kind.String()}
}

// nativeArrayType returns the SAFEARRAY element type used to send elements of the given kind
// arrayElementSupported reports whether SAFEARRAYs of elemVT can be read
func arrayElementSupported(elemVT ole.VT) bool {
	switch elemVT {
	case ole.VT_I1, ole.VT_I2, ole.VT_I4, ole.VT_INT, ole.VT_I8,
		ole.VT_UI1, ole.VT_UI2, ole.VT_UI4, ole.VT_UINT, ole.VT_UI8,
		ole.VT_R4, ole.VT_R8, ole.VT_BOOL, ole.VT_BSTR, ole.VT_VARIANT, ole.VT_UNKNOWN:
		return true
	}
	return false
}

func nativeArrayType(kind VariantKind) (ole.VT, bool) {
	switch kind {
	case KindUI1:
		return ole.VT_UI1, true
	case KindI1, KindI2:
		return ole.VT_I2, true
	case KindUI2, KindI4, KindUI4:
		return ole.VT_I4, true
	case KindI8, KindUI8, KindString:
		return ole.VT_BSTR, true
	case KindR4:
		return ole.VT_R4, true
	case KindR8:
		return ole.VT_R8, true
	case KindBool:
		return ole.VT_BOOL, true
	case KindObject:
		return ole.VT_UNKNOWN, true
	}
	return ole.VT_EMPTY, false
}

// arrayElementText renders elements that travel as BSTR
func arrayElementText(v Variant) string {
	switch v.kind {
	case KindI8:
		return strconv.FormatInt(v.val.(int64), 10)
	case KindUI8:
		return strconv.FormatUint(v.val.(uint64), 10)
	}
	s, _ := v.AsString()
	return s
}
