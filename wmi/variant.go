// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"fmt"
	"reflect"
	"strings"
)

// VariantKind identifies the payload carried by a Variant
type VariantKind uint8

const (
	KindEmpty VariantKind = iota
	KindNull
	KindString
	KindI1
	KindI2
	KindI4
	KindI8
	KindUI1
	KindUI2
	KindUI4
	KindUI8
	KindR4
	KindR8
	KindBool
	KindObject
	KindArray
)

var variantKindNames = [...]string{
	KindEmpty:  "Empty",
	KindNull:   "Null",
	KindString: "String",
	KindI1:     "I1",
	KindI2:     "I2",
	KindI4:     "I4",
	KindI8:     "I8",
	KindUI1:    "UI1",
	KindUI2:    "UI2",
	KindUI4:    "UI4",
	KindUI8:    "UI8",
	KindR4:     "R4",
	KindR8:     "R8",
	KindBool:   "Bool",
	KindObject: "Object",
	KindArray:  "Array",
}

func (k VariantKind) String() string {
	if int(k) < len(variantKindNames) {
		return variantKindNames[k]
	}
	return fmt.Sprintf("VariantKind(%d)", uint8(k))
}

// Variant is a WMI property value.  The zero Variant is Empty.
//
// A Variant holding an Object owns a reference on the nested class object; Release drops it.
type Variant struct {
	kind VariantKind
	val  interface{}
}

// EmptyVariant returns a Variant with no value present
func EmptyVariant() Variant { return Variant{kind: KindEmpty} }

// NullVariant returns an explicit null Variant
func NullVariant() Variant { return Variant{kind: KindNull} }

func StringVariant(s string) Variant   { return Variant{kind: KindString, val: s} }
func I1Variant(n int8) Variant         { return Variant{kind: KindI1, val: n} }
func I2Variant(n int16) Variant        { return Variant{kind: KindI2, val: n} }
func I4Variant(n int32) Variant        { return Variant{kind: KindI4, val: n} }
func I8Variant(n int64) Variant        { return Variant{kind: KindI8, val: n} }
func UI1Variant(n uint8) Variant       { return Variant{kind: KindUI1, val: n} }
func UI2Variant(n uint16) Variant      { return Variant{kind: KindUI2, val: n} }
func UI4Variant(n uint32) Variant      { return Variant{kind: KindUI4, val: n} }
func UI8Variant(n uint64) Variant      { return Variant{kind: KindUI8, val: n} }
func R4Variant(f float32) Variant      { return Variant{kind: KindR4, val: f} }
func R8Variant(f float64) Variant      { return Variant{kind: KindR8, val: f} }
func BoolVariant(b bool) Variant       { return Variant{kind: KindBool, val: b} }
func ArrayVariant(a []Variant) Variant { return Variant{kind: KindArray, val: a} }

// ObjectVariant wraps a class object.  The Variant takes over the caller's reference.
func ObjectVariant(o *ClassObject) Variant { return Variant{kind: KindObject, val: o} }

// VariantOf maps a Go primitive onto the matching Variant kind, slices become arrays.  Variants
// and class objects are cloned; the caller keeps its own reference.
func VariantOf(v interface{}) (Variant, error) {
	switch t := v.(type) {
	case nil:
		return NullVariant(), nil
	case Variant:
		return t.Clone(), nil
	case *ClassObject:
		return ObjectVariant(t.Clone()), nil
	case struct{}:
		return EmptyVariant(), nil
	case string:
		return StringVariant(t), nil
	case int8:
		return I1Variant(t), nil
	case int16:
		return I2Variant(t), nil
	case int32:
		return I4Variant(t), nil
	case int64:
		return I8Variant(t), nil
	case int:
		return I8Variant(int64(t)), nil
	case uint8:
		return UI1Variant(t), nil
	case uint16:
		return UI2Variant(t), nil
	case uint32:
		return UI4Variant(t), nil
	case uint64:
		return UI8Variant(t), nil
	case uint:
		return UI8Variant(uint64(t)), nil
	case float32:
		return R4Variant(t), nil
	case float64:
		return R8Variant(t), nil
	case bool:
		return BoolVariant(t), nil
	case []Variant:
		return ArrayVariant(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		arr := make([]Variant, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := VariantOf(rv.Index(i).Interface())
			if err != nil {
				return Variant{}, err
			}
			arr = append(arr, elem)
		}
		return ArrayVariant(arr), nil
	}
	return Variant{}, &UnsupportedTypeError{Type: rv.Type().String()}
}

// Kind returns the kind of payload carried by the Variant
func (v Variant) Kind() VariantKind {
	return v.kind
}

// IsNull returns true for both Null and Empty; neither carries a value
func (v Variant) IsNull() bool {
	return v.kind == KindNull || v.kind == KindEmpty
}

// AsString returns the payload of a String variant
func (v Variant) AsString() (string, bool) {
	s, ok := v.val.(string)
	return s, ok && v.kind == KindString
}

// AsBool returns the payload of a Bool variant
func (v Variant) AsBool() (bool, bool) {
	b, ok := v.val.(bool)
	return b, ok && v.kind == KindBool
}

// AsInt64 widens any signed integer payload
func (v Variant) AsInt64() (int64, bool) {
	switch n := v.val.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// AsUint64 widens any unsigned integer payload
func (v Variant) AsUint64() (uint64, bool) {
	switch n := v.val.(type) {
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

// AsFloat64 widens a float payload
func (v Variant) AsFloat64() (float64, bool) {
	switch f := v.val.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	return 0, false
}

// AsObject returns the class object held by an Object variant.  The Variant keeps ownership.
func (v Variant) AsObject() (*ClassObject, bool) {
	o, ok := v.val.(*ClassObject)
	return o, ok && v.kind == KindObject
}

// AsArray returns the elements of an Array variant
func (v Variant) AsArray() ([]Variant, bool) {
	a, ok := v.val.([]Variant)
	return a, ok && v.kind == KindArray
}

// Interface returns the payload as a plain Go value.  Arrays become []interface{}, Null and
// Empty become nil.
func (v Variant) Interface() interface{} {
	switch v.kind {
	case KindEmpty, KindNull:
		return nil
	case KindArray:
		arr, _ := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, e := range arr {
			out[i] = e.Interface()
		}
		return out
	}
	return v.val
}

// Clone returns a copy of the Variant that owns its own references on nested objects
func (v Variant) Clone() Variant {
	switch v.kind {
	case KindObject:
		o, _ := v.AsObject()
		return ObjectVariant(o.Clone())
	case KindArray:
		arr, _ := v.AsArray()
		out := make([]Variant, len(arr))
		for i, e := range arr {
			out[i] = e.Clone()
		}
		return ArrayVariant(out)
	}
	return v
}

// Release drops the references held on nested class objects
func (v Variant) Release() {
	switch v.kind {
	case KindObject:
		if o, ok := v.AsObject(); ok {
			o.Release()
		}
	case KindArray:
		arr, _ := v.AsArray()
		for _, e := range arr {
			e.Release()
		}
	}
}

// Equal compares kind and payload.  Objects compare by identity of the native handle.
func (v Variant) Equal(other Variant) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindEmpty, KindNull:
		return true
	case KindObject:
		a, _ := v.AsObject()
		b, _ := other.AsObject()
		return a.sameHandle(b)
	case KindArray:
		a, _ := v.AsArray()
		b, _ := other.AsArray()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	}
	return v.val == other.val
}

func (v Variant) String() string {
	switch v.kind {
	case KindEmpty, KindNull:
		return v.kind.String()
	case KindString:
		return fmt.Sprintf("String(%q)", v.val)
	case KindArray:
		arr, _ := v.AsArray()
		parts := make([]string, len(arr))
		for i, e := range arr {
			parts[i] = e.String()
		}
		return "Array[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%v(%v)", v.kind, v.val)
}
