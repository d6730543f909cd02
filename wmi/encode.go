// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"reflect"
)

// VariantMarshaler is implemented by types that can be sent as a method parameter
type VariantMarshaler interface {
	MarshalVariant() (Variant, error)
}

var variantMarshalerType = reflect.TypeOf((*VariantMarshaler)(nil)).Elem()

// MarshalVariantMap turns a struct into method input parameters keyed by property name.  Only
// structs (or pointers to structs) are accepted; a struct without fields gives an empty map.
//
// Field values must be VariantMarshalers or one of the primitive types: bool, string, struct{},
// any sized integer and either float.  Nested structs, slices and maps are rejected.
func MarshalVariantMap(in interface{}) (map[string]Variant, error) {
	rv := reflect.ValueOf(in)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, ErrExpectedStruct
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, ErrExpectedStruct
	}

	t := rv.Type()
	out := make(map[string]Variant)
	if t.NumField() == 0 {
		return out, nil
	}
	desc, err := DescribeType(t)
	if err != nil {
		return nil, err
	}
	for _, f := range desc.Fields {
		v, err := marshalField(rv.FieldByIndex(f.Index))
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func marshalField(fv reflect.Value) (Variant, error) {
	if fv.Type().Implements(variantMarshalerType) {
		return fv.Interface().(VariantMarshaler).MarshalVariant()
	}
	if fv.CanAddr() && fv.Addr().Type().Implements(variantMarshalerType) {
		return fv.Addr().Interface().(VariantMarshaler).MarshalVariant()
	}

	switch fv.Kind() {
	case reflect.Bool:
		return BoolVariant(fv.Bool()), nil
	case reflect.String:
		return StringVariant(fv.String()), nil
	case reflect.Int8:
		return I1Variant(int8(fv.Int())), nil
	case reflect.Int16:
		return I2Variant(int16(fv.Int())), nil
	case reflect.Int32:
		return I4Variant(int32(fv.Int())), nil
	case reflect.Int64, reflect.Int:
		return I8Variant(fv.Int()), nil
	case reflect.Uint8:
		return UI1Variant(uint8(fv.Uint())), nil
	case reflect.Uint16:
		return UI2Variant(uint16(fv.Uint())), nil
	case reflect.Uint32:
		return UI4Variant(uint32(fv.Uint())), nil
	case reflect.Uint64, reflect.Uint:
		return UI8Variant(fv.Uint()), nil
	case reflect.Float32:
		return R4Variant(float32(fv.Float())), nil
	case reflect.Float64:
		return R8Variant(fv.Float()), nil
	case reflect.Struct:
		if fv.NumField() == 0 {
			return EmptyVariant(), nil
		}
	}
	return Variant{}, &UnsupportedTypeError{Type: fv.Type().String()}
}
