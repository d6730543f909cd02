// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	log "github.com/hpe-storage/wmiclient/logger"
)

// VariantUnmarshaler is implemented by types that decode themselves from a property value
type VariantUnmarshaler interface {
	UnmarshalVariant(v Variant) error
}

var (
	variantType            = reflect.TypeOf(Variant{})
	classObjectPtrType     = reflect.TypeOf((*ClassObject)(nil))
	timeType               = reflect.TypeOf(time.Time{})
	variantUnmarshalerType = reflect.TypeOf((*VariantUnmarshaler)(nil)).Elem()
)

// Unmarshal decodes the class object into dst, which must be a pointer to a struct, a class union,
// a map keyed by string or an empty interface.
//
// Struct fields are fetched by name; a field without a matching property is an error.  Maps
// receive every non-system property the object carries.
func (o *ClassObject) Unmarshal(dst interface{}) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("wmi: Unmarshal requires a non-nil pointer, got %T: %w", dst, ErrExpectedStruct)
	}
	return decodeObject(o, rv.Elem())
}

// DecodeObject decodes the class object into a new T
func DecodeObject[T any](o *ClassObject) (T, error) {
	var t T
	err := o.Unmarshal(&t)
	return t, err
}

// Unmarshal decodes the Variant into dst, which must be a non-nil pointer
func (v Variant) Unmarshal(dst interface{}) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("wmi: Unmarshal requires a non-nil pointer, got %T", dst)
	}
	return decodeVariant(v, rv.Elem(), reflect.Value{})
}

// DecodeVariant decodes the Variant into a new T
func DecodeVariant[T any](v Variant) (T, error) {
	var t T
	err := v.Unmarshal(&t)
	return t, err
}

func decodeObject(o *ClassObject, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeObject(o, rv.Elem())

	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return ErrExpectedStruct
		}
		m := make(map[string]interface{})
		if err := decodeObjectMap(o, reflect.ValueOf(m)); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(m))
		return nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return ErrExpectedStruct
		}
		if rv.IsNil() {
			rv.Set(reflect.MakeMap(rv.Type()))
		}
		return decodeObjectMap(o, rv)

	case reflect.Struct:
		desc, err := DescribeType(rv.Type())
		if err != nil {
			return err
		}
		if desc.Union {
			return decodeUnion(o, rv, desc)
		}
		return decodeObjectStruct(o, rv, desc)
	}

	log.Errorf("Unsupported destination object for a WMI class object, type=%v", rv.Type())
	return ErrExpectedStruct
}

// decodeObjectMap enumerates the properties present on the object; absent ones are not keys
func decodeObjectMap(o *ClassObject, m reflect.Value) error {
	names, err := o.ListProperties()
	if err != nil {
		return err
	}
	elemType := m.Type().Elem()
	for _, name := range names {
		v, err := o.GetProperty(name)
		if err != nil {
			return &DecodeError{Class: "map", Field: name, Err: err}
		}
		elem := reflect.New(elemType).Elem()
		err = decodeVariant(v, elem, reflect.Value{})
		v.Release()
		if err != nil {
			return &DecodeError{Class: "map", Field: name, Err: err}
		}
		m.SetMapIndex(reflect.ValueOf(name).Convert(m.Type().Key()), elem)
	}
	return nil
}

func decodeObjectStruct(o *ClassObject, rv reflect.Value, desc *ClassDescriptor) error {
	for _, f := range desc.Fields {
		v, err := o.GetProperty(f.Name)
		if err != nil {
			return &DecodeError{Class: desc.Name, Field: f.Name, Err: err}
		}
		err = decodeVariant(v, rv.FieldByIndex(f.Index), f.NilValue)
		v.Release()
		if err != nil {
			return &DecodeError{Class: desc.Name, Field: f.Name, Err: err}
		}
	}
	return nil
}

// decodeUnion selects the member named by the object's __CLASS property
func decodeUnion(o *ClassObject, rv reflect.Value, desc *ClassDescriptor) error {
	cls, err := o.Class()
	if err != nil {
		return &DecodeError{Class: desc.Name, Field: classProperty, Err: err}
	}
	member, err := unionMember(desc, cls)
	if err != nil {
		return err
	}
	rv.Set(reflect.Zero(rv.Type()))
	target := reflect.New(member.Type.Elem())
	if err := decodeObject(o, target.Elem()); err != nil {
		return err
	}
	rv.FieldByIndex(member.Index).Set(target)
	return nil
}

// decodeUnionByName handles a union held as a plain class name string
func decodeUnionByName(name string, rv reflect.Value, desc *ClassDescriptor) error {
	member, err := unionMember(desc, name)
	if err != nil {
		return err
	}
	rv.Set(reflect.Zero(rv.Type()))
	rv.FieldByIndex(member.Index).Set(reflect.New(member.Type.Elem()))
	return nil
}

func unionMember(desc *ClassDescriptor, cls string) (FieldDescriptor, error) {
	for _, member := range desc.Fields {
		if member.Name != cls {
			continue
		}
		if member.Type.Kind() != reflect.Ptr || member.Type.Elem().Kind() != reflect.Struct {
			return member, &UnsupportedShapeError{Union: desc.Name, Member: member.GoName, Shape: member.Type.String()}
		}
		return member, nil
	}
	return FieldDescriptor{}, &UnknownVariantError{Class: cls, Expected: desc.FieldNames()}
}

// decodeVariant stores v into rv.  nilValue, when valid, replaces a null value.
func decodeVariant(v Variant, rv reflect.Value, nilValue reflect.Value) error {
	if rv.CanAddr() && rv.Addr().Type().Implements(variantUnmarshalerType) {
		return rv.Addr().Interface().(VariantUnmarshaler).UnmarshalVariant(v)
	}

	switch rv.Type() {
	case variantType:
		rv.Set(reflect.ValueOf(v.Clone()))
		return nil
	case classObjectPtrType:
		if v.IsNull() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		o, ok := v.AsObject()
		if !ok {
			return &TypeMismatchError{Kind: v.Kind(), Type: rv.Type().String()}
		}
		rv.Set(reflect.ValueOf(o.Clone()))
		return nil
	}

	if rv.Kind() == reflect.Ptr {
		if v.IsNull() {
			if nilValue.IsValid() {
				p := reflect.New(rv.Type().Elem())
				p.Elem().Set(nilValue)
				rv.Set(p)
			} else {
				rv.Set(reflect.Zero(rv.Type()))
			}
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeVariant(v, rv.Elem(), reflect.Value{})
	}

	if v.IsNull() {
		if nilValue.IsValid() {
			rv.Set(nilValue)
		} else {
			rv.Set(reflect.Zero(rv.Type()))
		}
		return nil
	}

	if rv.Type() == timeType {
		s, ok := v.AsString()
		if !ok {
			return &TypeMismatchError{Kind: v.Kind(), Type: rv.Type().String()}
		}
		dt, err := ParseDateTime(s)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(dt.Time))
		return nil
	}

	mismatch := &TypeMismatchError{Kind: v.Kind(), Type: rv.Type().String()}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return mismatch
		}
		plain, err := plainValue(v)
		if err != nil {
			return err
		}
		if plain != nil {
			rv.Set(reflect.ValueOf(plain))
		}
		return nil

	case reflect.Bool:
		b, ok := v.AsBool()
		if !ok {
			return mismatch
		}
		rv.SetBool(b)
		return nil

	case reflect.String:
		s, ok := v.AsString()
		if !ok {
			return mismatch
		}
		rv.SetString(s)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := variantToInt64(v, rv.Type())
		if err != nil {
			return err
		}
		if rv.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %v", n, rv.Type())
		}
		rv.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := variantToUint64(v, rv.Type())
		if err != nil {
			return err
		}
		if rv.OverflowUint(n) {
			return fmt.Errorf("value %d overflows %v", n, rv.Type())
		}
		rv.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		f, ok := v.AsFloat64()
		if !ok {
			if n, isInt := v.AsInt64(); isInt {
				f, ok = float64(n), true
			} else if u, isUint := v.AsUint64(); isUint {
				f, ok = float64(u), true
			}
		}
		if !ok {
			return mismatch
		}
		if rv.OverflowFloat(f) {
			return fmt.Errorf("value %v overflows %v", f, rv.Type())
		}
		rv.SetFloat(f)
		return nil

	case reflect.Slice:
		arr, ok := v.AsArray()
		if !ok {
			return mismatch
		}
		s := reflect.MakeSlice(rv.Type(), len(arr), len(arr))
		for i, elem := range arr {
			if err := decodeVariant(elem, s.Index(i), reflect.Value{}); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		rv.Set(s)
		return nil

	case reflect.Array:
		arr, ok := v.AsArray()
		if !ok {
			return mismatch
		}
		if len(arr) != rv.Len() {
			return fmt.Errorf("array of %d elements does not fit %v", len(arr), rv.Type())
		}
		for i := range arr {
			if err := decodeVariant(arr[i], rv.Index(i), reflect.Value{}); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil

	case reflect.Struct:
		if o, ok := v.AsObject(); ok {
			return decodeObject(o, rv)
		}
		if s, ok := v.AsString(); ok {
			desc, err := DescribeType(rv.Type())
			if err == nil && desc.Union {
				return decodeUnionByName(s, rv, desc)
			}
		}
		return mismatch

	case reflect.Map:
		if o, ok := v.AsObject(); ok {
			return decodeObject(o, rv)
		}
		return mismatch
	}
	return mismatch
}

func variantToInt64(v Variant, t reflect.Type) (int64, error) {
	if n, ok := v.AsInt64(); ok {
		return n, nil
	}
	if u, ok := v.AsUint64(); ok {
		if u > uint64(1<<63-1) {
			return 0, fmt.Errorf("value %d overflows %v", u, t)
		}
		return int64(u), nil
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot decode %q into %v: %w", s, t, err)
		}
		return n, nil
	}
	return 0, &TypeMismatchError{Kind: v.Kind(), Type: t.String()}
}

func variantToUint64(v Variant, t reflect.Type) (uint64, error) {
	if u, ok := v.AsUint64(); ok {
		return u, nil
	}
	if n, ok := v.AsInt64(); ok {
		if n < 0 {
			return 0, fmt.Errorf("value %d overflows %v", n, t)
		}
		return uint64(n), nil
	}
	if s, ok := v.AsString(); ok {
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot decode %q into %v: %w", s, t, err)
		}
		return u, nil
	}
	return 0, &TypeMismatchError{Kind: v.Kind(), Type: t.String()}
}

// plainValue converts a Variant to plain Go values; nested objects become maps
func plainValue(v Variant) (interface{}, error) {
	switch v.Kind() {
	case KindObject:
		o, _ := v.AsObject()
		m := make(map[string]interface{})
		if err := decodeObjectMap(o, reflect.ValueOf(m)); err != nil {
			return nil, err
		}
		return m, nil
	case KindArray:
		arr, _ := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, elem := range arr {
			p, err := plainValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	}
	return v.Interface(), nil
}
