// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	log "github.com/hpe-storage/wmiclient/logger"
)

// ClassNamer lets a Go type use a WMI class name different from its type name
type ClassNamer interface {
	WMIClassName() string
}

// ClassUnion marks a struct whose fields are pointers to structs, one per WMI class the object
// may turn out to be.  Decoding sets the field whose class name matches __CLASS.
type ClassUnion interface {
	WMIClassUnion()
}

// FieldDescriptor describes one Go struct field mapped onto a WMI property
type FieldDescriptor struct {
	Name     string        // WMI property name
	GoName   string        // Go field name
	Index    []int         // Index path into the Go struct (embedded structs are flattened)
	Type     reflect.Type  // Field type
	NilValue reflect.Value // "nil" tag attribute (invalid if not provided, never a pointer)
}

// ClassDescriptor is the WMI class name and property list of a Go type
type ClassDescriptor struct {
	Name   string
	Type   reflect.Type
	Fields []FieldDescriptor

	// Union is set for ClassUnion types; Fields then lists the union members
	Union bool

	// Inline is set for wrapper structs whose single field is tagged inline
	Inline bool
}

// FieldNames returns the WMI property names in declaration order
func (d *ClassDescriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// field looks up a field by WMI property name
func (d *ClassDescriptor) field(name string) (FieldDescriptor, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

type descriptorEntry struct {
	desc *ClassDescriptor
	err  error
}

var descriptorCache sync.Map // reflect.Type -> descriptorEntry

var (
	classNamerType = reflect.TypeOf((*ClassNamer)(nil)).Elem()
	classUnionType = reflect.TypeOf((*ClassUnion)(nil)).Elem()
)

// Describe returns the class descriptor of T
func Describe[T any]() (*ClassDescriptor, error) {
	return DescribeType(reflect.TypeOf((*T)(nil)).Elem())
}

// DescribeType returns the class descriptor of the given type.  Pointers are followed.  Only
// named structs can be described; maps and scalars return ErrExpectedNamedStruct.
func DescribeType(t reflect.Type) (*ClassDescriptor, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct || t.Name() == "" {
		return nil, ErrExpectedNamedStruct
	}

	if entry, ok := descriptorCache.Load(t); ok {
		e := entry.(descriptorEntry)
		return e.desc, e.err
	}
	desc, err := buildDescriptor(t)
	if err != nil {
		log.Errorf("Unable to describe Go type, type=%v, err=%v", t, err)
	}
	descriptorCache.Store(t, descriptorEntry{desc, err})
	return desc, err
}

func buildDescriptor(t reflect.Type) (*ClassDescriptor, error) {
	desc := &ClassDescriptor{
		Name:  t.Name(),
		Type:  t,
		Union: reflect.PtrTo(t).Implements(classUnionType),
	}

	if desc.Union {
		members, err := unionMembers(t)
		if err != nil {
			return nil, err
		}
		desc.Fields = members
	} else {
		fields, err := structFields(t, nil)
		if err != nil {
			return nil, err
		}
		desc.Fields = fields

		// A wrapper around exactly one inline struct takes on the inner class name
		if t.NumField() == 1 && isInline(t.Field(0)) {
			desc.Inline = true
			if inner, err := DescribeType(t.Field(0).Type); err == nil {
				desc.Name = inner.Name
			}
		}
	}

	if name, ok := className(t); ok {
		desc.Name = name
	}
	if !validIdentifier(desc.Name) {
		return nil, &InvalidIdentifierError{Name: desc.Name}
	}
	return desc, nil
}

// className returns the ClassNamer name for t, if t implements it
func className(t reflect.Type) (string, bool) {
	if t.Implements(classNamerType) {
		return reflect.Zero(t).Interface().(ClassNamer).WMIClassName(), true
	}
	if reflect.PtrTo(t).Implements(classNamerType) {
		return reflect.New(t).Interface().(ClassNamer).WMIClassName(), true
	}
	return "", false
}

// wmiTag holds the parsed `wmi:"Name,nil=VALUE,inline"` tag
type wmiTag struct {
	name     string
	skip     bool
	inline   bool
	nilValue *string
}

func parseTag(f reflect.StructField) (tag wmiTag, err error) {
	raw, ok := f.Tag.Lookup("wmi")
	if !ok || raw == "" {
		return tag, nil
	}
	parts := strings.Split(raw, ",")
	if parts[0] == "-" {
		tag.skip = true
		return tag, nil
	}
	tag.name = parts[0]
	for _, opt := range parts[1:] {
		key, value, hasValue := strings.Cut(opt, "=")
		switch {
		case key == "nil" && hasValue:
			v := value
			tag.nilValue = &v
		case key == "inline" && !hasValue:
			tag.inline = true
		default:
			return tag, fmt.Errorf("invalid WMI tag option %q on field %s", opt, f.Name)
		}
	}
	return tag, nil
}

func isInline(f reflect.StructField) bool {
	tag, err := parseTag(f)
	return err == nil && tag.inline
}

func structFields(t reflect.Type, index []int) ([]FieldDescriptor, error) {
	var fields []FieldDescriptor
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, err := parseTag(f)
		if err != nil {
			return nil, err
		}
		if tag.skip {
			continue
		}

		path := append(append([]int{}, index...), i)

		// Embedded structs and inline fields contribute their own fields
		if (f.Anonymous && tag.name == "" && f.Type.Kind() == reflect.Struct) || tag.inline {
			if f.Type.Kind() != reflect.Struct {
				return nil, fmt.Errorf("inline field %s must be a struct", f.Name)
			}
			inner, err := structFields(f.Type, path)
			if err != nil {
				return nil, err
			}
			fields = append(fields, inner...)
			continue
		}
		if !f.IsExported() {
			continue
		}

		fd := FieldDescriptor{
			Name:   f.Name,
			GoName: f.Name,
			Index:  path,
			Type:   f.Type,
		}
		if tag.name != "" {
			fd.Name = tag.name
		}
		if !validIdentifier(fd.Name) {
			return nil, &InvalidIdentifierError{Name: fd.Name}
		}
		if tag.nilValue != nil {
			fd.NilValue, err = parseTagValue(*tag.nilValue, f.Type)
			if err != nil {
				return nil, fmt.Errorf("invalid nil value %q on field %s: %w", *tag.nilValue, f.Name, err)
			}
		}
		fields = append(fields, fd)
	}
	return fields, nil
}

// unionMembers lists the members of a ClassUnion.  Members that are not pointers to structs are
// kept so that decoding can report them as unsupported shapes.
func unionMembers(t reflect.Type) ([]FieldDescriptor, error) {
	var members []FieldDescriptor
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, err := parseTag(f)
		if err != nil {
			return nil, err
		}
		if tag.skip {
			continue
		}
		name := tag.name
		if name == "" {
			name = f.Name
			if f.Type.Kind() == reflect.Ptr {
				if inner, err := DescribeType(f.Type); err == nil {
					name = inner.Name
				}
			}
		}
		members = append(members, FieldDescriptor{
			Name:   name,
			GoName: f.Name,
			Index:  []int{i},
			Type:   f.Type,
		})
	}
	return members, nil
}

// parseTagValue converts the text of a nil tag into a value of the field's type (the pointed
// to type for pointer fields)
func parseTagValue(text string, t reflect.Type) (reflect.Value, error) {
	base := t
	if t.Kind() == reflect.Ptr {
		base = t.Elem()
	}

	v := reflect.New(base).Elem()
	switch base.Kind() {
	case reflect.String:
		v.SetString(text)
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 0, base.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 0, base.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, base.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("nil values are not supported for %v", t)
	}
	return v, nil
}

// validIdentifier checks a class or property name against the CIM identifier grammar:
// a letter, underscore or U+0080..U+FFEF, followed by the same or digits.
func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= 0x80 && r <= 0xFFEF:
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
