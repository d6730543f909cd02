// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"sort"

	log "github.com/hpe-storage/wmiclient/logger"
)

// Handle is the native WMI class object (IWbemClassObject) behind a ClassObject.  Get returns the
// raw value together with the property's declared CIM type.
type Handle interface {
	AddRef() int32
	Release() int32
	Get(name string) (Variant, CIMType, error)
	Put(name string, value Variant) error
	GetNames() ([]string, error)
	GetMethod(name string) (in Handle, out Handle, err error)
	SpawnInstance() (Handle, error)
	CompareTo(other Handle) (bool, error)
}

// ClassObject owns one reference on a WMI class object.
//
// A ClassObject is not safe for concurrent use.  Call Release when done; Clone when the object
// must outlive the current owner.
type ClassObject struct {
	handle Handle
}

// AdoptClassObject wraps a handle whose reference the caller already holds.  The reference count
// is not changed; the ClassObject releases that reference.
func AdoptClassObject(h Handle) *ClassObject {
	if h == nil {
		return nil
	}
	return &ClassObject{handle: h}
}

// Clone returns a second owner of the same native object, adding one reference
func (o *ClassObject) Clone() *ClassObject {
	if o == nil || o.handle == nil {
		return nil
	}
	o.handle.AddRef()
	return &ClassObject{handle: o.handle}
}

// Release drops the reference.  Further calls are no-ops.
func (o *ClassObject) Release() {
	if o == nil || o.handle == nil {
		return
	}
	o.handle.Release()
	o.handle = nil
}

func (o *ClassObject) nativeHandle() (Handle, error) {
	if o == nil || o.handle == nil {
		return nil, errClosed
	}
	return o.handle, nil
}

func (o *ClassObject) sameHandle(other *ClassObject) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.handle == other.handle
}

// GetProperty fetches one property and converts it to the property's CIM type.  The caller owns
// the returned Variant.
func (o *ClassObject) GetProperty(name string) (Variant, error) {
	h, err := o.nativeHandle()
	if err != nil {
		return Variant{}, err
	}
	raw, cimType, err := h.Get(name)
	if err != nil {
		if IsNotFound(err) {
			return Variant{}, &MissingPropertyError{Property: name, Err: err}
		}
		return Variant{}, err
	}
	v, err := ConvertIntoCIMType(raw, cimType)
	if err != nil {
		raw.Release()
		return Variant{}, err
	}
	return v, nil
}

// PutProperty sets one property
func (o *ClassObject) PutProperty(name string, value Variant) error {
	h, err := o.nativeHandle()
	if err != nil {
		return err
	}
	return h.Put(name, value)
}

// PutProperties sets each property, in name order
func (o *ClassObject) PutProperties(values map[string]Variant) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := o.PutProperty(name, values[name]); err != nil {
			log.Errorf("Unable to set WMI property, property=%v, err=%v", name, err)
			return err
		}
	}
	return nil
}

// ListProperties returns the names of all non-system properties
func (o *ClassObject) ListProperties() ([]string, error) {
	h, err := o.nativeHandle()
	if err != nil {
		return nil, err
	}
	return h.GetNames()
}

func (o *ClassObject) systemString(name string) (string, error) {
	v, err := o.GetProperty(name)
	if err != nil {
		return "", err
	}
	defer v.Release()
	s, ok := v.AsString()
	if !ok {
		return "", &TypeMismatchError{Kind: v.Kind(), Type: "string"}
	}
	return s, nil
}

// Class returns the __CLASS system property
func (o *ClassObject) Class() (string, error) {
	return o.systemString(classProperty)
}

// Path returns the __PATH system property
func (o *ClassObject) Path() (string, error) {
	return o.systemString(pathProperty)
}

// RelPath returns the __RELPATH system property
func (o *ClassObject) RelPath() (string, error) {
	return o.systemString(relPathProperty)
}

// GetMethod returns the input and output parameter definitions of a method.  Either may be nil
// when the method takes no input or returns nothing.
func (o *ClassObject) GetMethod(name string) (in *ClassObject, out *ClassObject, err error) {
	h, err := o.nativeHandle()
	if err != nil {
		return nil, nil, err
	}
	inSig, outSig, err := h.GetMethod(name)
	if err != nil {
		return nil, nil, err
	}
	return AdoptClassObject(inSig), AdoptClassObject(outSig), nil
}

// SpawnInstance creates a new instance of this class (or of a method's parameter definition)
func (o *ClassObject) SpawnInstance() (*ClassObject, error) {
	h, err := o.nativeHandle()
	if err != nil {
		return nil, err
	}
	inst, err := h.SpawnInstance()
	if err != nil {
		return nil, err
	}
	return AdoptClassObject(inst), nil
}

// Equal compares two class objects with the native comparison
func (o *ClassObject) Equal(other *ClassObject) (bool, error) {
	h, err := o.nativeHandle()
	if err != nil {
		return false, err
	}
	oh, err := other.nativeHandle()
	if err != nil {
		return false, err
	}
	if h == oh {
		return true, nil
	}
	return h.CompareTo(oh)
}

// Properties fetches every non-system property
func (o *ClassObject) Properties() (map[string]Variant, error) {
	names, err := o.ListProperties()
	if err != nil {
		return nil, err
	}
	props := make(map[string]Variant, len(names))
	for _, name := range names {
		v, err := o.GetProperty(name)
		if err != nil {
			for _, p := range props {
				p.Release()
			}
			return nil, err
		}
		props[name] = v
	}
	return props, nil
}
