// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

//go:build windows
// +build windows

package wmi

import (
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	log "github.com/hpe-storage/wmiclient/logger"
	"golang.org/x/sys/windows"
)

// IWbemClassObjectVtbl is the IWbemClassObject COM virtual table
type IWbemClassObjectVtbl struct {
	QueryInterface          uintptr
	AddRef                  uintptr
	Release                 uintptr
	GetQualifierSet         uintptr
	Get                     uintptr
	Put                     uintptr
	Delete                  uintptr
	GetNames                uintptr
	BeginEnumeration        uintptr
	Next                    uintptr
	EndEnumeration          uintptr
	GetPropertyQualifierSet uintptr
	Clone                   uintptr
	GetObjectText           uintptr
	SpawnDerivedClass       uintptr
	SpawnInstance           uintptr
	CompareTo               uintptr
	GetPropertyOrigin       uintptr
	InheritsFrom            uintptr
	GetMethod               uintptr
	PutMethod               uintptr
	DeleteMethod            uintptr
	BeginMethodEnumeration  uintptr
	NextMethod              uintptr
	EndMethodEnumeration    uintptr
	GetMethodQualifierSet   uintptr
	GetMethodOrigin         uintptr
}

// comObject is an IWbemClassObject pointer.  It holds the reference it was created with.
type comObject struct {
	obj *ole.IUnknown
}

func (o *comObject) vtable() *IWbemClassObjectVtbl {
	return (*IWbemClassObjectVtbl)(unsafe.Pointer(o.obj.RawVTable))
}

func (o *comObject) AddRef() int32 {
	return o.obj.AddRef()
}

func (o *comObject) Release() int32 {
	return o.obj.Release()
}

func (o *comObject) Get(name string) (Variant, CIMType, error) {
	propertyUTF16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return Variant{}, CIM_ILLEGAL, err
	}

	var value Variant
	var cimType CIMType
	err = comCall(func() error {
		var vtProp ole.VARIANT
		var flavor uint32
		hres, _, _ := syscall.Syscall6(o.vtable().Get, 6, // Call the IWbemClassObject::Get method
			uintptr(unsafe.Pointer(o.obj)),
			uintptr(unsafe.Pointer(propertyUTF16)), // LPCWSTR wszName - Name of the desired property.
			uintptr(0),                             // long    lFlags   - Reserved. This parameter must be 0 (zero).
			uintptr(unsafe.Pointer(&vtProp)),       // VARIANT *pVal    - Returned WMI class property (as variant)
			uintptr(unsafe.Pointer(&cimType)),      // CIMTYPE *pType   - CIM type
			uintptr(unsafe.Pointer(&flavor)))       // long    *plFlavor - Property origin
		if err := hresultError("IWbemClassObject::Get", hres); err != nil {
			return err
		}
		defer ole.VariantClear(&vtProp)
		value, err = FromNative(&vtProp)
		return err
	})
	if err != nil {
		return Variant{}, CIM_ILLEGAL, err
	}
	return value, cimType, nil
}

func (o *comObject) Put(name string, value Variant) error {
	propertyUTF16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	return comCall(func() error {
		vtProp, err := ToNative(value)
		if err != nil {
			return err
		}
		defer ole.VariantClear(&vtProp)
		hres, _, _ := syscall.Syscall6(o.vtable().Put, 5, // Call the IWbemClassObject::Put method
			uintptr(unsafe.Pointer(o.obj)),
			uintptr(unsafe.Pointer(propertyUTF16)),
			uintptr(0),
			uintptr(unsafe.Pointer(&vtProp)),
			uintptr(0),
			uintptr(0))
		return hresultError("IWbemClassObject::Put", hres)
	})
}

func (o *comObject) GetNames() ([]string, error) {
	var names []string
	err := comCall(func() error {
		var classPropertyNames *ole.SafeArray
		hres, _, _ := syscall.Syscall6(o.vtable().GetNames, 5, // Call the IWbemClassObject::GetNames method
			uintptr(unsafe.Pointer(o.obj)),
			uintptr(0),
			uintptr(WBEM_FLAG_ALWAYS|WBEM_FLAG_NONSYSTEM_ONLY),
			uintptr(0),
			uintptr(unsafe.Pointer(&classPropertyNames)),
			uintptr(0))
		if err := hresultError("IWbemClassObject::GetNames", hres); err != nil {
			return err
		}
		safeClassPropertyNames := ole.SafeArrayConversion{Array: classPropertyNames}
		defer safeClassPropertyNames.Release()
		names = safeClassPropertyNames.ToStringArray()
		return nil
	})
	return names, err
}

func (o *comObject) GetMethod(name string) (Handle, Handle, error) {
	methodUTF16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, nil, err
	}
	var pIn, pOut *ole.IUnknown
	err = comCall(func() error {
		hres, _, _ := syscall.Syscall6(o.vtable().GetMethod, 5, // Call the IWbemClassObject::GetMethod method
			uintptr(unsafe.Pointer(o.obj)),
			uintptr(unsafe.Pointer(methodUTF16)),
			uintptr(0),
			uintptr(unsafe.Pointer(&pIn)),
			uintptr(unsafe.Pointer(&pOut)),
			uintptr(0))
		return hresultError("IWbemClassObject::GetMethod", hres)
	})
	if err != nil {
		return nil, nil, err
	}
	return wrapObject(pIn), wrapObject(pOut), nil
}

func (o *comObject) SpawnInstance() (Handle, error) {
	var pInstance *ole.IUnknown
	err := comCall(func() error {
		hres, _, _ := syscall.Syscall(o.vtable().SpawnInstance, 3, // Call the IWbemClassObject::SpawnInstance method
			uintptr(unsafe.Pointer(o.obj)),
			uintptr(0),
			uintptr(unsafe.Pointer(&pInstance)))
		return hresultError("IWbemClassObject::SpawnInstance", hres)
	})
	if err != nil {
		return nil, err
	}
	return &comObject{obj: pInstance}, nil
}

func (o *comObject) CompareTo(other Handle) (bool, error) {
	co, ok := other.(*comObject)
	if !ok {
		return false, nil
	}
	var hres uintptr
	err := comCall(func() error {
		hres, _, _ = syscall.Syscall(o.vtable().CompareTo, 3, // Call the IWbemClassObject::CompareTo method
			uintptr(unsafe.Pointer(o.obj)),
			uintptr(WBEM_COMPARISON_INCLUDE_ALL),
			uintptr(unsafe.Pointer(co.obj)))
		return hresultError("IWbemClassObject::CompareTo", hres)
	})
	if err != nil {
		return false, err
	}
	return hres == WBEM_S_SAME, nil
}

// wrapObject returns nil for a nil interface pointer so callers can test the Handle against nil
func wrapObject(p *ole.IUnknown) Handle {
	if p == nil {
		return nil
	}
	return &comObject{obj: p}
}

// unknownToClassObject takes a new reference on an embedded object.  The VARIANT keeps its own
// reference.
func unknownToClassObject(punk *ole.IUnknown) (*ClassObject, error) {
	disp, err := punk.QueryInterface(IID_IWbemClassObject)
	if err != nil {
		log.Errorf("Embedded object is not an IWbemClassObject, err=%v", err)
		return nil, &ConversionError{VT: uint16(ole.VT_UNKNOWN), Reason: err.Error()}
	}
	return AdoptClassObject(&comObject{obj: (*ole.IUnknown)(unsafe.Pointer(disp))}), nil
}

// safeArrayElements copies each element of a one dimensional SAFEARRAY into a Variant
func safeArrayElements(parray *ole.SafeArray, elemVT ole.VT) ([]Variant, error) {
	var lower, upper int32
	hres, _, _ := procSafeArrayGetLBound.Call(uintptr(unsafe.Pointer(parray)), 1, uintptr(unsafe.Pointer(&lower)))
	if err := hresultError("SafeArrayGetLBound", hres); err != nil {
		return nil, err
	}
	hres, _, _ = procSafeArrayGetUBound.Call(uintptr(unsafe.Pointer(parray)), 1, uintptr(unsafe.Pointer(&upper)))
	if err := hresultError("SafeArrayGetUBound", hres); err != nil {
		return nil, err
	}

	elems := make([]Variant, 0, upper-lower+1)
	for i := lower; i <= upper; i++ {
		var element ole.VARIANT
		var target unsafe.Pointer
		if elemVT == ole.VT_VARIANT {
			target = unsafe.Pointer(&element)
		} else {
			element.VT = elemVT
			target = unsafe.Pointer(&element.Val)
		}
		hres, _, _ := procSafeArrayGetElement.Call(uintptr(unsafe.Pointer(parray)), uintptr(unsafe.Pointer(&i)), uintptr(target))
		if err := hresultError("SafeArrayGetElement", hres); err != nil {
			for _, e := range elems {
				e.Release()
			}
			return nil, err
		}
		v, err := FromNative(&element)
		ole.VariantClear(&element)
		if err != nil {
			for _, e := range elems {
				e.Release()
			}
			return nil, &ConversionError{VT: uint16(ole.VT_ARRAY | elemVT), Reason: err.Error()}
		}
		elems = append(elems, v)
	}
	return elems, nil
}

func stringToNative(s string) (ole.VARIANT, error) {
	p := allocBSTR(s, false)
	return ole.VARIANT{VT: ole.VT_BSTR, Val: int64(uintptr(unsafe.Pointer(p)))}, nil
}

func objectToNative(o *ClassObject) (ole.VARIANT, error) {
	h, err := o.nativeHandle()
	if err != nil {
		return ole.VARIANT{}, err
	}
	co, ok := h.(*comObject)
	if !ok {
		return ole.VARIANT{}, &UnsupportedTypeError{Type: "non-native class object"}
	}
	co.obj.AddRef()
	return ole.VARIANT{VT: ole.VT_UNKNOWN, Val: int64(uintptr(unsafe.Pointer(co.obj)))}, nil
}

// arrayToNative builds a SAFEARRAY of the element type the first element travels as.  The
// elements all have the same kind.
func arrayToNative(arr []Variant) (ole.VARIANT, error) {
	elemVT, ok := nativeArrayType(arr[0].kind)
	if !ok {
		return ole.VARIANT{}, &UnsupportedTypeError{Type: "array of " + arr[0].kind.String()}
	}
	psa, _, _ := procSafeArrayCreateVector.Call(uintptr(elemVT), 0, uintptr(len(arr)))
	if psa == 0 {
		panic("wmi: unable to allocate SAFEARRAY")
	}

	for i := range arr {
		if err := putArrayElement(psa, int32(i), elemVT, arr[i]); err != nil {
			procSafeArrayDestroy.Call(psa)
			return ole.VARIANT{}, err
		}
	}
	return ole.VARIANT{VT: ole.VT_ARRAY | elemVT, Val: int64(psa)}, nil
}

// putArrayElement copies one element into the SAFEARRAY.  SafeArrayPutElement copies BSTRs and
// adds a reference to interfaces, so the temporaries are freed here.
func putArrayElement(psa uintptr, index int32, elemVT ole.VT, v Variant) error {
	var native ole.VARIANT
	var err error
	switch elemVT {
	case ole.VT_BSTR:
		native, err = stringToNative(arrayElementText(v))
	default:
		native, err = ToNative(v)
	}
	if err != nil {
		return err
	}
	defer ole.VariantClear(&native)

	value := uintptr(unsafe.Pointer(&native.Val))
	if elemVT == ole.VT_BSTR || elemVT == ole.VT_UNKNOWN {
		value = uintptr(native.Val)
	}
	hres, _, _ := procSafeArrayPutElement.Call(psa, uintptr(unsafe.Pointer(&index)), value)
	return hresultError("SafeArrayPutElement", hres)
}
