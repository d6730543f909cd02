// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

//go:build windows
// +build windows

package wmi

import (
	"context"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	log "github.com/hpe-storage/wmiclient/logger"
	"golang.org/x/sys/windows"
)

// Package variables
var (
	// Serializes every COM call made by this package
	lock sync.Mutex

	// Lazy load the ole32.dll and oleaut32.dll APIs
	ole32                     = windows.NewLazySystemDLL("ole32.dll")
	procCoInitializeSecurity  = ole32.NewProc("CoInitializeSecurity")
	procCoSetProxyBlanket     = ole32.NewProc("CoSetProxyBlanket")
	oleaut32                  = windows.NewLazySystemDLL("oleaut32.dll")
	procSafeArrayGetElement   = oleaut32.NewProc("SafeArrayGetElement")
	procSafeArrayPutElement   = oleaut32.NewProc("SafeArrayPutElement")
	procSafeArrayGetLBound    = oleaut32.NewProc("SafeArrayGetLBound")
	procSafeArrayGetUBound    = oleaut32.NewProc("SafeArrayGetUBound")
	procSafeArrayCreateVector = oleaut32.NewProc("SafeArrayCreateVector")
	procSafeArrayDestroy      = oleaut32.NewProc("SafeArrayDestroy")

	// WMI Class and Interface GUIDs
	CLSID_WbemLocator    = ole.NewGUID("4590f811-1d3a-11d0-891f-00aa004b2e24")
	IID_IWbemLocator     = ole.NewGUID("dc12a687-737f-11cf-884d-00aa004b2e24")
	IID_IWbemClassObject = ole.NewGUID("dc12a681-737f-11cf-884d-00aa004b2e24")
	CLSID_WbemContext    = ole.NewGUID("674b6698-ee92-11d0-ad71-00c04fd8fdff")
	IID_IWbemContext     = ole.NewGUID("44aca674-e8fc-11d0-a07c-00c04fb68820")

	comInitialized bool          // Did COM successfully initialize?
	wmiWbemLocator *ole.IUnknown // Enumerated WMI locator object
)

// EOLE_AUTHENTICATION_CAPABILITIES specifies various capabilities in CoInitializeSecurity
// and IClientSecurity::SetBlanket (or its helper function CoSetProxyBlanket).
type EOLE_AUTHENTICATION_CAPABILITIES uint32

const (
	EOAC_NONE EOLE_AUTHENTICATION_CAPABILITIES = 0
)

// Authentication and authorization services used with CoSetProxyBlanket
const (
	RPC_C_AUTHN_WINNT = 10
	RPC_C_AUTHZ_NONE  = 0
)

// WBEM_GENERIC_FLAG_TYPE enumeration is used to indicate and update the type of the flag
type WBEM_GENERIC_FLAG_TYPE uint32

const (
	WBEM_FLAG_RETURN_WBEM_COMPLETE WBEM_GENERIC_FLAG_TYPE = 0x0
	WBEM_FLAG_RETURN_IMMEDIATELY   WBEM_GENERIC_FLAG_TYPE = 0x10
	WBEM_FLAG_FORWARD_ONLY         WBEM_GENERIC_FLAG_TYPE = 0x20
)

// WBEM_TIMEOUT_TYPE contains values used to specify the timeout for the IEnumWbemClassObject::Next method
type WBEM_TIMEOUT_TYPE uint32

const (
	WBEM_NO_WAIT  WBEM_TIMEOUT_TYPE = 0
	WBEM_INFINITE WBEM_TIMEOUT_TYPE = 0xFFFFFFFF
)

// WBEM_CONDITION_FLAG_TYPE contains flags used with the IWbemClassObject::GetNames method.
type WBEM_CONDITION_FLAG_TYPE uint32

const (
	WBEM_FLAG_ALWAYS         WBEM_CONDITION_FLAG_TYPE = 0
	WBEM_FLAG_NONSYSTEM_ONLY WBEM_CONDITION_FLAG_TYPE = 0x40
)

// WBEM_COMPARISON_FLAG contains flags used with the IWbemClassObject::CompareTo method
const (
	WBEM_COMPARISON_INCLUDE_ALL = 0
	WBEM_S_SAME                 = 0
	WBEM_S_DIFFERENT            = 1
)

// IWbemLocatorVtbl is the IWbemLocator COM virtual table
type IWbemLocatorVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	ConnectServer  uintptr
}

// IWbemServicesVtbl is the IWbemServices COM virtual table
type IWbemServicesVtbl struct {
	QueryInterface             uintptr
	AddRef                     uintptr
	Release                    uintptr
	OpenNamespace              uintptr
	CancelAsyncCall            uintptr
	QueryObjectSink            uintptr
	GetObject                  uintptr
	GetObjectAsync             uintptr
	PutClass                   uintptr
	PutClassAsync              uintptr
	DeleteClass                uintptr
	DeleteClassAsync           uintptr
	CreateClassEnum            uintptr
	CreateClassEnumAsync       uintptr
	PutInstance                uintptr
	PutInstanceAsync           uintptr
	DeleteInstance             uintptr
	DeleteInstanceAsync        uintptr
	CreateInstanceEnum         uintptr
	CreateInstanceEnumAsync    uintptr
	ExecQuery                  uintptr
	ExecQueryAsync             uintptr
	ExecNotificationQuery      uintptr
	ExecNotificationQueryAsync uintptr
	ExecMethod                 uintptr
	ExecMethodAsync            uintptr
}

// IWbemContextVtbl is the IWbemContext COM virtual table
type IWbemContextVtbl struct {
	QueryInterface   uintptr
	AddRef           uintptr
	Release          uintptr
	Clone            uintptr
	GetNames         uintptr
	BeginEnumeration uintptr
	Next             uintptr
	EndEnumeration   uintptr
	SetValue         uintptr
	GetValue         uintptr
	DeleteValue      uintptr
	DeleteAll        uintptr
}

// IEnumWbemClassObjectVtbl is the IEnumWbemClassObject COM virtual table
type IEnumWbemClassObjectVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	Reset          uintptr
	Next           uintptr
	NextAsync      uintptr
	Clone          uintptr
	Skip           uintptr
}

// init joins the multithreaded apartment on the startup thread and creates the process wide
// locator.  S_FALSE means COM was already initialized here.
func init() {
	comInitialized = true
	err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	if err != nil {
		comInitialized = false
		if oleCode, ok := err.(*ole.OleError); ok {
			switch oleCode.Code() {
			case S_OK, S_FALSE:
				comInitialized = true
			}
		}
		if !comInitialized {
			log.Errorf("Unable to initialize COM, err=%v", err)
		}
	}

	// process wide security: default authentication, impersonation
	if comInitialized {
		hres, _, _ := procCoInitializeSecurity.Call(
			uintptr(0),
			uintptr(0xFFFFFFFF),                  // COM authentication
			uintptr(0),                           // Authentication services
			uintptr(0),                           // Reserved
			uintptr(RPC_C_AUTHN_LEVEL_DEFAULT),   // Default authentication
			uintptr(RPC_C_IMP_LEVEL_IMPERSONATE), // Default Impersonation
			uintptr(0),                           // Authentication info
			uintptr(EOAC_NONE),                   // Additional capabilities
			uintptr(0))                           // Reserved
		if FAILED(hres) {
			log.Errorf("Unable to initialize COM security, err=%v", ole.NewError(hres))
		} else {
			wmiWbemLocator, err = ole.CreateInstance(CLSID_WbemLocator, IID_IWbemLocator)
			if err != nil {
				log.Errorf("Unable to obtain the initial locator to WMI, err=%v", err)
				wmiWbemLocator = nil
			}
		}
	}
}

// Cleanup releases the locator and uninitializes COM.  Call it at most once, on process exit.
func Cleanup() {
	lock.Lock()
	defer lock.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if wmiWbemLocator != nil {
		wmiWbemLocator.Release()
		wmiWbemLocator = nil
	}
	if comInitialized {
		ole.CoUninitialize()
	}
}

// comCall runs fn holding the package lock on a locked OS thread
func comCall(fn func() error) error {
	lock.Lock()
	defer lock.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	return fn()
}

// comWait runs fn on a locked OS thread without the package lock.  Blocking waits use it so that
// other calls are not queued behind them; the process joined the multithreaded apartment.
func comWait(fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	fn()
}

func hresultError(op string, hres uintptr) error {
	if FAILED(hres) {
		return &NativeCallError{Op: op, HResult: uint32(hres)}
	}
	return nil
}

// allocBSTR returns a BSTR for s, or nil for the empty string when nullable is set.  Allocation
// failure panics.
func allocBSTR(s string, nullable bool) *int16 {
	if s == "" && nullable {
		return nil
	}
	p := ole.SysAllocString(s)
	if p == nil {
		panic("wmi: unable to allocate BSTR")
	}
	return p
}

func freeBSTR(p *int16) {
	if p != nil {
		ole.SysFreeString(p)
	}
}

// Connect opens a WMI session through IWbemLocator::ConnectServer and applies the proxy blanket
func Connect(ctx context.Context, config *Config) (*Connection, error) {
	if config == nil {
		config = DefaultConfig()
	}
	log.Tracef(">>>>> Connect, namespace=%v, server=%v", config.Namespace, config.Server)
	defer log.Trace("<<<<< Connect")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// If our package init routine was unable to initialize COM, immediately fail the request
	if wmiWbemLocator == nil {
		log.Error("COM initialization was not successful during init(), failing WMI connection")
		return nil, &NativeCallError{Op: "CoInitializeEx", HResult: WBEM_E_CRITICAL_ERROR}
	}

	values, err := config.Context.Variants()
	if err != nil {
		return nil, err
	}

	var pSvc, pCtx *ole.IUnknown
	err = comCall(func() error {
		resource := allocBSTR(config.resource(), false)
		defer freeBSTR(resource)
		user := allocBSTR(config.User, true)
		defer freeBSTR(user)
		password := allocBSTR(config.Password, true)
		defer freeBSTR(password)
		locale := allocBSTR(config.Locale, true)
		defer freeBSTR(locale)
		authority := allocBSTR(config.Authority, true)
		defer freeBSTR(authority)

		myVTable := (*IWbemLocatorVtbl)(unsafe.Pointer(wmiWbemLocator.RawVTable))
		hres, _, _ := syscall.Syscall9(myVTable.ConnectServer, 9, // Call the IWbemLocator::ConnectServer method
			uintptr(unsafe.Pointer(wmiWbemLocator)),
			uintptr(unsafe.Pointer(resource)),
			uintptr(unsafe.Pointer(user)),
			uintptr(unsafe.Pointer(password)),
			uintptr(unsafe.Pointer(locale)),
			uintptr(0),
			uintptr(unsafe.Pointer(authority)),
			uintptr(0),
			uintptr(unsafe.Pointer(&pSvc)))
		if err := hresultError("IWbemLocator::ConnectServer", hres); err != nil {
			return err
		}

		if len(values) != 0 {
			var ctxErr error
			if pCtx, ctxErr = newWbemContext(values); ctxErr != nil {
				pSvc.Release()
				pSvc = nil
				return ctxErr
			}
		}

		if config.AuthLevel == 0 && config.ImpersonationLevel == 0 {
			return nil
		}
		hres, _, _ = procCoSetProxyBlanket.Call(
			uintptr(unsafe.Pointer(pSvc)),
			uintptr(RPC_C_AUTHN_WINNT),
			uintptr(RPC_C_AUTHZ_NONE),
			uintptr(0),
			uintptr(config.AuthLevel),
			uintptr(config.ImpersonationLevel),
			uintptr(0),
			uintptr(EOAC_NONE))
		if err := hresultError("CoSetProxyBlanket", hres); err != nil {
			pSvc.Release()
			pSvc = nil
			if pCtx != nil {
				pCtx.Release()
				pCtx = nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		// a missing namespace is common (e.g. ROOT\MSCluster off a cluster node)
		if hasHResult(err, WBEM_E_INVALID_NAMESPACE) {
			log.Tracef("WMI namespace not present, err=%v", err)
		} else {
			log.Errorf("Unable to connect to WMI, err=%v", err)
		}
		return nil, err
	}
	return NewConnection(&comServices{svc: pSvc, ctx: pCtx}, config), nil
}

// newWbemContext creates an IWbemContext holding values.  Called from within comCall.
func newWbemContext(values map[string]Variant) (*ole.IUnknown, error) {
	pCtx, err := ole.CreateInstance(CLSID_WbemContext, IID_IWbemContext)
	if err != nil {
		if oleErr, ok := err.(*ole.OleError); ok {
			return nil, &NativeCallError{Op: "CoCreateInstance(WbemContext)", HResult: uint32(oleErr.Code())}
		}
		return nil, err
	}
	vtable := (*IWbemContextVtbl)(unsafe.Pointer(pCtx.RawVTable))
	for name, value := range values {
		if err := setContextValue(pCtx, vtable, name, value); err != nil {
			pCtx.Release()
			return nil, err
		}
	}
	return pCtx, nil
}

func setContextValue(pCtx *ole.IUnknown, vtable *IWbemContextVtbl, name string, value Variant) error {
	wszName, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	native, err := ToNative(value)
	if err != nil {
		return err
	}
	defer ole.VariantClear(&native)
	hres, _, _ := syscall.Syscall6(vtable.SetValue, 4,
		uintptr(unsafe.Pointer(pCtx)),
		uintptr(unsafe.Pointer(wszName)),
		uintptr(0),
		uintptr(unsafe.Pointer(&native)),
		0, 0)
	return hresultError("IWbemContext::SetValue", hres)
}

// comServices is the IWbemServices backed session.  ctx, when set, is the IWbemContext passed
// with every call.
type comServices struct {
	svc *ole.IUnknown
	ctx *ole.IUnknown
}

func (s *comServices) vtable() *IWbemServicesVtbl {
	return (*IWbemServicesVtbl)(unsafe.Pointer(s.svc.RawVTable))
}

func (s *comServices) query(op string, method func(*IWbemServicesVtbl) uintptr, query string) (Enumerator, error) {
	var pEnumerator *ole.IUnknown
	err := comCall(func() error {
		if s.svc == nil {
			return errClosed
		}
		wql := allocBSTR("WQL", false)
		defer freeBSTR(wql)
		text := allocBSTR(query, false)
		defer freeBSTR(text)
		hres, _, _ := syscall.Syscall6(method(s.vtable()), 6,
			uintptr(unsafe.Pointer(s.svc)),
			uintptr(unsafe.Pointer(wql)),
			uintptr(unsafe.Pointer(text)),
			uintptr(WBEM_FLAG_FORWARD_ONLY|WBEM_FLAG_RETURN_IMMEDIATELY),
			uintptr(unsafe.Pointer(s.ctx)),
			uintptr(unsafe.Pointer(&pEnumerator)))
		return hresultError(op, hres)
	})
	if err != nil {
		return nil, err
	}
	return &comEnumerator{enum: pEnumerator}, nil
}

func (s *comServices) ExecQuery(query string) (Enumerator, error) {
	return s.query("IWbemServices::ExecQuery", func(v *IWbemServicesVtbl) uintptr { return v.ExecQuery }, query)
}

func (s *comServices) ExecNotificationQuery(query string) (Enumerator, error) {
	return s.query("IWbemServices::ExecNotificationQuery", func(v *IWbemServicesVtbl) uintptr { return v.ExecNotificationQuery }, query)
}

func (s *comServices) GetObject(path string) (Handle, error) {
	var pObject *ole.IUnknown
	err := comCall(func() error {
		if s.svc == nil {
			return errClosed
		}
		objectPath := allocBSTR(path, true)
		defer freeBSTR(objectPath)
		hres, _, _ := syscall.Syscall6(s.vtable().GetObject, 6,
			uintptr(unsafe.Pointer(s.svc)),
			uintptr(unsafe.Pointer(objectPath)),
			uintptr(0),
			uintptr(unsafe.Pointer(s.ctx)),
			uintptr(unsafe.Pointer(&pObject)),
			uintptr(0))
		return hresultError("IWbemServices::GetObject", hres)
	})
	if err != nil {
		return nil, err
	}
	return &comObject{obj: pObject}, nil
}

func (s *comServices) ExecMethod(path string, method string, in Handle) (Handle, error) {
	var pIn *ole.IUnknown
	if in != nil {
		co, ok := in.(*comObject)
		if !ok {
			return nil, &UnsupportedTypeError{Type: "non-native method input parameters"}
		}
		pIn = co.obj
	}

	var pOut *ole.IUnknown
	err := comCall(func() error {
		if s.svc == nil {
			return errClosed
		}
		objectPath := allocBSTR(path, false)
		defer freeBSTR(objectPath)
		methodName := allocBSTR(method, false)
		defer freeBSTR(methodName)
		hres, _, _ := syscall.Syscall9(s.vtable().ExecMethod, 8,
			uintptr(unsafe.Pointer(s.svc)),
			uintptr(unsafe.Pointer(objectPath)),
			uintptr(unsafe.Pointer(methodName)),
			uintptr(0),
			uintptr(unsafe.Pointer(s.ctx)),
			uintptr(unsafe.Pointer(pIn)),
			uintptr(unsafe.Pointer(&pOut)),
			uintptr(0),
			0)
		return hresultError("IWbemServices::ExecMethod", hres)
	})
	if err != nil {
		return nil, err
	}
	if pOut == nil {
		return nil, nil
	}
	return &comObject{obj: pOut}, nil
}

func (s *comServices) Close() error {
	return comCall(func() error {
		if s.svc != nil {
			s.svc.Release()
			s.svc = nil
		}
		if s.ctx != nil {
			s.ctx.Release()
			s.ctx = nil
		}
		return nil
	})
}

// comEnumerator is the IEnumWbemClassObject backed enumeration
type comEnumerator struct {
	enum      *ole.IUnknown
	itemCount int
}

func (e *comEnumerator) Next(timeout time.Duration) (Handle, error) {
	wait := uintptr(WBEM_INFINITE)
	if timeout >= 0 {
		wait = uintptr(timeout / time.Millisecond)
	}

	// hold our own reference so a concurrent Close cannot free the enumerator during the wait
	var enum *ole.IUnknown
	err := comCall(func() error {
		if e.enum == nil {
			return errClosed
		}
		e.enum.AddRef()
		enum = e.enum
		return nil
	})
	if err != nil {
		return nil, err
	}

	var pclsObj *ole.IUnknown
	var uReturn uint32
	var hres uintptr
	comWait(func() {
		pEnumeratorVTable := (*IEnumWbemClassObjectVtbl)(unsafe.Pointer(enum.RawVTable))
		hres, _, _ = syscall.Syscall6(pEnumeratorVTable.Next, 5,
			uintptr(unsafe.Pointer(enum)),
			wait,
			uintptr(1),
			uintptr(unsafe.Pointer(&pclsObj)),
			uintptr(unsafe.Pointer(&uReturn)),
			uintptr(0))
	})
	comCall(func() error {
		enum.Release()
		return nil
	})

	if uReturn == 0 {
		if hres == WBEM_S_TIMEDOUT {
			return nil, ErrWaitTimeout
		}
		if hres == WBEM_S_NO_ERROR || hres == WBEM_S_FALSE {
			return nil, nil
		}
		// If no objects enumerated, and WMI query is not supported, log event and fail with
		// WBEM_E_NOT_SUPPORTED
		if e.itemCount == 0 && (hres == WBEM_E_NOT_SUPPORTED || hres == WBEM_E_INVALID_CLASS) {
			log.Tracef("WMI query not supported, hres=%08Xh", hres)
			return nil, &NativeCallError{Op: "IEnumWbemClassObject::Next", HResult: WBEM_E_NOT_SUPPORTED}
		}
		return nil, &NativeCallError{Op: "IEnumWbemClassObject::Next", HResult: uint32(hres)}
	}
	e.itemCount++
	return &comObject{obj: pclsObj}, nil
}

func (e *comEnumerator) Close() error {
	return comCall(func() error {
		if e.enum != nil {
			e.enum.Release()
			e.enum = nil
		}
		return nil
	})
}
