// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

// Package wmitest provides in-memory WMI class objects, enumerators and sessions for testing code
// built on package wmi without a Windows host.
package wmitest

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hpe-storage/wmiclient/wmi"
)

type property struct {
	value   wmi.Variant
	cimType wmi.CIMType
}

type method struct {
	in, out *Object
}

// Object is an in-memory class object.  It starts with one reference.
type Object struct {
	mu      sync.Mutex
	class   string
	path    string
	props   map[string]property
	methods map[string]method
	refs    int32

	// PutErr, when set, is returned by Put
	PutErr error
}

// NewObject returns an object of the given class
func NewObject(class string) *Object {
	return &Object{
		class:   class,
		props:   make(map[string]property),
		methods: make(map[string]method),
		refs:    1,
	}
}

func notFound(op string) error {
	return &wmi.NativeCallError{Op: op, HResult: wmi.WBEM_E_NOT_FOUND}
}

// With sets a property together with its declared CIM type
func (o *Object) With(name string, value wmi.Variant, cimType wmi.CIMType) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.props[name] = property{value: value, cimType: cimType}
	return o
}

// WithString sets a CIM_STRING property
func (o *Object) WithString(name, value string) *Object {
	return o.With(name, wmi.StringVariant(value), wmi.CIM_STRING)
}

// WithPath sets __PATH and __RELPATH
func (o *Object) WithPath(path string) *Object {
	o.path = path
	return o
}

// WithMethod declares a method with its input and output parameter definitions (either may be
// nil)
func (o *Object) WithMethod(name string, in, out *Object) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.methods[name] = method{in: in, out: out}
	return o
}

// Refs returns the current reference count
func (o *Object) Refs() int32 {
	return atomic.LoadInt32(&o.refs)
}

// Value returns a property value as last set or put
func (o *Object) Value(name string) (wmi.Variant, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.props[name]
	return p.value, ok
}

func (o *Object) AddRef() int32 {
	return atomic.AddInt32(&o.refs, 1)
}

func (o *Object) Release() int32 {
	return atomic.AddInt32(&o.refs, -1)
}

func (o *Object) Get(name string) (wmi.Variant, wmi.CIMType, error) {
	switch name {
	case "__CLASS":
		return wmi.StringVariant(o.class), wmi.CIM_STRING, nil
	case "__PATH", "__RELPATH":
		if o.path == "" {
			return wmi.NullVariant(), wmi.CIM_STRING, nil
		}
		path := o.path
		if name == "__RELPATH" {
			path = path[strings.LastIndex(path, ":")+1:]
		}
		return wmi.StringVariant(path), wmi.CIM_STRING, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.props[name]
	if !ok {
		return wmi.Variant{}, wmi.CIM_ILLEGAL, notFound("IWbemClassObject::Get")
	}
	return p.value.Clone(), p.cimType, nil
}

func (o *Object) Put(name string, value wmi.Variant) error {
	if o.PutErr != nil {
		return o.PutErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	p := o.props[name]
	p.value.Release()
	p.value = value.Clone()
	o.props[name] = p
	return nil
}

func (o *Object) GetNames() ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.props))
	for name := range o.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (o *Object) GetMethod(name string) (wmi.Handle, wmi.Handle, error) {
	o.mu.Lock()
	m, ok := o.methods[name]
	o.mu.Unlock()
	if !ok {
		return nil, nil, notFound("IWbemClassObject::GetMethod")
	}
	return handle(m.in, true), handle(m.out, true), nil
}

func (o *Object) SpawnInstance() (wmi.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	inst := NewObject(o.class)
	for name, p := range o.props {
		inst.props[name] = property{value: p.value.Clone(), cimType: p.cimType}
	}
	return inst, nil
}

func (o *Object) CompareTo(other wmi.Handle) (bool, error) {
	oo, ok := other.(*Object)
	if !ok || oo.class != o.class {
		return false, nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	oo.mu.Lock()
	defer oo.mu.Unlock()
	if len(o.props) != len(oo.props) {
		return false, nil
	}
	for name, p := range o.props {
		q, ok := oo.props[name]
		if !ok || !p.value.Equal(q.value) {
			return false, nil
		}
	}
	return true, nil
}

// handle converts o to a Handle, keeping a nil object a nil interface
func handle(o *Object, addRef bool) wmi.Handle {
	if o == nil {
		return nil
	}
	if addRef {
		o.AddRef()
	}
	return o
}

// Enumerator yields a fixed list of objects, or events sent while it is being read
type Enumerator struct {
	items  chan wmi.Handle
	err    error
	closed int32
}

// NewEnumerator returns an enumerator over the given objects.  err, when not nil, is returned
// once the objects are exhausted.
func NewEnumerator(err error, objects ...*Object) *Enumerator {
	e := &Enumerator{items: make(chan wmi.Handle, len(objects)), err: err}
	for _, o := range objects {
		e.items <- o
	}
	close(e.items)
	return e
}

// NewEventSource returns an enumerator that waits for objects passed to Send
func NewEventSource() *Enumerator {
	return &Enumerator{items: make(chan wmi.Handle)}
}

// Send delivers an event, blocking until it is read
func (e *Enumerator) Send(o *Object) {
	e.items <- o
}

// Closed returns true once Close was called
func (e *Enumerator) Closed() bool {
	return atomic.LoadInt32(&e.closed) == 1
}

func (e *Enumerator) Next(timeout time.Duration) (wmi.Handle, error) {
	var expired <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case h, ok := <-e.items:
		if !ok {
			return nil, e.err
		}
		return h, nil
	case <-expired:
		return nil, wmi.ErrWaitTimeout
	}
}

func (e *Enumerator) Close() error {
	atomic.StoreInt32(&e.closed, 1)
	return nil
}

// Services is an in-memory session.  Unset funcs return empty enumerations.
type Services struct {
	mu sync.Mutex

	QueryFunc        func(query string) (wmi.Enumerator, error)
	NotificationFunc func(query string) (wmi.Enumerator, error)
	MethodFunc       func(path, method string, in *Object) (*Object, error)

	objects map[string]*Object
	queries []string
	closed  bool
}

// NewServices returns an empty session
func NewServices() *Services {
	return &Services{objects: make(map[string]*Object)}
}

// AddObject makes o available to GetObject under path
func (s *Services) AddObject(path string, o *Object) *Services {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = o
	return s
}

// Queries returns the queries run so far
func (s *Services) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Closed returns true once Close was called
func (s *Services) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Services) record(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
}

func (s *Services) ExecQuery(query string) (wmi.Enumerator, error) {
	s.record(query)
	if s.QueryFunc == nil {
		return NewEnumerator(nil), nil
	}
	return s.QueryFunc(query)
}

func (s *Services) ExecNotificationQuery(query string) (wmi.Enumerator, error) {
	s.record(query)
	if s.NotificationFunc == nil {
		return NewEnumerator(nil), nil
	}
	return s.NotificationFunc(query)
}

func (s *Services) GetObject(path string) (wmi.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[path]
	if !ok {
		return nil, notFound("IWbemServices::GetObject")
	}
	return handle(o, true), nil
}

func (s *Services) ExecMethod(path, method string, in wmi.Handle) (wmi.Handle, error) {
	if s.MethodFunc == nil {
		return nil, &wmi.NativeCallError{Op: "IWbemServices::ExecMethod", HResult: wmi.WBEM_E_INVALID_METHOD}
	}
	var obj *Object
	if in != nil {
		obj = in.(*Object)
	}
	out, err := s.MethodFunc(path, method, obj)
	if err != nil {
		return nil, err
	}
	return handle(out, false), nil
}

func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Connect returns a connection over s with the default configuration and a short poll interval
func Connect(s *Services) *wmi.Connection {
	config := wmi.DefaultConfig()
	config.PollInterval = 10 * time.Millisecond
	return wmi.NewConnection(s, config)
}
