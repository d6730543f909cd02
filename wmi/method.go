// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// ExecMethod invokes a method on the class or instance at path.  in holds the input parameters and
// may be nil.  The returned output parameters may be nil for methods that return nothing.
func (c *Connection) ExecMethod(ctx context.Context, path string, method string, in *ClassObject) (*ClassObject, error) {
	_, span, entry := c.startOp(ctx, "wmi.ExecMethod", path+"::"+method)
	defer span.Finish()
	entry.Tracef(">>>>> ExecMethod, path=%v, method=%v", path, method)
	defer entry.Trace("<<<<< ExecMethod")

	var inHandle Handle
	if in != nil {
		h, err := in.nativeHandle()
		if err != nil {
			return nil, err
		}
		inHandle = h
	}
	out, err := c.services.ExecMethod(path, method, inHandle)
	if err != nil {
		entry.Errorf("Failed IWbemServices::ExecMethod method, method=%v, err=%v", method, err)
		span.SetTag("error", true)
		return nil, err
	}
	return AdoptClassObject(out), nil
}

// Class fetches a class definition by name
func (c *Connection) Class(ctx context.Context, name string) (*ClassObject, error) {
	if !validIdentifier(name) {
		return nil, &InvalidIdentifierError{Name: name}
	}
	return c.GetRawByPath(ctx, name)
}

// ClassOf fetches the class definition of T
func ClassOf[T any](ctx context.Context, c *Connection) (*ClassObject, error) {
	desc, err := Describe[T]()
	if err != nil {
		return nil, err
	}
	return c.Class(ctx, desc.Name)
}

// ExecClassMethod invokes a static method of class.  The name of in's type is the method name and
// its fields are the input parameters; the output parameters are decoded into Out.
func ExecClassMethod[Out any](ctx context.Context, c *Connection, class string, in interface{}) (Out, error) {
	return execMethod[Out](ctx, c, class, class, in)
}

// ExecInstanceMethod invokes a method on the instance at objectPath (e.g.
// Win32_Process.Handle="4").  in and Out follow ExecClassMethod.
func ExecInstanceMethod[Out any](ctx context.Context, c *Connection, objectPath string, in interface{}) (Out, error) {
	return execMethod[Out](ctx, c, classFromPath(objectPath), objectPath, in)
}

func execMethod[Out any](ctx context.Context, c *Connection, class string, path string, in interface{}) (Out, error) {
	var result Out

	if in == nil {
		return result, ErrExpectedStruct
	}
	inDesc, err := DescribeType(reflect.TypeOf(in))
	if err != nil {
		return result, err
	}
	method := inDesc.Name

	params, err := inputParameters(ctx, c, class, method, in)
	if err != nil {
		return result, err
	}
	if params != nil {
		defer params.Release()
	}

	out, err := c.ExecMethod(ctx, path, method, params)
	if err != nil {
		return result, err
	}
	if out == nil {
		if outDesc, err := Describe[Out](); err == nil && len(outDesc.Fields) == 0 {
			return result, nil
		}
		return result, fmt.Errorf("method %s.%s returned no output parameters: %w", class, method, ErrResultEmpty)
	}
	defer out.Release()
	err = out.Unmarshal(&result)
	return result, err
}

// inputParameters spawns the method's input parameter object and fills it from in
func inputParameters(ctx context.Context, c *Connection, class string, method string, in interface{}) (*ClassObject, error) {
	values, err := MarshalVariantMap(in)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, v := range values {
			v.Release()
		}
	}()

	classObj, err := c.Class(ctx, class)
	if err != nil {
		return nil, err
	}
	defer classObj.Release()

	inSig, outSig, err := classObj.GetMethod(method)
	if err != nil {
		return nil, err
	}
	outSig.Release()
	if inSig == nil {
		if len(values) > 0 {
			return nil, fmt.Errorf("method %s.%s takes no input parameters", class, method)
		}
		return nil, nil
	}
	defer inSig.Release()

	params, err := inSig.SpawnInstance()
	if err != nil {
		return nil, err
	}
	if err := params.PutProperties(values); err != nil {
		params.Release()
		return nil, err
	}
	return params, nil
}

// classFromPath returns the class name of an object path such as
// \\HOST\root\cimv2:Win32_Process.Handle="4"
func classFromPath(path string) string {
	end := strings.IndexAny(path, ".=")
	if end < 0 {
		end = len(path)
	}
	start := strings.LastIndex(path[:end], ":") + 1
	return path[start:end]
}
