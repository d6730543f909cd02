// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"fmt"
)

var (
	// ErrExpectedNamedStruct is returned when a class name and field list are needed from a type
	// that is not a named struct
	ErrExpectedNamedStruct = errors.New("expected a named struct; maps cannot be used where a WMI class name is required (queries, method classes, IsA filters)")

	// ErrExpectedStruct is returned when a WMI class object is decoded into, or method parameters
	// are built from, something other than a struct, map or class union
	ErrExpectedStruct = errors.New("expected a struct")

	// ErrResultEmpty is returned by single row queries that enumerate no object
	ErrResultEmpty = errors.New("WMI query returned no results")

	// ErrNotSupported is returned by native operations on hosts without WMI
	ErrNotSupported = errors.New("WMI is only available on Windows")

	// ErrWaitTimeout is returned by Enumerator.Next when no object arrived within the timeout
	ErrWaitTimeout = errors.New("timed out waiting for the next WMI object")

	errClosed = errors.New("class object already released")
)

// ConversionError reports a native VARIANT that cannot be represented as a Variant
type ConversionError struct {
	VT     uint16
	Reason string
}

func (e *ConversionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot convert VARIANT type tag 0x%04X: %s", e.VT, e.Reason)
	}
	return fmt.Sprintf("conversion not implemented for VARIANT type tag 0x%04X", e.VT)
}

// CIMConversionError reports a Variant that cannot be widened or narrowed to a CIM type
type CIMConversionError struct {
	Value   Variant
	CIMType CIMType
	Err     error
}

func (e *CIMConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("value %v cannot be turned into CIM type %v: %v", e.Value, e.CIMType, e.Err)
	}
	return fmt.Sprintf("value %v cannot be turned into CIM type %v", e.Value, e.CIMType)
}

func (e *CIMConversionError) Unwrap() error { return e.Err }

// InvalidIdentifierError reports a class or property name that is not a WMI identifier
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("%q is not a valid WMI identifier", e.Name)
}

// DecodeError wraps a failure decoding one property of a class object
type DecodeError struct {
	Class string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s.%s: %v", e.Class, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MissingPropertyError reports a declared field with no matching property on the class object
type MissingPropertyError struct {
	Property string
	Err      error
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("property %q not found: %v", e.Property, e.Err)
}

func (e *MissingPropertyError) Unwrap() error { return e.Err }

// TypeMismatchError reports a Variant whose kind cannot fill the requested Go type
type TypeMismatchError struct {
	Kind VariantKind
	Type string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("invalid type: cannot decode %v variant into %s", e.Kind, e.Type)
}

// UnknownVariantError reports a runtime class name that matches no member of a class union
type UnknownVariantError struct {
	Class    string
	Expected []string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown variant `%s`, expected one of %v", e.Class, e.Expected)
}

// UnsupportedShapeError reports a class union member that is not a pointer to a struct
type UnsupportedShapeError struct {
	Union  string
	Member string
	Shape  string
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("unsupported shape for %s.%s: %s (only pointers to structs are supported)", e.Union, e.Member, e.Shape)
}

// UnsupportedTypeError reports a method parameter type outside the supported primitive set
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("type `%s` cannot be serialized to a Variant", e.Type)
}

// HRESULT values
const (
	S_OK                     = 0
	S_FALSE                  = 1
	WBEM_S_NO_ERROR          = 0
	WBEM_S_FALSE             = 1
	WBEM_S_TIMEDOUT          = 0x40004
	WBEM_E_FAILED            = 0x80041001
	WBEM_E_NOT_FOUND         = 0x80041002
	WBEM_E_ACCESS_DENIED     = 0x80041003
	WBEM_E_INVALID_PARAMETER = 0x80041008
	WBEM_E_CRITICAL_ERROR    = 0x8004100A
	WBEM_E_NOT_SUPPORTED     = 0x8004100C
	WBEM_E_INVALID_NAMESPACE = 0x8004100E
	WBEM_E_INVALID_CLASS     = 0x80041010
	WBEM_E_INVALID_QUERY     = 0x80041017
	WBEM_E_INVALID_METHOD    = 0x8004102E
	WBEM_E_TIMED_OUT         = 0x80043001
)

var hresultText = map[uint32]string{
	WBEM_E_FAILED:            "call failed",
	WBEM_E_NOT_FOUND:         "object not found",
	WBEM_E_ACCESS_DENIED:     "access denied",
	WBEM_E_INVALID_PARAMETER: "invalid parameter",
	WBEM_E_CRITICAL_ERROR:    "critical error",
	WBEM_E_NOT_SUPPORTED:     "feature or operation not supported",
	WBEM_E_INVALID_NAMESPACE: "invalid namespace",
	WBEM_E_INVALID_CLASS:     "invalid class",
	WBEM_E_INVALID_QUERY:     "invalid query",
	WBEM_E_INVALID_METHOD:    "invalid method",
	WBEM_E_TIMED_OUT:         "timed out",
}

// NativeCallError carries the HRESULT of a failed WMI call
type NativeCallError struct {
	Op      string
	HResult uint32
}

func (e *NativeCallError) Error() string {
	return fmt.Sprintf("%s failed, hres=%08Xh (%s)", e.Op, e.HResult, e.Description())
}

// Description returns a short text for well known WBEM codes
func (e *NativeCallError) Description() string {
	if text, ok := hresultText[e.HResult]; ok {
		return text
	}
	return "unknown error"
}

// SUCCEEDED function returns true if HRESULT succeeds, else false
func SUCCEEDED(hresult uintptr) bool {
	return int32(hresult) >= 0
}

// FAILED function returns true if HRESULT fails, else false
func FAILED(hresult uintptr) bool {
	return int32(hresult) < 0
}

// IsNotFound returns true if err carries WBEM_E_NOT_FOUND (property, object or class missing)
func IsNotFound(err error) bool {
	return hasHResult(err, WBEM_E_NOT_FOUND)
}

// IsNotSupported returns true if the class or namespace queried does not exist on this host
func IsNotSupported(err error) bool {
	return hasHResult(err, WBEM_E_NOT_SUPPORTED) ||
		hasHResult(err, WBEM_E_INVALID_CLASS) ||
		hasHResult(err, WBEM_E_INVALID_NAMESPACE)
}

func hasHResult(err error, hres uint32) bool {
	var nce *NativeCallError
	return errors.As(err, &nce) && nce.HResult == hres
}
