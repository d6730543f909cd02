// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

//go:build !windows
// +build !windows

package wmi

import (
	"context"

	ole "github.com/go-ole/go-ole"
)

func safeArrayElements(parray *ole.SafeArray, elemVT ole.VT) ([]Variant, error) {
	return nil, &ConversionError{VT: uint16(ole.VT_ARRAY | elemVT), Reason: ErrNotSupported.Error()}
}

func unknownToClassObject(punk *ole.IUnknown) (*ClassObject, error) {
	return nil, &ConversionError{VT: uint16(ole.VT_UNKNOWN), Reason: ErrNotSupported.Error()}
}

func stringToNative(s string) (ole.VARIANT, error) {
	return ole.VARIANT{}, ErrNotSupported
}

func objectToNative(o *ClassObject) (ole.VARIANT, error) {
	return ole.VARIANT{}, ErrNotSupported
}

func arrayToNative(arr []Variant) (ole.VARIANT, error) {
	return ole.VARIANT{}, ErrNotSupported
}

// Connect opens a WMI session.  Only available on Windows.
func Connect(ctx context.Context, config *Config) (*Connection, error) {
	return nil, ErrNotSupported
}
