// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import "fmt"

// CIMType defines values that specify different CIM data types (CIMTYPE_ENUMERATION)
type CIMType uint32

const (
	CIM_ILLEGAL    CIMType = 0xFFF
	CIM_EMPTY      CIMType = 0
	CIM_SINT8      CIMType = 16
	CIM_UINT8      CIMType = 17
	CIM_SINT16     CIMType = 2
	CIM_UINT16     CIMType = 18
	CIM_SINT32     CIMType = 3
	CIM_UINT32     CIMType = 19
	CIM_SINT64     CIMType = 20
	CIM_UINT64     CIMType = 21
	CIM_REAL32     CIMType = 4
	CIM_REAL64     CIMType = 5
	CIM_BOOLEAN    CIMType = 11
	CIM_STRING     CIMType = 8
	CIM_DATETIME   CIMType = 101
	CIM_REFERENCE  CIMType = 102
	CIM_CHAR16     CIMType = 103
	CIM_OBJECT     CIMType = 13
	CIM_FLAG_ARRAY CIMType = 0x2000
)

var cimTypeNames = map[CIMType]string{
	CIM_ILLEGAL:   "illegal",
	CIM_EMPTY:     "empty",
	CIM_SINT8:     "sint8",
	CIM_UINT8:     "uint8",
	CIM_SINT16:    "sint16",
	CIM_UINT16:    "uint16",
	CIM_SINT32:    "sint32",
	CIM_UINT32:    "uint32",
	CIM_SINT64:    "sint64",
	CIM_UINT64:    "uint64",
	CIM_REAL32:    "real32",
	CIM_REAL64:    "real64",
	CIM_BOOLEAN:   "boolean",
	CIM_STRING:    "string",
	CIM_DATETIME:  "datetime",
	CIM_REFERENCE: "reference",
	CIM_CHAR16:    "char16",
	CIM_OBJECT:    "object",
}

// IsArray returns true if the CIM type carries the array flag
func (t CIMType) IsArray() bool {
	return t&CIM_FLAG_ARRAY != 0
}

// Elem returns the CIM type with the array flag removed
func (t CIMType) Elem() CIMType {
	return t &^ CIM_FLAG_ARRAY
}

func (t CIMType) String() string {
	name, ok := cimTypeNames[t.Elem()]
	if !ok {
		name = fmt.Sprintf("0x%X", uint32(t.Elem()))
	}
	if t.IsArray() {
		return name + "[]"
	}
	return name
}

// System properties every WMI class object carries
const (
	classProperty   = "__CLASS"
	pathProperty    = "__PATH"
	relPathProperty = "__RELPATH"
)

// Namespaces commonly queried
const (
	RootCIMV2                   = `ROOT\CIMV2`
	RootMicrosoftWindowsStorage = `ROOT\Microsoft\Windows\Storage`
	RootMSCluster               = `ROOT\MSCluster`
	RootWMI                     = `ROOT\WMI`
)
