// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Win32_OperatingSystem struct {
	Caption string
	Debug   bool
}

type renamedClass struct {
	Name string `wmi:"Caption"`
	Skip int    `wmi:"-"`
	Size uint64 `wmi:"Size,nil=0"`
	Ref  *int32 `wmi:",nil=-1"`
	priv string
}

func (renamedClass) WMIClassName() string { return "Win32_LogicalDisk" }

type baseProps struct {
	Name   string
	Status string
}

type embeddedClass struct {
	baseProps
	Size uint64
}

type wrappedClass struct {
	OS Win32_OperatingSystem `wmi:",inline"`
}

type eventUnion struct {
	Created *Win32_OperatingSystem
	Renamed *renamedClass
	Other   *baseProps `wmi:"CIM_Other"`
	Ignored *baseProps `wmi:"-"`
}

func (*eventUnion) WMIClassUnion() {}

type badFieldName struct {
	Value string `wmi:"1Value"`
}

type badTagOption struct {
	Value string `wmi:"Value,omitempty"`
}

type badNilValue struct {
	Value uint8 `wmi:"Value,nil=300"`
}

func TestDescribe(t *testing.T) {
	desc, err := Describe[Win32_OperatingSystem]()
	require.NoError(t, err)
	assert.Equal(t, "Win32_OperatingSystem", desc.Name)
	assert.Equal(t, []string{"Caption", "Debug"}, desc.FieldNames())
	assert.False(t, desc.Union)

	// cached
	again, err := DescribeType(reflect.TypeOf(&Win32_OperatingSystem{}))
	require.NoError(t, err)
	assert.Same(t, desc, again)
}

func TestDescribeTags(t *testing.T) {
	desc, err := Describe[renamedClass]()
	require.NoError(t, err)
	assert.Equal(t, "Win32_LogicalDisk", desc.Name)
	assert.Equal(t, []string{"Caption", "Size", "Ref"}, desc.FieldNames())

	caption, ok := desc.field("Caption")
	require.True(t, ok)
	assert.Equal(t, "Name", caption.GoName)
	assert.False(t, caption.NilValue.IsValid())

	size, _ := desc.field("Size")
	require.True(t, size.NilValue.IsValid())
	assert.Equal(t, uint64(0), size.NilValue.Uint())

	ref, _ := desc.field("Ref")
	require.True(t, ref.NilValue.IsValid())
	assert.Equal(t, int64(-1), ref.NilValue.Int(), "pointer fields keep the pointed to value")
}

func TestDescribeEmbedded(t *testing.T) {
	desc, err := Describe[embeddedClass]()
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Status", "Size"}, desc.FieldNames())
	status, _ := desc.field("Status")
	assert.Equal(t, []int{0, 1}, status.Index)

	wrapped, err := Describe[wrappedClass]()
	require.NoError(t, err)
	assert.True(t, wrapped.Inline)
	assert.Equal(t, "Win32_OperatingSystem", wrapped.Name)
	assert.Equal(t, []string{"Caption", "Debug"}, wrapped.FieldNames())
}

func TestDescribeUnion(t *testing.T) {
	desc, err := Describe[eventUnion]()
	require.NoError(t, err)
	assert.True(t, desc.Union)
	assert.Equal(t, []string{"Win32_OperatingSystem", "Win32_LogicalDisk", "CIM_Other"}, desc.FieldNames())
}

func TestDescribeErrors(t *testing.T) {
	_, err := Describe[map[string]interface{}]()
	assert.Equal(t, ErrExpectedNamedStruct, err)
	_, err = Describe[int]()
	assert.Equal(t, ErrExpectedNamedStruct, err)
	_, err = Describe[struct{ A int }]()
	assert.Equal(t, ErrExpectedNamedStruct, err)

	_, err = Describe[badFieldName]()
	var invalid *InvalidIdentifierError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "1Value", invalid.Name)

	_, err = Describe[badTagOption]()
	assert.ErrorContains(t, err, `invalid WMI tag option "omitempty"`)

	_, err = Describe[badNilValue]()
	assert.ErrorContains(t, err, `invalid nil value "300"`)
}

func TestValidIdentifier(t *testing.T) {
	for _, name := range []string{"Win32_Process", "_x", "__CLASS", "Größe", "a1"} {
		assert.True(t, validIdentifier(name), name)
	}
	for _, name := range []string{"", "1a", "a b", "a-b", "a\"b", "a.b"} {
		assert.False(t, validIdentifier(name), name)
	}
}
