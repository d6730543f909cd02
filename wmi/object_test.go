// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi_test

import (
	"errors"
	"testing"

	"github.com/hpe-storage/wmiclient/wmi"
	"github.com/hpe-storage/wmiclient/wmi/wmitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassObjectOwnership(t *testing.T) {
	native := wmitest.NewObject("Win32_Process")
	o := wmi.AdoptClassObject(native)
	assert.Equal(t, int32(1), native.Refs(), "adopting does not add a reference")

	clone := o.Clone()
	assert.Equal(t, int32(2), native.Refs())

	o.Release()
	o.Release()
	assert.Equal(t, int32(1), native.Refs(), "release is idempotent")

	_, err := o.Class()
	assert.Error(t, err, "a released object cannot be used")

	cls, err := clone.Class()
	require.NoError(t, err)
	assert.Equal(t, "Win32_Process", cls)
	clone.Release()
	assert.Equal(t, int32(0), native.Refs())

	assert.Nil(t, wmi.AdoptClassObject(nil))
	var none *wmi.ClassObject
	assert.Nil(t, none.Clone())
	none.Release()
}

func TestVariantOfObjectReferences(t *testing.T) {
	native := wmitest.NewObject("Win32_Process")
	o := wmi.AdoptClassObject(native)
	v := wmi.ObjectVariant(o)
	assert.Equal(t, int32(1), native.Refs())

	fromVariant, err := wmi.VariantOf(v)
	require.NoError(t, err)
	assert.Equal(t, int32(2), native.Refs(), "a Variant holding an object is cloned")

	fromObject, err := wmi.VariantOf(o)
	require.NoError(t, err)
	assert.Equal(t, int32(3), native.Refs(), "a class object is cloned")

	fromVariant.Release()
	fromObject.Release()
	assert.Equal(t, int32(1), native.Refs())
	v.Release()
	assert.Equal(t, int32(0), native.Refs())
}

func TestClassObjectProperties(t *testing.T) {
	native := wmitest.NewObject("Win32_Service").
		WithPath(`\\HOST\ROOT\CIMV2:Win32_Service.Name="WinRM"`).
		WithString("Name", "WinRM").
		With("ProcessId", wmi.I4Variant(-1), wmi.CIM_UINT32).
		With("Description", wmi.NullVariant(), wmi.CIM_STRING)
	o := wmi.AdoptClassObject(native)
	defer o.Release()

	v, err := o.GetProperty("ProcessId")
	require.NoError(t, err)
	assert.True(t, wmi.UI4Variant(4294967295).Equal(v), "converted to the declared CIM type, got %v", v)

	_, err = o.GetProperty("Missing")
	var missing *wmi.MissingPropertyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Missing", missing.Property)
	assert.True(t, wmi.IsNotFound(err))

	names, err := o.ListProperties()
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "Name", "ProcessId"}, names)

	props, err := o.Properties()
	require.NoError(t, err)
	assert.Len(t, props, 3)
	assert.True(t, props["Description"].IsNull())

	path, err := o.Path()
	require.NoError(t, err)
	assert.Equal(t, `\\HOST\ROOT\CIMV2:Win32_Service.Name="WinRM"`, path)
	relPath, err := o.RelPath()
	require.NoError(t, err)
	assert.Equal(t, `Win32_Service.Name="WinRM"`, relPath)

	require.NoError(t, o.PutProperties(map[string]wmi.Variant{
		"Name":      wmi.StringVariant("Spooler"),
		"StartMode": wmi.StringVariant("Manual"),
	}))
	name, _ := native.Value("Name")
	assert.True(t, wmi.StringVariant("Spooler").Equal(name))

	native.PutErr = errors.New("read only")
	assert.EqualError(t, o.PutProperty("Name", wmi.StringVariant("x")), "read only")
}

func TestClassObjectMethods(t *testing.T) {
	inSig := wmitest.NewObject("__PARAMETERS").With("CommandLine", wmi.NullVariant(), wmi.CIM_STRING)
	class := wmi.AdoptClassObject(wmitest.NewObject("Win32_Process").
		WithMethod("Create", inSig, nil).
		WithMethod("GetOwner", nil, wmitest.NewObject("__PARAMETERS")))
	defer class.Release()

	in, out, err := class.GetMethod("Create")
	require.NoError(t, err)
	assert.NotNil(t, in)
	assert.Nil(t, out)
	assert.Equal(t, int32(2), inSig.Refs())

	inst, err := in.SpawnInstance()
	require.NoError(t, err)
	require.NoError(t, inst.PutProperty("CommandLine", wmi.StringVariant("notepad.exe")))
	v, _ := inSig.Value("CommandLine")
	assert.True(t, v.IsNull(), "the definition is not changed")
	in.Release()
	inst.Release()

	in, out, err = class.GetMethod("GetOwner")
	require.NoError(t, err)
	assert.Nil(t, in)
	assert.NotNil(t, out)
	out.Release()

	_, _, err = class.GetMethod("Missing")
	assert.True(t, wmi.IsNotFound(err))
}

func TestClassObjectEqual(t *testing.T) {
	a := wmi.AdoptClassObject(wmitest.NewObject("Win32_Process").WithString("Name", "a"))
	b := wmi.AdoptClassObject(wmitest.NewObject("Win32_Process").WithString("Name", "a"))
	c := wmi.AdoptClassObject(wmitest.NewObject("Win32_Process").WithString("Name", "c"))

	eq, err := a.Equal(b)
	require.NoError(t, err)
	assert.True(t, eq)
	eq, err = a.Equal(c)
	require.NoError(t, err)
	assert.False(t, eq)

	clone := a.Clone()
	eq, err = a.Equal(clone)
	require.NoError(t, err)
	assert.True(t, eq)
	assert.True(t, wmi.ObjectVariant(a).Equal(wmi.ObjectVariant(clone)))
	assert.False(t, wmi.ObjectVariant(a).Equal(wmi.ObjectVariant(b)), "variants compare by identity")

	c.Release()
	_, err = a.Equal(c)
	assert.Error(t, err)
}

func TestVariantObjectReferences(t *testing.T) {
	native := wmitest.NewObject("Win32_Process")
	o := wmi.AdoptClassObject(native)

	v, err := wmi.VariantOf(o)
	require.NoError(t, err)
	assert.Equal(t, int32(2), native.Refs())

	arr := wmi.ArrayVariant([]wmi.Variant{v, wmi.StringVariant("x")})
	cloned := arr.Clone()
	assert.Equal(t, int32(3), native.Refs())

	cloned.Release()
	v.Release()
	o.Release()
	assert.Equal(t, int32(0), native.Refs())
}
