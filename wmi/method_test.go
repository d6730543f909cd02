// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hpe-storage/wmiclient/wmi"
	"github.com/hpe-storage/wmiclient/wmi/wmitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Create struct {
	CommandLine      string
	CurrentDirectory string
}

type CreateResult struct {
	ReturnValue uint32
	ProcessId   uint32
}

type Terminate struct {
	Reason uint32
}

type TerminateResult struct {
	ReturnValue uint32
}

type GetOwner struct{}

type Unknown struct{}

type noResult struct{}

// invocation records one ExecMethod call
type invocation struct {
	path   string
	method string
	params map[string]wmi.Variant
}

func processClass() *wmitest.Object {
	return wmitest.NewObject("Win32_Process").
		WithMethod("Create",
			wmitest.NewObject("__PARAMETERS").
				With("CommandLine", wmi.NullVariant(), wmi.CIM_STRING).
				With("CurrentDirectory", wmi.NullVariant(), wmi.CIM_STRING),
			wmitest.NewObject("__PARAMETERS")).
		WithMethod("Terminate",
			wmitest.NewObject("__PARAMETERS").With("Reason", wmi.NullVariant(), wmi.CIM_UINT32),
			wmitest.NewObject("__PARAMETERS")).
		WithMethod("GetOwner", nil, wmitest.NewObject("__PARAMETERS"))
}

func methodServices(calls *[]invocation, out func(method string) *wmitest.Object) *wmitest.Services {
	services := wmitest.NewServices().AddObject("Win32_Process", processClass())
	services.MethodFunc = func(path, method string, in *wmitest.Object) (*wmitest.Object, error) {
		call := invocation{path: path, method: method, params: map[string]wmi.Variant{}}
		if in != nil {
			names, _ := in.GetNames()
			for _, name := range names {
				v, _ := in.Value(name)
				call.params[name] = v
			}
		}
		*calls = append(*calls, call)
		return out(method), nil
	}
	return services
}

func TestExecClassMethod(t *testing.T) {
	var calls []invocation
	conn := wmitest.Connect(methodServices(&calls, func(string) *wmitest.Object {
		return wmitest.NewObject("__PARAMETERS").
			With("ReturnValue", wmi.I4Variant(0), wmi.CIM_UINT32).
			With("ProcessId", wmi.I4Variant(4242), wmi.CIM_UINT32)
	}))

	result, err := wmi.ExecClassMethod[CreateResult](context.Background(), conn, "Win32_Process", Create{
		CommandLine:      "notepad.exe",
		CurrentDirectory: `C:\Windows`,
	})
	require.NoError(t, err)
	assert.Equal(t, CreateResult{ReturnValue: 0, ProcessId: 4242}, result)

	require.Len(t, calls, 1)
	assert.Equal(t, "Win32_Process", calls[0].path)
	assert.Equal(t, "Create", calls[0].method)
	assert.True(t, wmi.StringVariant("notepad.exe").Equal(calls[0].params["CommandLine"]))
	assert.True(t, wmi.StringVariant(`C:\Windows`).Equal(calls[0].params["CurrentDirectory"]))
}

func TestExecInstanceMethod(t *testing.T) {
	var calls []invocation
	conn := wmitest.Connect(methodServices(&calls, func(string) *wmitest.Object {
		return wmitest.NewObject("__PARAMETERS").With("ReturnValue", wmi.I4Variant(2), wmi.CIM_UINT32)
	}))

	path := `\\HOST\ROOT\CIMV2:Win32_Process.Handle="4242"`
	result, err := wmi.ExecInstanceMethod[TerminateResult](context.Background(), conn, path, &Terminate{Reason: 1})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), result.ReturnValue)

	require.Len(t, calls, 1)
	assert.Equal(t, path, calls[0].path)
	assert.Equal(t, "Terminate", calls[0].method)
	assert.True(t, wmi.UI4Variant(1).Equal(calls[0].params["Reason"]))
}

func TestExecMethodWithoutInput(t *testing.T) {
	var calls []invocation
	conn := wmitest.Connect(methodServices(&calls, func(string) *wmitest.Object { return nil }))

	_, err := wmi.ExecClassMethod[noResult](context.Background(), conn, "Win32_Process", GetOwner{})
	require.NoError(t, err, "no output is fine when nothing is expected")
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].params)

	_, err = wmi.ExecClassMethod[TerminateResult](context.Background(), conn, "Win32_Process", GetOwner{})
	assert.ErrorIs(t, err, wmi.ErrResultEmpty)
}

func TestExecMethodErrors(t *testing.T) {
	var calls []invocation
	conn := wmitest.Connect(methodServices(&calls, func(string) *wmitest.Object { return nil }))
	ctx := context.Background()

	_, err := wmi.ExecClassMethod[CreateResult](ctx, conn, "Win32_Process", nil)
	assert.Equal(t, wmi.ErrExpectedStruct, err)

	_, err = wmi.ExecClassMethod[CreateResult](ctx, conn, "Win32_Process", map[string]interface{}{})
	assert.Equal(t, wmi.ErrExpectedNamedStruct, err)

	_, err = wmi.ExecClassMethod[CreateResult](ctx, conn, "Win32_Process", Unknown{})
	assert.True(t, wmi.IsNotFound(err), "unknown method")

	_, err = wmi.ExecClassMethod[CreateResult](ctx, conn, "Win32_Thread", Create{})
	assert.True(t, wmi.IsNotFound(err), "unknown class")

	_, err = wmi.ExecClassMethod[CreateResult](ctx, conn, "Win32 Process", Create{})
	var invalid *wmi.InvalidIdentifierError
	assert.True(t, errors.As(err, &invalid))

	assert.Empty(t, calls)
}

func TestClassOf(t *testing.T) {
	services := wmitest.NewServices().AddObject("Win32_Process", processClass())
	conn := wmitest.Connect(services)

	class, err := wmi.ClassOf[Win32_Process](context.Background(), conn)
	require.NoError(t, err)
	defer class.Release()
	name, err := class.Class()
	require.NoError(t, err)
	assert.Equal(t, "Win32_Process", name)
}
