// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package classes

import (
	"context"
	"fmt"
	"time"

	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/wmi"
)

// Win32_Process WMI class
type Win32_Process struct {
	Handle          string
	Name            string
	ProcessId       uint32
	ParentProcessId uint32
	ExecutablePath  string
	CommandLine     string
	CreationDate    wmi.DateTime
	ThreadCount     uint32
	WorkingSetSize  uint64
}

// Create holds the input parameters of Win32_Process.Create
type Create struct {
	CommandLine string
}

// CreateResult holds the output parameters of Win32_Process.Create
type CreateResult struct {
	ProcessId   uint32 `wmi:",nil=0"`
	ReturnValue uint32
}

// Terminate holds the input parameters of Win32_Process.Terminate
type Terminate struct {
	Reason uint32
}

// TerminateResult holds the output parameters of Win32_Process.Terminate
type TerminateResult struct {
	ReturnValue uint32
}

// ProcessCreationEvent is an __InstanceCreationEvent for a Win32_Process
type ProcessCreationEvent struct {
	TargetInstance *Win32_Process
}

func (ProcessCreationEvent) WMIClassName() string { return "__InstanceCreationEvent" }

// ProcessDeletionEvent is an __InstanceDeletionEvent for a Win32_Process
type ProcessDeletionEvent struct {
	TargetInstance *Win32_Process
}

func (ProcessDeletionEvent) WMIClassName() string { return "__InstanceDeletionEvent" }

// ProcessModificationEvent is an __InstanceModificationEvent for a Win32_Process
type ProcessModificationEvent struct {
	TargetInstance   *Win32_Process
	PreviousInstance *Win32_Process
}

func (ProcessModificationEvent) WMIClassName() string { return "__InstanceModificationEvent" }

// ProcessEvent is any __InstanceOperationEvent for a Win32_Process; exactly one member is set
type ProcessEvent struct {
	Created  *ProcessCreationEvent
	Deleted  *ProcessDeletionEvent
	Modified *ProcessModificationEvent
}

func (ProcessEvent) WMIClassName() string { return "__InstanceOperationEvent" }
func (ProcessEvent) WMIClassUnion()       {}

// GetProcesses enumerates the processes with the given executable name (all when name is empty)
func GetProcesses(ctx context.Context, conn *wmi.Connection, name string) ([]Win32_Process, error) {
	log.Tracef(">>>>> GetProcesses, name=%v", name)
	defer log.Trace("<<<<< GetProcesses")

	filters := map[string]wmi.FilterValue{}
	if name != "" {
		filters["Name"] = wmi.FilterString(name)
	}
	return wmi.FilteredQuery[Win32_Process](ctx, conn, filters)
}

// GetProcess fetches one process by id
func GetProcess(ctx context.Context, conn *wmi.Connection, pid uint32) (*Win32_Process, error) {
	process, err := wmi.GetByPath[Win32_Process](ctx, conn, processPath(pid))
	if err != nil {
		return nil, err
	}
	return &process, nil
}

// StartProcess runs commandLine through Win32_Process.Create and returns the new process id
func StartProcess(ctx context.Context, conn *wmi.Connection, commandLine string) (uint32, error) {
	log.Tracef(">>>>> StartProcess, commandLine=%v", commandLine)
	defer log.Trace("<<<<< StartProcess")

	result, err := wmi.ExecClassMethod[CreateResult](ctx, conn, "Win32_Process", Create{CommandLine: commandLine})
	if err != nil {
		return 0, err
	}
	if result.ReturnValue != 0 {
		return 0, fmt.Errorf("Win32_Process.Create failed, returnValue=%v", result.ReturnValue)
	}
	return result.ProcessId, nil
}

// StopProcess terminates a process through Win32_Process.Terminate
func StopProcess(ctx context.Context, conn *wmi.Connection, pid uint32, exitCode uint32) error {
	log.Tracef(">>>>> StopProcess, pid=%v", pid)
	defer log.Trace("<<<<< StopProcess")

	result, err := wmi.ExecInstanceMethod[TerminateResult](ctx, conn, processPath(pid), Terminate{Reason: exitCode})
	if err != nil {
		return err
	}
	if result.ReturnValue != 0 {
		return fmt.Errorf("Win32_Process.Terminate failed, pid=%v, returnValue=%v", pid, result.ReturnValue)
	}
	return nil
}

// WatchProcesses delivers process creation, deletion and modification events until ctx is
// cancelled.  within is the WMI polling interval for the event query.
func WatchProcesses(ctx context.Context, conn *wmi.Connection, within time.Duration) (<-chan wmi.Result[ProcessEvent], error) {
	isProcess, err := wmi.IsA[Win32_Process]()
	if err != nil {
		return nil, err
	}
	query, err := wmi.BuildNotificationQuery[ProcessEvent](map[string]wmi.FilterValue{"TargetInstance": isProcess}, within)
	if err != nil {
		return nil, err
	}
	return wmi.Subscribe[ProcessEvent](ctx, conn, query)
}

func processPath(pid uint32) string {
	return fmt.Sprintf(`Win32_Process.Handle="%d"`, pid)
}
