// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

//go:build windows
// +build windows

// Package winservice runs a long lived command, such as the wmiq query server, under the Windows
// service control manager.  It follows the golang.org/x/sys/windows/svc example service:
//
//	svc := winservice.WinService{
//		Name:        "wmiq",
//		DisplayName: "WMI Query Service",
//		Description: "Answers WQL queries over HTTP",
//		Run:         func(ctx context.Context) error { return serve(ctx) },
//	}
//	svc.RunService(false)
//
// Run is started when the service starts and its context is cancelled when the service control
// manager asks the service to stop or the host shuts down.  Pause and continue are not supported.
package winservice

import (
	"context"
	"time"

	"golang.org/x/sys/windows/svc/debug"
)

// DefaultStopTimeout bounds how long a stop request waits for Run to return
const DefaultStopTimeout = 20 * time.Second

// WinService describes a Windows service
type WinService struct {
	Name        string
	DisplayName string
	Description string
	UseEventLog bool                            // Record start, stop and failures to the application event log
	Run         func(ctx context.Context) error // Service body, returns once ctx is cancelled
	StopTimeout time.Duration                   // Zero means DefaultStopTimeout

	elog debug.Log
}

func (winService *WinService) stopTimeout() time.Duration {
	if winService.StopTimeout <= 0 {
		return DefaultStopTimeout
	}
	return winService.StopTimeout
}
