// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package classes

import (
	"context"

	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/wmi"
)

// Win32_OperatingSystem WMI class
type Win32_OperatingSystem struct {
	Caption                 string
	Version                 string
	BuildNumber             string
	CSName                  string
	OSArchitecture          string
	Debug                   bool
	LastBootUpTime          wmi.DateTime
	NumberOfProcesses       uint32
	FreePhysicalMemory      uint64
	TotalVisibleMemorySize  uint64
	ServicePackMajorVersion uint16 `wmi:",nil=0xFFFF"`
}

// GetOperatingSystem returns this host's Win32_OperatingSystem object
func GetOperatingSystem(ctx context.Context, conn *wmi.Connection) (*Win32_OperatingSystem, error) {
	log.Trace(">>>>> GetOperatingSystem")
	defer log.Trace("<<<<< GetOperatingSystem")

	system, err := wmi.Get[Win32_OperatingSystem](ctx, conn)
	if err != nil {
		return nil, err
	}
	log.Tracef("Operating system, caption=%v, version=%v, lastBootUpTime=%v", system.Caption, system.Version, system.LastBootUpTime)
	return &system, nil
}
