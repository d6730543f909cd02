// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package classes

import (
	"context"

	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/wmi"
)

// Win32_Volume WMI class
type Win32_Volume struct {
	Access                      uint16
	Automount                   bool
	BlockSize                   uint64
	BootVolume                  bool
	Capacity                    uint64
	Caption                     string
	ConfigManagerErrorCode      uint32 `wmi:",nil=0xFFFFFFFF"` // If property is null, use 0xFFFFFFFF
	DeviceID                    string
	DriveLetter                 string
	DriveType                   uint32
	FileSystem                  string
	FreeSpace                   uint64
	Label                       string
	Name                        string
	PowerManagementCapabilities []uint16
	SerialNumber                uint32
	SystemVolume                bool
}

// GetWin32Volume enumerates this host's Win32_Volume objects
func GetWin32Volume(ctx context.Context, conn *wmi.Connection) ([]Win32_Volume, error) {
	log.Trace(">>>>> GetWin32Volume")
	defer log.Trace("<<<<< GetWin32Volume")

	return wmi.Query[Win32_Volume](ctx, conn)
}

// GetWin32VolumeByDriveLetter returns the volume mounted at driveLetter (e.g. "C:")
func GetWin32VolumeByDriveLetter(ctx context.Context, conn *wmi.Connection, driveLetter string) (*Win32_Volume, error) {
	log.Tracef(">>>>> GetWin32VolumeByDriveLetter, driveLetter=%v", driveLetter)
	defer log.Trace("<<<<< GetWin32VolumeByDriveLetter")

	volumes, err := wmi.FilteredQuery[Win32_Volume](ctx, conn, map[string]wmi.FilterValue{
		"DriveLetter": wmi.FilterString(driveLetter),
	})
	if err != nil {
		return nil, err
	}
	if len(volumes) == 0 {
		return nil, wmi.ErrResultEmpty
	}
	return &volumes[0], nil
}
