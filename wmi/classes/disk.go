// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package classes

import (
	"context"

	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/wmi"
)

// Win32_DiskDrive WMI class
type Win32_DiskDrive struct {
	DeviceID        string
	Index           uint32
	InterfaceType   string
	Model           string
	SerialNumber    string
	Size            uint64
	Partitions      uint32
	PNPDeviceID     string
	SCSIBus         uint32
	SCSIPort        uint16
	SCSITargetId    uint16
	SCSILogicalUnit uint16
}

// Win32_DiskPartition WMI class
type Win32_DiskPartition struct {
	DeviceID         string
	DiskIndex        uint32
	Index            uint32
	BootPartition    bool
	PrimaryPartition bool
	Size             uint64
	StartingOffset   uint64
	Type             string
}

// Win32_DiskDriveToDiskPartition is the association between a disk and its partitions
type Win32_DiskDriveToDiskPartition struct{}

// GetWin32DiskDrive enumerates this host's Win32_DiskDrive objects
func GetWin32DiskDrive(ctx context.Context, conn *wmi.Connection) ([]Win32_DiskDrive, error) {
	log.Trace(">>>>> GetWin32DiskDrive")
	defer log.Trace("<<<<< GetWin32DiskDrive")

	return wmi.Query[Win32_DiskDrive](ctx, conn)
}

// GetDiskPartitions lists the partitions of the disk with the given DeviceID
// (e.g. \\.\PHYSICALDRIVE0)
func GetDiskPartitions(ctx context.Context, conn *wmi.Connection, deviceID string) ([]Win32_DiskPartition, error) {
	log.Tracef(">>>>> GetDiskPartitions, deviceID=%v", deviceID)
	defer log.Trace("<<<<< GetDiskPartitions")

	path := "Win32_DiskDrive.DeviceID=" + wmi.QuoteAndEscape(deviceID)
	return wmi.Associators[Win32_DiskPartition, Win32_DiskDriveToDiskPartition](ctx, conn, path)
}
