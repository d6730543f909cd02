// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package classes

import (
	"context"

	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/wmi"
)

const (
	ISCSI_IP_ADDRESS_TEXT = iota
	ISCSI_IP_ADDRESS_IPV4
	ISCSI_IP_ADDRESS_IPV6
	ISCSI_IP_ADDRESS_EMPTY
)

// ISCSI_IP_Address WMI class
type ISCSI_IP_Address struct {
	Type         uint32
	IpV4Address  uint32
	IpV6Address  [16]uint8
	IpV6FlowInfo uint32
	IpV6ScopeId  uint32
	TextAddress  string
}

// ISCSI_PortalInfo WMI class
type ISCSI_PortalInfo struct {
	Index      uint32
	PortalType uint8
	Protocol   uint8
	IPAddr     *ISCSI_IP_Address
	Port       uint32
	PortalTag  uint16
}

// MSiSCSI_PortalInfoClass WMI class
type MSiSCSI_PortalInfoClass struct {
	InstanceName      string
	Active            bool
	PortalInfoCount   uint32
	PortalInformation []*ISCSI_PortalInfo
}

// MSFC_FibrePortHBAAttributes WMI class
type MSFC_FibrePortHBAAttributes struct {
	InstanceName string
	Active       bool
	UniquePortId uint64
	HBAStatus    uint32
	Attributes   *MSFC_HBAPortAttributesResults
}

// MSFC_HBAPortAttributesResults WMI class
type MSFC_HBAPortAttributesResults struct {
	NodeWWN                 [8]uint8
	PortWWN                 [8]uint8
	PortFcId                uint32
	PortType                uint32
	PortState               uint32
	PortSpeed               uint32
	PortMaxFrameSize        uint32
	FabricName              [8]uint8
	NumberofDiscoveredPorts uint32
}

// GetMSiSCSIPortalInfoClass enumerates this host's MSiSCSI_PortalInfoClass objects
func GetMSiSCSIPortalInfoClass(ctx context.Context, conn *wmi.Connection) ([]MSiSCSI_PortalInfoClass, error) {
	log.Trace(">>>>> GetMSiSCSIPortalInfoClass")
	defer log.Trace("<<<<< GetMSiSCSIPortalInfoClass")

	return wmi.Query[MSiSCSI_PortalInfoClass](ctx, conn)
}

// GetMSFC_FibrePortHBAAttributes enumerates this host's MSFC_FibrePortHBAAttributes objects
func GetMSFC_FibrePortHBAAttributes(ctx context.Context, conn *wmi.Connection) ([]MSFC_FibrePortHBAAttributes, error) {
	log.Trace(">>>>> GetMSFC_FibrePortHBAAttributes")
	defer log.Trace("<<<<< GetMSFC_FibrePortHBAAttributes")

	return wmi.Query[MSFC_FibrePortHBAAttributes](ctx, conn)
}
