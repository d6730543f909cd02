// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package classes

import (
	"context"

	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/wmi"
)

// MSCluster_Resource_IP_Address is an MSCluster_Resource whose PrivateProperties are those of an
// "IP Address" resource
type MSCluster_Resource_IP_Address struct {
	Name                  string
	Id                    string
	Description           string
	Type                  string
	State                 uint32
	OwnerGroup            string
	OwnerNode             string
	IsClusterSharedVolume bool
	PrivateProperties     *MSCluster_Property_Resource_IP_Address
}

func (MSCluster_Resource_IP_Address) WMIClassName() string { return "MSCluster_Resource" }

// MSCluster_Property_Resource_IP_Address WMI class
type MSCluster_Property_Resource_IP_Address struct {
	Address     string
	DhcpAddress string
	EnableDhcp  uint32
	Network     string
	ProbePort   uint32
	SubnetMask  string
}

// GetClusterIPs enumerates this host's cluster IPs
func GetClusterIPs(ctx context.Context, conn *wmi.Connection) ([]MSCluster_Resource_IP_Address, error) {
	log.Trace(">>>>> GetClusterIPs")
	defer log.Trace("<<<<< GetClusterIPs")

	clusterIPs, err := wmi.FilteredQuery[MSCluster_Resource_IP_Address](ctx, conn, map[string]wmi.FilterValue{
		"Type": wmi.FilterString("IP Address"),
	})
	for _, clusterIP := range clusterIPs {
		if clusterIP.PrivateProperties != nil {
			log.Tracef("Cluster IP address detected, %v", clusterIP.PrivateProperties.Address)
		}
	}
	return clusterIPs, err
}
