// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

/*
Package classes defines the WMI classes used to discover host storage, clustering and process
details, and the helpers that query them.

Each helper takes a connection bound to the namespace the class lives in:

	Win32_OperatingSystem, Win32_Volume, Win32_DiskDrive, Win32_Process  ROOT\CIMV2
	MSFT_StorageSetting                                                  ROOT\Microsoft\Windows\Storage
	MSCluster_Resource                                                   ROOT\MSCluster
	MSiSCSI_PortalInfoClass, MSFC_FibrePortHBAAttributes                 ROOT\WMI
*/
package classes
