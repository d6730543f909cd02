// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package classes

import (
	"context"

	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/wmi"
)

// UpdateHostStorageCache holds the (empty) input parameters of the
// MSFT_StorageSetting.UpdateHostStorageCache method
type UpdateHostStorageCache struct{}

// UpdateHostStorageCacheResult holds the method's output parameters
type UpdateHostStorageCacheResult struct {
	ReturnValue uint32
}

// RescanDisks calls the UpdateHostStorageCache method of the MSFT_StorageSetting WMI class.
// It's equivalent to performing a rescan within diskpart.exe.
func RescanDisks(ctx context.Context, conn *wmi.Connection) (uint32, error) {
	log.Info(">>>>> RescanDisks")
	defer log.Info("<<<<< RescanDisks")

	result, err := wmi.ExecClassMethod[UpdateHostStorageCacheResult](ctx, conn, "MSFT_StorageSetting", UpdateHostStorageCache{})
	if err != nil {
		return 0, err
	}
	log.Infof("RescanDisks status = %v", result.ReturnValue)
	return result.ReturnValue, nil
}
