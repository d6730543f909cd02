// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

//go:build !windows
// +build !windows

package main

import (
	"context"

	"github.com/hpe-storage/wmiclient/wmi"
)

func service(ctx context.Context, global, args []string, connect connectFunc, load loadFunc, configFile string) error {
	return wmi.ErrNotSupported
}
