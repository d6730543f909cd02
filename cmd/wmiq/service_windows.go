// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package main

import (
	"context"

	"github.com/hpe-storage/wmiclient/windows/winservice"
)

// service installs, removes or runs the query server as a Windows service.  The global flags and
// the serve flags given to install are passed to the service on every start.
func service(ctx context.Context, global, args []string, connect connectFunc, load loadFunc, configFile string) error {
	if len(args) == 0 {
		return errUsage
	}
	serveArgs := args[1:]
	ws := &winservice.WinService{
		Name:        serviceName,
		DisplayName: "WMI Query Service",
		Description: "Answers WQL queries over HTTP",
		UseEventLog: true,
		Run: func(ctx context.Context) error {
			return serve(ctx, serveArgs, connect, load, configFile)
		},
	}

	switch args[0] {
	case "install":
		svcArgs := append(append(append([]string{}, global...), "service", "run"), serveArgs...)
		return ws.InstallService(svcArgs...)
	case "remove":
		if len(serveArgs) != 0 {
			return errUsage
		}
		return ws.RemoveService()
	case "run":
		return ws.RunService(false)
	case "debug":
		return ws.RunService(true)
	}
	return errUsage
}
