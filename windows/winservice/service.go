// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

//go:build windows
// +build windows

package winservice

import (
	"context"
	"fmt"
	"time"

	log "github.com/hpe-storage/wmiclient/logger"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/debug"
	"golang.org/x/sys/windows/svc/eventlog"
)

// Execute runs the service body and answers control requests until it stops
func (winService *WinService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- winService.Run(ctx)
	}()
	changes <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}

	for {
		select {
		case err := <-done:
			// the body stopped on its own
			changes <- svc.Status{State: svc.StopPending}
			if err != nil {
				winService.errorf("%s service failed: %v", winService.Name, err)
				return true, 1
			}
			return false, 0
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				log.Infof("Stop/shutdown signal received, name=%v, cmd=%v", winService.Name, c.Cmd)
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				select {
				case err := <-done:
					if err != nil {
						winService.errorf("%s service stopped with error: %v", winService.Name, err)
					}
				case <-time.After(winService.stopTimeout()):
					winService.errorf("%s service did not stop within %v", winService.Name, winService.stopTimeout())
				}
				return false, 0
			default:
				winService.errorf("unexpected control request #%d", c)
			}
		}
	}
}

// RunService runs the service under the service control manager, or on the console when isDebug
// is set.  It returns once the service stops.
func (winService *WinService) RunService(isDebug bool) error {
	if winService.Run == nil {
		return fmt.Errorf("service %s has no body", winService.Name)
	}

	if winService.UseEventLog {
		var err error
		if isDebug {
			winService.elog = debug.New(winService.Name)
		} else if winService.elog, err = eventlog.Open(winService.Name); err != nil {
			return err
		}
		defer winService.elog.Close()
	}

	winService.infof("starting %s service", winService.Name)
	run := svc.Run
	if isDebug {
		run = debug.Run
	}
	if err := run(winService.Name, winService); err != nil {
		winService.errorf("%s service failed: %v", winService.Name, err)
		return err
	}
	winService.infof("%s service stopped", winService.Name)
	return nil
}

func (winService *WinService) infof(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if winService.elog != nil {
		winService.elog.Info(1, msg)
	}
	log.Info(msg)
}

func (winService *WinService) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if winService.elog != nil {
		winService.elog.Error(1, msg)
	}
	log.Error(msg)
}
