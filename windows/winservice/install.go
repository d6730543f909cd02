// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

//go:build windows
// +build windows

package winservice

import (
	"fmt"
	"os"
	"time"

	log "github.com/hpe-storage/wmiclient/logger"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"
)

// defaultRecovery restarts the service after a crash, backing off on repeated failures
var defaultRecovery = []mgr.RecoveryAction{
	{Type: mgr.ServiceRestart, Delay: 5 * time.Second},
	{Type: mgr.ServiceRestart, Delay: 30 * time.Second},
	{Type: mgr.NoAction},
}

// recoveryResetPeriod is the failure count reset period, in seconds
const recoveryResetPeriod = 24 * 60 * 60

// InstallService registers the running executable as an automatically started service, passing
// args to it on each start
func (winService *WinService) InstallService(args ...string) error {
	log.Tracef(">>>>> InstallService, name=%v, args=%v", winService.Name, log.Scrubber(args))
	defer log.Trace("<<<<< InstallService")

	exepath, err := os.Executable()
	if err != nil {
		return err
	}
	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := m.OpenService(winService.Name)
	if err == nil {
		s.Close()
		return fmt.Errorf("service %s already exists", winService.Name)
	}
	config := mgr.Config{
		DisplayName: winService.DisplayName,
		Description: winService.Description,
		StartType:   mgr.StartAutomatic,
	}
	s, err = m.CreateService(winService.Name, exepath, config, args...)
	if err != nil {
		return err
	}
	defer s.Close()

	if winService.UseEventLog {
		err = eventlog.InstallAsEventCreate(winService.Name, eventlog.Error|eventlog.Warning|eventlog.Info)
		if err != nil {
			s.Delete()
			return fmt.Errorf("SetupEventLogSource() failed: %s", err)
		}
	}

	if err = s.SetRecoveryActions(defaultRecovery, recoveryResetPeriod); err != nil {
		log.Warnf("Unable to set service recovery actions, name=%v, err=%v", winService.Name, err)
	}
	log.Infof("Service installed, name=%v, path=%v", winService.Name, exepath)
	return nil
}

// RemoveService uninstalls the service
func (winService *WinService) RemoveService() error {
	log.Tracef(">>>>> RemoveService, name=%v", winService.Name)
	defer log.Trace("<<<<< RemoveService")

	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()
	s, err := m.OpenService(winService.Name)
	if err != nil {
		return fmt.Errorf("service %s is not installed", winService.Name)
	}
	defer s.Close()
	if err = s.Delete(); err != nil {
		return err
	}

	if winService.UseEventLog {
		if err = eventlog.Remove(winService.Name); err != nil {
			return fmt.Errorf("RemoveEventLogSource() failed: %s", err)
		}
	}
	log.Infof("Service removed, name=%v", winService.Name)
	return nil
}
