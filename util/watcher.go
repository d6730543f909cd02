// Copyright 2020 Hewlett Packard Enterprise Development LP

// Package util holds helpers shared by the wmiclient commands.
package util

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	notify "github.com/fsnotify/fsnotify"
	log "github.com/hpe-storage/wmiclient/logger"
)

// DefaultSettle is how long the watcher waits for further events before running its job
const DefaultSettle = time.Second

// FileWatch runs a job whenever one of the watched files is written, created, renamed or removed.
// Bursts of events are folded into a single run once the files have been quiet for Settle.
type FileWatch struct {
	// Settle is the quiet period before the job runs
	Settle time.Duration

	watchList *notify.Watcher
	watchRun  func()
	files     map[string]bool
	mu        sync.Mutex
}

// InitializeWatcher returns a watcher that calls job after changes to the watched files
func InitializeWatcher(job func()) (*FileWatch, error) {
	log.Trace(">>>>> InitializeWatcher")
	defer log.Trace("<<<<< InitializeWatcher")

	watcher, err := notify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatch{
		Settle:    DefaultSettle,
		watchList: watcher,
		watchRun:  job,
		files:     make(map[string]bool),
	}, nil
}

// AddWatchList adds files to the watch list.  The parent directory of each file is watched so
// that editors replacing the file by rename are noticed.
func (w *FileWatch) AddWatchList(files []string) error {
	log.Trace(">>>>> AddWatchList")
	defer log.Trace("<<<<< AddWatchList")

	if len(files) == 0 {
		return fmt.Errorf("empty watch list is not supported, there should be at least one file to watch")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, fPath := range files {
		abs, err := filepath.Abs(fPath)
		if err != nil {
			return err
		}
		if err := w.watchList.Add(filepath.Dir(abs)); err != nil {
			log.Warnf("Failed to add file to watch list, file=%v, err=%v", fPath, err)
			return err
		}
		w.files[abs] = true
		log.Tracef("Successfully added file to watch list, file=%v", abs)
	}
	return nil
}

func (w *FileWatch) watched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[abs]
}

// StartWatcher runs until ctx is cancelled, then releases the watcher
func (w *FileWatch) StartWatcher(ctx context.Context) {
	log.Trace(">>>>> StartWatcher")
	defer log.Trace("<<<<< StartWatcher")
	defer w.watchList.Close()

	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	timer := time.NewTimer(settle)
	stopTimer(timer)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Trace("Stopping file watcher")
			return
		case event, ok := <-w.watchList.Events:
			if !ok {
				return
			}
			if !w.watched(event.Name) || event.Op == notify.Chmod {
				continue
			}
			log.Tracef("Watcher received notification, file=%v, op=%v", event.Name, event.Op)
			stopTimer(timer)
			timer.Reset(settle)
		case err, ok := <-w.watchList.Errors:
			if !ok {
				return
			}
			log.Warnf("File watcher error, err=%v", err)
		case <-timer.C:
			log.Infof("Watched files changed, running job")
			w.watchRun()
		}
	}
}

// stopTimer stops t and drains a tick that fired but was not received
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
