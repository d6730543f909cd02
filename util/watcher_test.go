// Copyright 2020 Hewlett Packard Enterprise Development LP

package util

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWatchListEmpty(t *testing.T) {
	w, err := InitializeWatcher(func() {})
	require.NoError(t, err)
	defer w.watchList.Close()
	assert.Error(t, w.AddWatchList(nil))
}

func TestAddWatchListMissingDirectory(t *testing.T) {
	w, err := InitializeWatcher(func() {})
	require.NoError(t, err)
	defer w.watchList.Close()
	assert.Error(t, w.AddWatchList([]string{filepath.Join(t.TempDir(), "missing", "wmi.toml")}))
}

func TestStartWatcher(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "wmi.toml")
	other := filepath.Join(dir, "other.toml")
	require.NoError(t, os.WriteFile(watched, []byte("namespace = 'ROOT\\\\CIMV2'\n"), 0o600))

	var runs int32
	w, err := InitializeWatcher(func() { atomic.AddInt32(&runs, 1) })
	require.NoError(t, err)
	w.Settle = 50 * time.Millisecond
	require.NoError(t, w.AddWatchList([]string{watched}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.StartWatcher(ctx)
		close(done)
	}()

	// changes to other files in the directory are ignored
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))

	// a burst of writes runs the job once
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(watched, []byte("namespace = 'ROOT\\\\WMI'\n"), 0o600))
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestStopTimerDrainsFiredTick(t *testing.T) {
	timer := time.NewTimer(time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	stopTimer(timer)
	timer.Reset(time.Hour)
	select {
	case <-timer.C:
		t.Fatal("stale tick delivered after Reset")
	case <-time.After(50 * time.Millisecond):
	}

	// stopping an idle, already drained timer does not block
	stopTimer(timer)
	stopTimer(timer)
}
