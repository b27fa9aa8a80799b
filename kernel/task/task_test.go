package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T, statuses ...Status) {
	t.Helper()

	procs := make([]*ControlBlock, len(statuses))
	for i, s := range statuses {
		procs[i] = &ControlBlock{PID: uint64(i), Status: s}
	}
	manager.processes = procs
	manager.current = len(procs)

	t.Cleanup(func() {
		manager.processes = nil
		manager.current = 0
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "exited", Exited.String())
}

func TestFindNextReadyWrapsOnce(t *testing.T) {
	resetManager(t, Exited, Running, Ready, Exited)
	manager.current = 1

	idx, ok := findNextReady()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestFindNextReadyNoneReady(t *testing.T) {
	resetManager(t, Exited, Exited, Exited)

	_, ok := findNextReady()
	assert.False(t, ok)
}

func TestFindNextReadySkipsToStartOfCycle(t *testing.T) {
	resetManager(t, Ready, Exited, Exited)
	manager.current = 0

	idx, ok := findNextReady()
	require.True(t, ok)
	assert.Equal(t, 0, idx, "the only Ready process is the current one itself, a full cycle away")
}

func TestRunNextShutsDownWhenNoneReady(t *testing.T) {
	resetManager(t, Exited, Exited)

	var shutdown bool
	var failed bool
	origShutdown := shutdownFn
	shutdownFn = func(failure bool) { shutdown, failed = true, failure }
	defer func() { shutdownFn = origShutdown }()

	origSwitch := switchContextFn
	var switched bool
	switchContextFn = func(current, next *SwitchCtx) { switched = true }
	defer func() { switchContextFn = origSwitch }()

	runNext(&SwitchCtx{})

	assert.True(t, shutdown)
	assert.False(t, failed)
	assert.False(t, switched)
}

func TestRunNextSwitchesToReadyProcess(t *testing.T) {
	resetManager(t, Running, Ready)
	manager.current = 0

	origSwitch := switchContextFn
	var gotCurrent, gotNext *SwitchCtx
	switchContextFn = func(current, next *SwitchCtx) { gotCurrent, gotNext = current, next }
	defer func() { switchContextFn = origSwitch }()

	curCtx := &SwitchCtx{}
	runNext(curCtx)

	assert.Equal(t, Running, manager.processes[1].Status)
	assert.Equal(t, 1, manager.current)
	assert.Same(t, curCtx, gotCurrent)
	assert.Same(t, &manager.processes[1].switchCtx, gotNext)
}

func TestSuspendCurrentMarksReadyAndSwitches(t *testing.T) {
	resetManager(t, Running, Ready)
	manager.current = 0

	origSwitch := switchContextFn
	switchContextFn = func(current, next *SwitchCtx) {}
	defer func() { switchContextFn = origSwitch }()

	running := manager.processes[0]
	SuspendCurrent()

	assert.Equal(t, Ready, running.Status)
	assert.Equal(t, Running, manager.processes[1].Status)
}
