package task

import (
	"github.com/Phantato/ruscv/kernel"
	"github.com/Phantato/ruscv/kernel/mm"
	"github.com/Phantato/ruscv/kernel/sbi"
	"github.com/Phantato/ruscv/kernel/trap"
	"github.com/Phantato/ruscv/kernel/vmm"
)

// manager is the kernel's single process table and round-robin scheduler.
// A freestanding kernel has exactly one of these for its whole lifetime, so
// it is kept as package state rather than threaded through every call that
// needs it - the same shape kernel/vmm and kernel/pmm would take if this
// kernel supported more than one CPU.
var manager struct {
	processes []*ControlBlock
	current   int // index of the Running process, or len(processes) before the first switch
}

// shutdownFn is mocked by tests.
var shutdownFn = sbi.Shutdown

// Init loads one process per ELF image, all initially Ready, and wires
// kernel/trap's current-process accessors to this manager. It must run
// after the kernel's own address space and frame allocator are ready, and
// before trap.InitStvec / Start.
func Init(images [][]byte, alloc vmm.FrameAllocator, kernelSpace *mm.MemorySet) *kernel.Error {
	manager.processes = nil
	for i, img := range images {
		pcb, err := NewFromELF(uint64(i), img, alloc, kernelSpace)
		if err != nil {
			return err
		}
		manager.processes = append(manager.processes, pcb)
	}
	manager.current = len(manager.processes)

	trap.SetCurrentContext(func() *trap.Context { return currentProcess().TrapContext() })
	trap.SetCurrentUserToken(func() uint64 { return currentProcess().Satp() })
	trap.SetProcessFaultHandler(ExitCurrent)

	return nil
}

func currentProcess() *ControlBlock {
	if manager.current >= len(manager.processes) {
		return nil
	}
	return manager.processes[manager.current]
}

// CurrentProcess returns the process control block currently running, or
// nil before the first process has been scheduled.
func CurrentProcess() *ControlBlock { return currentProcess() }

// Start begins running the first ready process. It does not return.
func Start() {
	var boot SwitchCtx
	runNext(&boot)
}

// findNextReady scans (current+1) mod N forward, wrapping at most once, and
// returns the index of the first Ready process it finds.
func findNextReady() (int, bool) {
	n := len(manager.processes)
	if n == 0 {
		return 0, false
	}
	start := manager.current
	if start >= n {
		start = n - 1
	}
	for i := 1; i <= n; i++ {
		idx := (start + i) % n
		if manager.processes[idx].Status == Ready {
			return idx, true
		}
	}
	return 0, false
}

// runNext switches from currentCtx into the next Ready process. If none is
// Ready, every process has exited and there is nothing left to run.
func runNext(currentCtx *SwitchCtx) {
	idx, ok := findNextReady()
	if !ok {
		shutdownFn(false)
		return
	}
	manager.processes[idx].Status = Running
	manager.current = idx
	switchContextFn(currentCtx, &manager.processes[idx].switchCtx)
}

// SuspendCurrent marks the running process Ready and switches to the next
// one. It returns once this process is scheduled again.
func SuspendCurrent() {
	cur := currentProcess()
	cur.Status = Ready
	runNext(&cur.switchCtx)
}

// ExitCurrent marks the running process Exited and switches to the next
// one. A process that has exited is never resumed, so this never returns
// to its caller.
func ExitCurrent() {
	cur := currentProcess()
	cur.Status = Exited
	cur.memSet.Recycle()
	runNext(&cur.switchCtx)
}
