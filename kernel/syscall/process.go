package syscall

import (
	"github.com/Phantato/ruscv/kernel/kfmt/early"
	"github.com/Phantato/ruscv/kernel/task"
)

// exitCurrentFn and suspendCurrentFn are mocked by tests, which cannot
// safely execute a real context switch inside a hosted test binary.
var (
	exitCurrentFn    = task.ExitCurrent
	suspendCurrentFn = task.SuspendCurrent
)

// sysExit reports code and retires the current process. The scheduler
// never runs it again, so control never returns here.
func sysExit(code int32) {
	early.Printf("[kernel] application exited with code %d\n", code)
	exitCurrentFn()
}

// sysYield gives up the rest of the current process's time slice.
func sysYield() int64 {
	suspendCurrentFn()
	return 0
}
