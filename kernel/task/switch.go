// Package task owns the process table: loading ELF programs into their own
// address spaces, the round-robin scheduler that picks which one runs next,
// and the supervisor-to-supervisor context switch between their kernel
// stacks.
package task

// SwitchCtx holds exactly the registers the riscv64 calling convention
// requires a callee to preserve: ra, sp, and the twelve saved registers
// s0-s11. Every other register is caller-saved and belongs to whichever
// code happens to be running; switchContext does not touch them.
type SwitchCtx struct {
	RA uint64
	SP uint64
	S  [12]uint64
}

// switchContext saves the currently running stack's callee-saved registers
// into current, loads next's, and returns - not to its caller, but to
// wherever next.RA points. For a process switched to for the first time
// that is trap.ReturnToUserEntry; for one resumed after having been
// suspended, it is the instruction right after the switchContext call that
// suspended it.
func switchContext(current, next *SwitchCtx)

// switchContextFn is mocked by tests, which cannot safely execute a real
// stack switch inside a hosted test binary.
var switchContextFn = switchContext
