// Package syscall dispatches a trapped ecall from U-mode to the handful of
// system calls this kernel implements, translating every user-supplied
// pointer through the calling process's own page table before touching it.
package syscall

import (
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kfmt/early"
	"github.com/Phantato/ruscv/kernel/trap"
)

// Syscall ids, matching the numbers a user program's libc places in a7.
const (
	Write   = 64
	Exit    = 93
	Yield   = 124
	GetTime = 169
)

const fdStdout = 1

// Register installs Dispatch as kernel/trap's syscall handler. kmain calls
// this once during boot, after kernel/task.Init.
func Register() {
	trap.SetSyscallHandler(Dispatch)
}

// Dispatch services a user ecall trap. By RISC-V's calling convention,
// ctx.GPRs[17] (a7) holds the syscall id and ctx.GPRs[10:13] (a0-a2) its
// arguments; the result is written back into ctx.GPRs[10] (a0), the slot
// the user program will see as this ecall's return value.
func Dispatch(ctx *trap.Context) {
	id := ctx.GPRs[17]
	a0, a1, a2 := ctx.GPRs[10], ctx.GPRs[11], ctx.GPRs[12]

	switch id {
	case Write:
		ctx.GPRs[10] = uint64(sysWrite(uintptr(a0), addr.VirtAddr(a1), uintptr(a2)))
	case Exit:
		sysExit(int32(a0))
	case Yield:
		ctx.GPRs[10] = uint64(sysYield())
	case GetTime:
		ctx.GPRs[10] = uint64(sysGetTime(addr.VirtAddr(a0)))
	default:
		early.Printf("[kernel] unsupported syscall_id: 0x%x\n", id)
		ctx.GPRs[10] = ^uint64(0)
	}
}
