// Package trap holds the trampoline that switches between user and
// supervisor mode, the per-process TrapContext it saves registers into, and
// the S-mode trap handler that dispatches timer interrupts and syscalls.
package trap

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel/addr"
)

// Context is the fixed-layout register save area the trampoline reads from
// and writes to on every U<->S transition. It always lives at the one page
// of virtual memory kconf.TrapContext, immediately below the trampoline, in
// every process's address space.
type Context struct {
	// GPRs holds x0-x31 as the user program left them (x0/zero is never
	// read back, but keeping it in place keeps the trampoline's indexing
	// arithmetic simple).
	GPRs [32]uint64

	// Sstatus is the supervisor status register value to restore before
	// sret.
	Sstatus uint64

	// Sepc is the user program counter to resume at.
	Sepc uint64

	// KernelSatp is the kernel's page table token, loaded by the
	// trampoline immediately after trapping from user mode so kernel code
	// can run correctly before the handler has had a chance to do
	// anything else.
	KernelSatp uint64

	// KernelSP is the top of this process's kernel-mode stack.
	KernelSP uint64

	// TrapHandler is the address of the Go trap handler entry point,
	// called by the trampoline after the switch to the kernel's address
	// space and stack.
	TrapHandler uint64
}

// NewContext builds the initial Context for a freshly loaded user program:
// every general purpose register zeroed except sp, pc set to entry, and
// sstatus configured for a return to U-mode with interrupts enabled.
func NewContext(entry, userSP addr.VirtAddr, kernelSatp, kernelSP uint64, trapHandler uintptr) Context {
	var ctx Context
	ctx.GPRs[2] = uint64(userSP) // x2 is sp
	ctx.Sepc = uint64(entry)
	ctx.Sstatus = sstatusForUserReturn()
	ctx.KernelSatp = kernelSatp
	ctx.KernelSP = kernelSP
	ctx.TrapHandler = uint64(trapHandler)
	return ctx
}

// sstatusForUserReturn returns an sstatus value with SPP cleared (return to
// U-mode) and SPIE set (interrupts enabled once back in U-mode).
func sstatusForUserReturn() uint64 {
	const (
		sppBit  = uint64(1) << 8
		spieBit = uint64(1) << 5
	)
	current := readSstatusFn()
	return (current &^ sppBit) | spieBit
}

// AtAddr reinterprets the TRAP_CONTEXT page belonging to a user address
// space as a *Context, by way of the kernel's own view of that physical
// frame (kernelVA is the virtual address the frame is mapped to in the
// kernel's linear region).
func AtAddr(kernelVA addr.VirtAddr) *Context {
	return (*Context)(unsafe.Pointer(uintptr(kernelVA)))
}
