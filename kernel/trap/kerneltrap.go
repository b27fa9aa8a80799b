package trap

import "github.com/Phantato/ruscv/kernel"

// SetUserTrapEntry points stvec at the trampoline. It must be in effect any
// time a process is about to run or is running in U-mode, since that is the
// only code capable of getting the kernel safely back onto its own stack
// and page table.
func SetUserTrapEntry() {
	writeStvecFn(uint64(TrapEntry()))
}

// SetKernelTrapEntry points stvec at a handler that treats any trap taken
// while kernel code itself is executing as fatal. The kernel does not
// expect to fault or be interrupted while it holds control; if it is, its
// invariants can no longer be trusted.
func SetKernelTrapEntry() {
	writeStvecFn(kernelTrapVector())
}

// kernelTrapVector returns the address stvec should hold while kernel code
// runs.
func kernelTrapVector() uint64

// kernelTrapPanic is the Go target of trapFromKernel in
// kerneltrap_riscv64.s; it never returns.
func kernelTrapPanic() {
	panicFn(&kernel.Error{Module: "trap", Message: "trap taken while executing kernel code"})
}
