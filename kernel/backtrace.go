package kernel

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel/kfmt/early"
)

// currentFP returns the caller's frame pointer (the riscv64 s0/x8 register
// as saved by the Go compiler's frame-pointer-enabled prologue). Declared in
// Go, implemented in backtrace_riscv64.s, the same split the teacher uses
// for every asm-backed primitive (see kernel/cpu).
//
//go:noescape
func currentFP() uintptr

// maxBacktraceDepth bounds the frame-pointer walk so a corrupted or cyclic
// chain cannot loop the panic handler forever.
const maxBacktraceDepth = 32

// printBacktrace walks the frame-pointer chain starting at the caller of
// Panic and prints one return address per line. On riscv64, with frame
// pointers enabled, each frame stores the saved return address at fp-8 and
// the caller's frame pointer at fp-16.
func printBacktrace() {
	fp := currentFP()

	early.Printf("stack trace:\n")
	for depth := 0; depth < maxBacktraceDepth && fp != 0; depth++ {
		ra := *(*uintptr)(unsafe.Pointer(fp - 8))
		prevFP := *(*uintptr)(unsafe.Pointer(fp - 16))

		if ra == 0 {
			break
		}
		early.Printf("  #%d 0x%16x\n", depth, ra)

		if prevFP <= fp {
			// Frame pointers must strictly increase as we unwind
			// towards main; anything else means the chain is
			// broken and we stop rather than risk a fault while
			// already panicking.
			break
		}
		fp = prevFP
	}
}
