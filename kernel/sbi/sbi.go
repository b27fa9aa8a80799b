// Package sbi wraps the handful of Supervisor Binary Interface calls this
// kernel relies on while running in S-mode: console output, shutdown and the
// timer. Each call is an ecall with the extension id in a7, following the
// legacy SBI v0.1 console/timer/shutdown extensions, which take no function
// id; a6 is not set.
// The ecall itself is implemented in sbi_riscv64.s; this file only declares
// the Go-callable shape, the same split the teacher uses for its x86
// asm-backed primitives in kernel/cpu.
package sbi

const (
	extSetTimer      = 0
	extConsolePutChar = 1
	extConsoleGetChar = 2
	extShutdown      = 8
)

// ecall invokes the SBI firmware with the given extension id and up to three
// argument registers (a0-a2), returning the firmware's a0 result.
//
//go:noescape
func ecall(ext uintptr, arg0, arg1, arg2 uintptr) uintptr

// ConsolePutChar writes a single byte to the firmware console.
func ConsolePutChar(ch byte) {
	ecall(extConsolePutChar, uintptr(ch), 0, 0)
}

// ConsoleGetChar reads a single byte from the firmware console, or -1 if
// none is available.
func ConsoleGetChar() int {
	return int(int64(ecall(extConsoleGetChar, 0, 0, 0)))
}

// SetTimer programs the next timer interrupt to fire when the mtime counter
// reaches deadline.
func SetTimer(deadline uint64) {
	ecall(extSetTimer, uintptr(deadline), 0, 0)
}

// Shutdown powers the machine off. failure selects the SBI exit code: false
// requests a clean shutdown, true a failure shutdown. Shutdown never
// returns.
func Shutdown(failure bool) {
	code := uintptr(0)
	if failure {
		code = 1
	}
	ecall(extShutdown, code, 0, 0)
	for {
	}
}
