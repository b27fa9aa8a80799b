package trap

import (
	"github.com/Phantato/ruscv/kernel"
	"github.com/Phantato/ruscv/kernel/kconf"
	"github.com/Phantato/ruscv/kernel/kfmt/early"
)

// scause values this kernel knows how to handle. The interrupt bit (63) is
// set for the timer cause; everything else here is an exception.
const (
	causeUserEnvCall    = uint64(8)
	causeInstrFault     = uint64(12)
	causeLoadFault      = uint64(13)
	causeStoreFault     = uint64(15)
	causeIllegalInstr   = uint64(2)
	causeTimerInterrupt = uint64(1)<<63 | 5
)

// SyscallHandler services a user ecall trap. ctx is the trapping process's
// TrapContext, already addressable through the kernel's own identity
// mapping of physical memory; GPRs[17] (a7) is the syscall number and
// GPRs[10:13] (a0-a2) are its arguments, GPRs[10] is where the return value
// belongs.
type SyscallHandler func(ctx *Context)

var syscallHandlerFn SyscallHandler

// SetSyscallHandler installs the function called for a user ecall trap.
// kernel/syscall registers itself here at boot to avoid an import cycle
// (syscall needs trap.Context; trap must not need to know about every
// syscall it dispatches to).
func SetSyscallHandler(fn SyscallHandler) { syscallHandlerFn = fn }

var timerHandlerFn func()

// SetTimerHandler installs the function called for a supervisor timer
// interrupt. dispatch does not arm the next deadline itself; the installed
// handler does (kernel/timer's Register arms it before suspending).
func SetTimerHandler(fn func()) { timerHandlerFn = fn }

// currentContextFn resolves the TrapContext of whichever process the
// scheduler most recently switched to. kernel/task installs this once the
// first process starts running.
var currentContextFn func() *Context

// SetCurrentContext installs the accessor dispatch uses to find the
// current process's TrapContext.
func SetCurrentContext(fn func() *Context) { currentContextFn = fn }

// currentUserTokenFn resolves the satp token of whichever process the
// scheduler most recently switched to.
var currentUserTokenFn func() uint64

// SetCurrentUserToken installs the accessor ReturnToUser uses to find the
// current process's page table token.
func SetCurrentUserToken(fn func() uint64) { currentUserTokenFn = fn }

// doReturnFn is a seam for tests: the real value jumps to user mode and
// never comes back, which a hosted test process can't survive.
var doReturnFn = ReturnToUser

// panicFn is mocked by tests.
var panicFn = kernel.Panic

// processFaultFn retires the current process after a process-visible fault
// (page fault, illegal instruction). kernel/task installs this once during
// boot - trap cannot import kernel/task directly, since kernel/task already
// imports kernel/trap for Context.
var processFaultFn func()

// SetProcessFaultHandler installs the function dispatch calls to terminate
// the current process after a page fault or illegal instruction, instead of
// halting the whole machine.
func SetProcessFaultHandler(fn func()) { processFaultFn = fn }

// dispatch is entered by the trampoline after it has switched onto the
// trapping process's kernel stack and this kernel's own page table. It
// never returns in the ordinary sense - every path ends by handing control
// back to the user program through ReturnToUser.
func dispatch() {
	SetKernelTrapEntry()

	ctx := currentContextFn()
	scause := readScauseFn()

	switch {
	case scause == causeUserEnvCall:
		ctx.Sepc += 4 // resume just past the ecall
		if syscallHandlerFn != nil {
			syscallHandlerFn(ctx)
		}
	case scause == causeTimerInterrupt:
		if timerHandlerFn != nil {
			timerHandlerFn()
		}
	case scause == causeStoreFault, scause == causeLoadFault, scause == causeInstrFault:
		early.Printf("[kernel] PageFault in application, core dumped.\n")
		if processFaultFn != nil {
			processFaultFn()
		}
	case scause == causeIllegalInstr:
		early.Printf("[kernel] IllegalInstruction in application, core dumped.\n")
		if processFaultFn != nil {
			processFaultFn()
		}
	default:
		panicFn(&kernel.Error{Module: "trap", Message: "unsupported trap"})
	}

	doReturnFn()
}

// ReturnToUser points stvec back at the trampoline, loads the current
// process's page table, and jumps into trapRestore, which resumes it in
// U-mode. It does not return.
func ReturnToUser() {
	SetUserTrapEntry()
	jumpToRestore(uintptr(kconf.TrapContext), uintptr(currentUserTokenFn()), uintptr(restoreEntry()))
}
