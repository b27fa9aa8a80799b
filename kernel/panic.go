package kernel

import (
	"github.com/Phantato/ruscv/kernel/kfmt/early"
	"github.com/Phantato/ruscv/kernel/sbi"
)

var (
	// shutdownFn is mocked by tests and is automatically inlined by the
	// compiler.
	shutdownFn = sbi.Shutdown

	errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}
)

// Panic outputs the supplied error (if not nil), a stack trace and shuts the
// machine down with a failure exit code. Calls to Panic never return. Panic
// also works as a redirection target for calls to panic() (resolved via
// runtime.gopanic)
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	early.Printf("\n-----------------------------------\n")
	if err != nil {
		early.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	early.Printf("*** kernel panic: system halted ***\n")
	printBacktrace()
	early.Printf("-----------------------------------\n")

	shutdownFn(true)
}
