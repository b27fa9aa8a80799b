package kernel

import (
	"strings"
	"testing"

	"github.com/Phantato/ruscv/kernel/kfmt/early"
)

func TestPanic(t *testing.T) {
	origShutdown := shutdownFn
	defer func() { shutdownFn = origShutdown }()

	var shutdownFailure *bool
	shutdownFn = func(failure bool) {
		shutdownFailure = &failure
	}

	t.Run("with error", func(t *testing.T) {
		shutdownFailure = nil
		out := mockConsole(t)
		err := &Error{Module: "test", Message: "panic test"}

		Panic(err)

		got := out()
		if !strings.Contains(got, "[test] unrecoverable error: panic test") {
			t.Fatalf("expected error message in output, got:\n%q", got)
		}
		if !strings.Contains(got, "*** kernel panic: system halted ***") {
			t.Fatalf("expected halt banner in output, got:\n%q", got)
		}
		if !strings.Contains(got, "stack trace:") {
			t.Fatalf("expected a stack trace in output, got:\n%q", got)
		}

		if shutdownFailure == nil || !*shutdownFailure {
			t.Fatal("expected sbi.Shutdown(true) to be called by Panic")
		}
	})

	t.Run("without error", func(t *testing.T) {
		shutdownFailure = nil
		out := mockConsole(t)

		Panic(nil)

		got := out()
		if strings.Contains(got, "unrecoverable error") {
			t.Fatalf("did not expect an error line in output, got:\n%q", got)
		}
		if !strings.Contains(got, "*** kernel panic: system halted ***") {
			t.Fatalf("expected halt banner in output, got:\n%q", got)
		}

		if shutdownFailure == nil || !*shutdownFailure {
			t.Fatal("expected sbi.Shutdown(true) to be called by Panic")
		}
	})
}

// mockConsole replaces early.Printf's output sink for the duration of the
// calling test and returns a function that yields everything written so far.
func mockConsole(t *testing.T) func() string {
	t.Helper()

	var buf []byte
	orig := early.SetConsolePutCharForTesting(func(ch byte) {
		buf = append(buf, ch)
	})
	t.Cleanup(func() {
		early.SetConsolePutCharForTesting(orig)
	})

	return func() string { return string(buf) }
}
