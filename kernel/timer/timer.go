// Package timer is a thin wrapper over kernel/sbi's timer extension: it
// converts the SBI-visible cycle counter into wall-clock time for
// sys_get_time and reprograms the next tick for the scheduler's time
// slicing.
package timer

import (
	"github.com/Phantato/ruscv/kernel/kconf"
	"github.com/Phantato/ruscv/kernel/sbi"
)

// clockFreq is the core clock rate, in Hz, of the QEMU riscv64 virt machine
// this kernel targets. It has no CPUID-equivalent discovery mechanism under
// the legacy SBI this kernel uses, so it is a constant the way kconf's
// other machine-layout values are.
const clockFreq = 12500000

// readTime returns the raw value of the time CSR, a monotonic cycle
// counter running at clockFreq since the machine powered on.
func readTime() uint64

// readTimeFn is mocked by tests.
var readTimeFn = readTime

// setTimerFn is mocked by tests.
var setTimerFn = sbi.SetTimer

// NowMicros returns the number of microseconds elapsed since boot.
func NowMicros() uint64 {
	t := readTimeFn()
	return t/clockFreq*kconf.MicrosPerSec + t%clockFreq*kconf.MicrosPerSec/clockFreq
}

// SetNextTrigger arms the next SBI timer interrupt one scheduling tick
// (1/kconf.TicksPerSec of a second) from now.
func SetNextTrigger() {
	setTimerFn(readTimeFn() + clockFreq/kconf.TicksPerSec)
}
