package timer

import "github.com/Phantato/ruscv/kernel/trap"

// writeSie sets the bits in mask within the sie CSR, without clearing any
// already set.
func writeSie(mask uint64)

// writeSstatusSIE sets the bits in mask within the sstatus CSR.
func writeSstatusSIE(mask uint64)

// writeSieFn and writeSstatusSIEFn are mocked by tests.
var (
	writeSieFn        = writeSie
	writeSstatusSIEFn = writeSstatusSIE
)

// setTimerHandlerFn is mocked by tests.
var setTimerHandlerFn = trap.SetTimerHandler

const (
	sieTimerBit   = uint64(1) << 5 // STIE
	sstatusSIEBit = uint64(1) << 1 // global interrupt enable
)

// EnableTimerInterrupt unmasks the supervisor timer interrupt, both at the
// sie level and globally through sstatus. It does not arm a deadline; call
// SetNextTrigger for that. Once the first deadline fires, Register's
// handler arms each following one.
func EnableTimerInterrupt() {
	writeSieFn(sieTimerBit)
	writeSstatusSIEFn(sstatusSIEBit)
}

// Register installs the timer interrupt handler: every tick, it arms the
// next one and calls suspend to let some other Ready process run. kmain
// passes task.SuspendCurrent, kept as a parameter here so this package does
// not need to import kernel/task.
func Register(suspend func()) {
	setTimerHandlerFn(func() {
		SetNextTrigger()
		suspend()
	})
}
