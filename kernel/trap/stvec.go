package trap

// writeStvec points the hardware trap vector at addr.
func writeStvec(addr uint64)

// writeStvecFn is mocked by tests.
var writeStvecFn = writeStvec

// InitStvec programs stvec to the trampoline's trap entry point during
// boot. Every address space maps the trampoline page at the same virtual
// address, so the hardware lands in the right place no matter which process
// trapped. stvec does not stay fixed after this: dispatch points it at the
// kernel trap vector on entry (SetKernelTrapEntry), and ReturnToUser points
// it back here (SetUserTrapEntry).
func InitStvec() {
	writeStvecFn(uint64(TrapEntry()))
}
