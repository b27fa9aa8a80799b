package vmm

// writeSatp loads the supervisor address translation and protection
// register, switching the active page table, and executes sfence.vma to
// flush any stale TLB entries for the old mapping.
func writeSatp(token uint64)

// readSatp returns the current value of satp.
func readSatp() uint64

var (
	// writeSatpFn is mocked by tests to avoid faulting when run outside
	// S-mode.
	writeSatpFn = writeSatp

	// readSatpFn is mocked by tests to avoid faulting when run outside
	// S-mode.
	readSatpFn = readSatp
)

// Activate installs pt as the active page table.
func (pt *PageTable) Activate() {
	writeSatpFn(pt.Token())
}

// ActiveToken returns the satp value of the currently active page table.
func ActiveToken() uint64 {
	return readSatpFn()
}
