package trap

// readSstatus returns the current value of the sstatus CSR.
func readSstatus() uint64

// readSstatusFn is mocked by tests to avoid faulting when run outside
// S-mode.
var readSstatusFn = readSstatus
