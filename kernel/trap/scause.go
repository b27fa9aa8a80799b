package trap

// readScause returns the current value of the scause CSR, identifying what
// kind of trap brought the kernel here.
func readScause() uint64

// readScauseFn is mocked by tests.
var readScauseFn = readScause
