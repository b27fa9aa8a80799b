package syscall

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
	"github.com/Phantato/ruscv/kernel/kfmt/early"
	"github.com/Phantato/ruscv/kernel/timer"
)

// timeVal mirrors struct timeval: whole seconds and the microseconds
// remainder since boot.
type timeVal struct {
	Sec  uint64
	Usec uint64
}

// sysGetTime writes the current time into the timeVal at buf, in the
// current process's address space. Each field is translated on its own, so
// the struct may straddle a page boundary between Sec and Usec; each
// 8-byte field must itself lie on one page, which holds for an 8-byte
// aligned buf. An unmapped buf is a process-visible error, so it terminates
// the current process rather than returning -1 to code that is no longer
// supposed to be running.
func sysGetTime(buf addr.VirtAddr) int64 {
	proc := currentProcessFn()
	secPA, err := proc.Translate(buf)
	var usecPA addr.PhysAddr
	if err == nil {
		usecPA, err = proc.Translate(buf + addr.VirtAddr(unsafe.Offsetof(timeVal{}.Usec)))
	}
	if err != nil {
		early.Printf("Address out of range!\n")
		exitCurrentFn()
		return -1
	}

	now := timer.NowMicros()
	*(*uint64)(unsafe.Pointer(&secPA.Bytes(8)[0])) = now / kconf.MicrosPerSec
	*(*uint64)(unsafe.Pointer(&usecPA.Bytes(8)[0])) = now % kconf.MicrosPerSec
	return 0
}
