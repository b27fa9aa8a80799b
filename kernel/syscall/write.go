package syscall

import (
	"github.com/Phantato/ruscv/kernel"
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
	"github.com/Phantato/ruscv/kernel/kfmt/early"
	"github.com/Phantato/ruscv/kernel/task"
)

// translator is the part of task.ControlBlock that syscall needs: resolving
// a user virtual address into a physical one. Expressed as an interface so
// tests can stand in a fake process without a real address space.
type translator interface {
	Translate(va addr.VirtAddr) (addr.PhysAddr, *kernel.Error)
}

// currentProcessFn is mocked by tests.
var currentProcessFn = func() translator { return task.CurrentProcess() }

// sysWrite writes the length bytes at buf, in the current process's address
// space, to fd. Only stdout is implemented. A bad fd or an unmapped buf is a
// process-visible error (spec: "Address out of range!"/bad fd terminate the
// PCB, other PCBs unaffected), so both paths kill the current process rather
// than handing a raw -1 back to code that is no longer supposed to be
// running.
func sysWrite(fd uintptr, buf addr.VirtAddr, length uintptr) int64 {
	if fd != fdStdout {
		early.Printf("Unsupported fd in sys_write!\n")
		exitCurrentFn()
		return -1
	}
	data, ok := readUserBytes(buf, length)
	if !ok {
		early.Printf("Address out of range!\n")
		exitCurrentFn()
		return -1
	}
	early.Printf("%s", string(data))
	return int64(length)
}

// readUserBytes copies length bytes starting at buf out of the current
// process's address space. The range need not lie on a single physical
// frame, so it is translated and copied one page at a time; any page not
// mapped fails the whole read.
func readUserBytes(buf addr.VirtAddr, length uintptr) ([]byte, bool) {
	proc := currentProcessFn()
	out := make([]byte, 0, length)

	for length > 0 {
		pa, err := proc.Translate(buf)
		if err != nil {
			return nil, false
		}

		pageEnd := buf.Floor().Addr() + addr.VirtAddr(kconf.PageSize)
		chunk := uintptr(pageEnd) - uintptr(buf)
		if chunk > length {
			chunk = length
		}

		out = append(out, pa.Bytes(int(chunk))...)
		length -= chunk
		buf += addr.VirtAddr(chunk)
	}
	return out, true
}
