// Package kconf holds the compile-time constants that describe the machine
// layout this kernel targets. A freestanding kernel has no configuration
// file to read at CORE scope (no filesystem); these named constants are the
// equivalent of one, the way the teacher kernel keeps PageShift/PageSize in
// kernel/mem instead of a config struct.
package kconf

const (
	// PageShift is log2(PageSize).
	PageShift = 12

	// PageSize is the hardware page size in bytes.
	PageSize = 1 << PageShift

	// PTEPerPage is the number of 8-byte page table entries that fit on
	// one page.
	PTEPerPage = PageSize / 8

	// PAWidth is the width, in bits, of a physical address.
	PAWidth = 56

	// VAWidth is the width, in bits, of a virtual address that Sv48
	// paging can represent. Sv39 addresses use the low 39 bits of this
	// range; the remaining high bits of a VirtPageNum's top index are
	// always zero on an Sv39 system.
	VAWidth = 48

	// PPNWidth is the width, in bits, of a physical page number.
	PPNWidth = PAWidth - PageShift

	// VPNWidth is the width, in bits, of a virtual page number.
	VPNWidth = VAWidth - PageShift

	// MemoryEnd is the exclusive end of physical RAM this kernel manages.
	MemoryEnd = 0x8080_0000

	// KernelHeapSize is the size, in bytes, of the static array backing
	// the kernel's buddy heap.
	KernelHeapSize = 1 << 20 // 1 MiB

	// BuddyOrder is the number of size classes in the kernel buddy heap
	// (2^0 .. 2^(BuddyOrder-1) bytes).
	BuddyOrder = 20

	// UserStackSize is the size, in bytes, of a user program's stack
	// segment.
	UserStackSize = 8 * 1024

	// KernelStackSize is the size, in bytes, of a process's kernel-mode
	// stack, excluding the guard page that follows it.
	KernelStackSize = 4 * 1024

	// TicksPerSec is the rate, in Hz, at which the timer driver
	// reprograms the next SBI timer interrupt.
	TicksPerSec = 100

	// MicrosPerSec is the number of microseconds in one second, used to
	// convert the SBI cycle counter into wall-clock time for
	// sys_get_time.
	MicrosPerSec = 1_000_000
)

// Trampoline is the fixed virtual address of the trap trampoline page. It
// is mapped at the same address in every address space so that satp can be
// reloaded mid-trap without losing the instruction stream.
//
// math.MaxUint64 - PageSize + 1 computed as a uint64 constant so it stays
// exact regardless of the host building this kernel.
const Trampoline = ^uint64(0) - PageSize + 1

// TrapContext is the fixed virtual address of a process's one-page trap
// context, immediately below the trampoline.
const TrapContext = Trampoline - PageSize

// KernelStackPosition returns the [bottom, top) range of the kernel-mode
// stack reserved for the pid-th process, in the kernel address space. Each
// stack is separated from its neighbour by one guard page.
func KernelStackPosition(pid uint64) (bottom, top uint64) {
	top = Trampoline - pid*(KernelStackSize+PageSize)
	bottom = top - KernelStackSize
	return bottom, top
}
