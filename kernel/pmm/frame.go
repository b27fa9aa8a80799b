// Package pmm manages physical page frame allocation: the kernel's lowest
// level memory primitive, handed out one PhysPageNum at a time to page
// tables and to the Framed segments of the kernel and user address spaces.
// The buddy heap does not draw from it; its arena is a static array.
package pmm

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel"
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
)

var (
	errFrameOutOfRange = &kernel.Error{Module: "pmm", Message: "frame ppn out of allocated range"}
	errFrameDoubleFree = &kernel.Error{Module: "pmm", Message: "frame already freed"}

	// zeroFn is mocked by tests and is automatically inlined by the
	// compiler.
	zeroFn = zero

	// panicFn is mocked by tests and is automatically inlined by the
	// compiler.
	panicFn = kernel.Panic
)

// Allocator is a LIFO stack frame allocator: it hands out never-allocated
// frames from [current, end) in increasing order, and reuses freed frames
// (most-recently-freed first) before advancing current any further.
type Allocator struct {
	begin    addr.PhysPageNum
	current  addr.PhysPageNum
	end      addr.PhysPageNum
	recycled []addr.PhysPageNum
}

// Init resets the allocator to manage [begin, end).
func (a *Allocator) Init(begin, end addr.PhysPageNum) {
	a.begin = begin
	a.current = begin
	a.end = end
	a.recycled = a.recycled[:0]
}

// Alloc reserves and zeroes one physical frame, returning ok=false if the
// allocator's range is exhausted and nothing has been freed back to it.
func (a *Allocator) Alloc() (ppn addr.PhysPageNum, ok bool) {
	if n := len(a.recycled); n > 0 {
		ppn = a.recycled[n-1]
		a.recycled = a.recycled[:n-1]
		zeroFn(ppn)
		return ppn, true
	}

	if a.current >= a.end {
		return 0, false
	}
	ppn = a.current
	a.current++
	zeroFn(ppn)
	return ppn, true
}

// Dealloc returns ppn to the allocator. It panics if ppn was never handed
// out by this allocator (ppn >= current) or if it is already on the
// recycled list, since either case indicates a bug in the caller rather
// than something the kernel can safely continue past.
func (a *Allocator) Dealloc(ppn addr.PhysPageNum) {
	if ppn >= a.current {
		panicFn(errFrameOutOfRange)
		return
	}
	for _, r := range a.recycled {
		if r == ppn {
			panicFn(errFrameDoubleFree)
			return
		}
	}
	a.recycled = append(a.recycled, ppn)
}

// Used returns the number of frames currently handed out (allocated minus
// freed), useful for diagnostics and tests.
func (a *Allocator) Used() int {
	return int(a.current-a.begin) - len(a.recycled)
}

// zero clears a frame's contents. It relies on the frame being reachable at
// its own physical address: the kernel's address space linearly identity
// maps [ekernel, MemoryEnd) for exactly this purpose, so no translation is
// needed here.
func zero(ppn addr.PhysPageNum) {
	p := (*[kconf.PageSize]byte)(unsafe.Pointer(uintptr(ppn.Addr())))
	for i := range p {
		p[i] = 0
	}
}
