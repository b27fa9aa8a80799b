// Package vmm implements the multi-level page table this kernel walks to
// translate virtual addresses, plus the small number of asm-backed
// primitives (satp read/write, sfence.vma) needed to activate one.
package vmm

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel"
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
)

var errInvalidMapping = &kernel.Error{Module: "vmm", Message: "address is not mapped"}

// pageTableLevels is the number of levels an Sv39 walk actually consults.
// PageTable always decomposes a VPN into four indices (see addr.Indexes);
// the top one is unused here and only meaningful under Sv48.
const pageTableLevels = 3

// FrameAllocator is the subset of pmm.Allocator that PageTable needs to
// create intermediate tables on demand.
type FrameAllocator interface {
	Alloc() (addr.PhysPageNum, bool)
	Dealloc(addr.PhysPageNum)
}

// PageTable is a root PPN plus the list of frames it allocated: the root
// and every intermediate table (constructed via New). No method returns
// those frames to the allocator; Unmap clears only the leaf entry. A
// PageTable constructed via FromToken records no frames and has no
// allocator, so it can be walked but not mapped into.
type PageTable struct {
	root   addr.PhysPageNum
	frames []addr.PhysPageNum
	alloc  FrameAllocator
}

// New allocates a root frame and returns an owning PageTable.
func New(alloc FrameAllocator) (*PageTable, bool) {
	root, ok := alloc.Alloc()
	if !ok {
		return nil, false
	}
	return &PageTable{root: root, frames: []addr.PhysPageNum{root}, alloc: alloc}, true
}

// FromToken builds a borrowed PageTable that lets the kernel walk a user
// address space given its satp value, without taking ownership of any
// frame.
func FromToken(satp uint64) *PageTable {
	return &PageTable{root: addr.PhysPageNum(satp & ((1 << kconf.PPNWidth) - 1))}
}

// Token returns the satp register value that activates this page table
// under Sv39 (mode 8).
func (pt *PageTable) Token() uint64 {
	const sv39Mode = uint64(8) << 60
	return sv39Mode | uint64(pt.root)
}

// ptesFn resolves a page table frame's physical page number to the 512 PTE
// slots it holds. The real implementation dereferences the frame through
// the kernel's identity-mapped linear region; tests swap it out so they can
// exercise the walking logic against ordinary Go-heap-backed frames that
// are not page aligned.
var ptesFn = func(ppn addr.PhysPageNum) *[kconf.PTEPerPage]PTE {
	return (*[kconf.PTEPerPage]PTE)(unsafe.Pointer(uintptr(ppn.Addr())))
}

func ptes(ppn addr.PhysPageNum) *[kconf.PTEPerPage]PTE {
	return ptesFn(ppn)
}

// SetPTEAccessorForTesting swaps the function PageTable uses to dereference
// a page table frame, returning the previous one so callers can restore it.
// It lets packages outside vmm (notably kernel/mm) exercise PageTable
// against fake, non-page-aligned frames in tests.
func SetPTEAccessorForTesting(fn func(addr.PhysPageNum) *[kconf.PTEPerPage]PTE) (prev func(addr.PhysPageNum) *[kconf.PTEPerPage]PTE) {
	prev = ptesFn
	ptesFn = fn
	return prev
}

// findPTE walks down to the leaf entry for vpn without creating missing
// intermediate tables, returning ok=false if any level along the way is not
// present.
func (pt *PageTable) findPTE(vpn addr.VirtPageNum) (*PTE, bool) {
	idx := vpn.Indexes()
	ppn := pt.root
	for level := 0; level < pageTableLevels; level++ {
		entry := &ptes(ppn)[idx[level+1]]
		if level == pageTableLevels-1 {
			return entry, true
		}
		if !entry.IsValid() {
			return nil, false
		}
		ppn = entry.PPN()
	}
	panic("unreachable")
}

// findPTECreate behaves like findPTE but allocates and links a fresh,
// zeroed frame for any intermediate table that does not yet exist.
func (pt *PageTable) findPTECreate(vpn addr.VirtPageNum) (*PTE, bool) {
	idx := vpn.Indexes()
	ppn := pt.root
	for level := 0; level < pageTableLevels; level++ {
		entry := &ptes(ppn)[idx[level+1]]
		if level == pageTableLevels-1 {
			return entry, true
		}
		if !entry.IsValid() {
			newFrame, ok := pt.alloc.Alloc()
			if !ok {
				return nil, false
			}
			pt.frames = append(pt.frames, newFrame)
			*entry = NewPTE(newFrame, FlagValid)
		}
		ppn = entry.PPN()
	}
	panic("unreachable")
}

// Map installs a translation from vpn to ppn with the given flags. flags
// must not include FlagValid; Map sets it automatically. It panics if vpn is
// already mapped, mirroring the invariant that every Segment owns disjoint
// virtual pages.
func (pt *PageTable) Map(vpn addr.VirtPageNum, ppn addr.PhysPageNum, flags PTEFlag) bool {
	pte, ok := pt.findPTECreate(vpn)
	if !ok {
		return false
	}
	if pte.IsValid() {
		panicFn(&kernel.Error{Module: "vmm", Message: "remap of already-mapped page"})
		return false
	}
	*pte = NewPTE(ppn, flags|FlagValid)
	return true
}

// Unmap removes the translation for vpn. It panics if vpn was not mapped.
func (pt *PageTable) Unmap(vpn addr.VirtPageNum) {
	pte, ok := pt.findPTE(vpn)
	if !ok || !pte.IsValid() {
		panicFn(&kernel.Error{Module: "vmm", Message: "unmap of unmapped page"})
		return
	}
	*pte = 0
}

// Translate returns the PTE mapping vpn, or ok=false if vpn is unmapped.
func (pt *PageTable) Translate(vpn addr.VirtPageNum) (PTE, bool) {
	pte, ok := pt.findPTE(vpn)
	if !ok || !pte.IsValid() {
		return 0, false
	}
	return *pte, true
}

// TranslateAddr resolves a full virtual address to its physical address,
// preserving the in-page byte offset.
func (pt *PageTable) TranslateAddr(va addr.VirtAddr) (addr.PhysAddr, *kernel.Error) {
	pte, ok := pt.Translate(va.Floor())
	if !ok {
		return 0, errInvalidMapping
	}
	return addr.PhysAddr(uint64(pte.PPN().Addr()) | va.PageOffset()), nil
}

// panicFn is mocked by tests and is automatically inlined by the compiler.
var panicFn = kernel.Panic
