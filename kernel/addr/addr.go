// Package addr defines the four typed integers this kernel uses instead of
// bare uintptr/uint64 for every physical or virtual address and page number:
// PhysAddr, VirtAddr, PhysPageNum and VirtPageNum. Keeping them distinct
// types (rather than type aliases) means the compiler rejects a physical
// address passed where a virtual one is expected, the same guarantee the
// teacher gets from its single-purpose pmm.Frame and vmm.Page types.
package addr

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel/kconf"
)

// PhysAddr is a byte-granular physical address.
type PhysAddr uint64

// VirtAddr is a byte-granular virtual address.
type VirtAddr uint64

// PhysPageNum is a physical address shifted right by PageShift.
type PhysPageNum uint64

// VirtPageNum is a virtual address shifted right by PageShift.
type VirtPageNum uint64

const (
	pageOffsetMask = uint64(1<<kconf.PageShift) - 1
	ppnMask        = uint64(1<<kconf.PPNWidth) - 1
	vpnMask        = uint64(1<<kconf.VPNWidth) - 1
)

// PageOffset returns the low PageShift bits of the address, i.e. the byte
// offset of a into the page that contains it.
func (a PhysAddr) PageOffset() uint64 { return uint64(a) & pageOffsetMask }

// PageOffset returns the low PageShift bits of the address, i.e. the byte
// offset of a into the page that contains it.
func (a VirtAddr) PageOffset() uint64 { return uint64(a) & pageOffsetMask }

// Floor returns the page number of the page containing a.
func (a PhysAddr) Floor() PhysPageNum { return PhysPageNum(uint64(a) >> kconf.PageShift) }

// Ceil returns the page number of the first page at or after a, i.e. it
// rounds up unless a is already page-aligned.
func (a PhysAddr) Ceil() PhysPageNum {
	if a == 0 {
		return 0
	}
	return PhysPageNum((uint64(a) + kconf.PageSize - 1) >> kconf.PageShift)
}

// Floor returns the page number of the page containing a.
func (a VirtAddr) Floor() VirtPageNum { return VirtPageNum(uint64(a) >> kconf.PageShift) }

// Ceil returns the page number of the first page at or after a, i.e. it
// rounds up unless a is already page-aligned.
func (a VirtAddr) Ceil() VirtPageNum {
	if a == 0 {
		return 0
	}
	return VirtPageNum((uint64(a) + kconf.PageSize - 1) >> kconf.PageShift)
}

// Aligned reports whether a falls exactly on a page boundary.
func (a PhysAddr) Aligned() bool { return a.PageOffset() == 0 }

// Aligned reports whether a falls exactly on a page boundary.
func (a VirtAddr) Aligned() bool { return a.PageOffset() == 0 }

// Addr returns the byte address at the start of page ppn.
func (ppn PhysPageNum) Addr() PhysAddr { return PhysAddr(uint64(ppn) << kconf.PageShift) }

// Addr returns the byte address at the start of page vpn.
func (vpn VirtPageNum) Addr() VirtAddr { return VirtAddr(uint64(vpn) << kconf.PageShift) }

// Bytes reinterprets the page pointed to by ppn as a 4096-byte slice. The
// kernel only ever dereferences a PhysPageNum through its linear mapping of
// [ekernel, MemoryEnd), so base is the virtual address that physical address
// zero is mapped to; ppn's own page therefore lives at base plus ppn's byte
// offset, not at base itself.
func (ppn PhysPageNum) Bytes(base VirtAddr) []byte {
	addr := uintptr(base) + uintptr(ppn.Addr())
	p := (*[kconf.PageSize]byte)(unsafe.Pointer(addr))
	return p[:]
}

// Bytes reinterprets length bytes starting at physical address a as a
// slice, through the kernel's own zero-offset linear mapping of physical
// memory - so a kernel virtual address numerically equal to a. Callers are
// responsible for a falling inside that mapped range and for length not
// crossing into an unmapped frame.
func (a PhysAddr) Bytes(length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(a))), length)
}

// indexesMask selects one 9-bit page-table index out of a VPN.
const indexesMask = uint64(kconf.PTEPerPage) - 1

// Indexes decomposes vpn into the four 9-bit page-table indices used to walk
// a multi-level page table, most significant first. Index 0 is the
// top-level index; under Sv39 (three real levels) it is always zero, and
// only indices 1-3 are consulted by the walker.
func (vpn VirtPageNum) Indexes() [4]uint64 {
	v := uint64(vpn)
	var idx [4]uint64
	for i := 3; i >= 0; i-- {
		idx[i] = v & indexesMask
		v >>= 9
	}
	return idx
}

// Compare orders two physical page numbers, returning a negative number,
// zero, or a positive number as ppn is less than, equal to, or greater than
// other.
func (ppn PhysPageNum) Compare(other PhysPageNum) int {
	switch {
	case ppn < other:
		return -1
	case ppn > other:
		return 1
	default:
		return 0
	}
}

// Compare orders two virtual page numbers, returning a negative number,
// zero, or a positive number as vpn is less than, equal to, or greater than
// other.
func (vpn VirtPageNum) Compare(other VirtPageNum) int {
	switch {
	case vpn < other:
		return -1
	case vpn > other:
		return 1
	default:
		return 0
	}
}

// Next returns the page number immediately following ppn, enabling
// [PhysPageNum, PhysPageNum) ranges to be walked like a Step type.
func (ppn PhysPageNum) Next() PhysPageNum { return ppn + 1 }

// Next returns the page number immediately following vpn, enabling
// [VirtPageNum, VirtPageNum) ranges to be walked like a Step type.
func (vpn VirtPageNum) Next() VirtPageNum { return vpn + 1 }

// PhysPageNumRange iterates the half-open range [Start, End) one page
// number at a time.
type PhysPageNumRange struct {
	Start, End PhysPageNum
}

// Len returns the number of pages in the range.
func (r PhysPageNumRange) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return int(r.End - r.Start)
}

// ForEach invokes fn once per page number in the range, in ascending order.
func (r PhysPageNumRange) ForEach(fn func(PhysPageNum)) {
	for ppn := r.Start; ppn < r.End; ppn = ppn.Next() {
		fn(ppn)
	}
}

// VirtPageNumRange iterates the half-open range [Start, End) one page
// number at a time.
type VirtPageNumRange struct {
	Start, End VirtPageNum
}

// Len returns the number of pages in the range.
func (r VirtPageNumRange) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return int(r.End - r.Start)
}

// ForEach invokes fn once per page number in the range, in ascending order.
func (r VirtPageNumRange) ForEach(fn func(VirtPageNum)) {
	for vpn := r.Start; vpn < r.End; vpn = vpn.Next() {
		fn(vpn)
	}
}
