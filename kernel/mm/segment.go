// Package mm assembles page tables into address spaces: Segment describes
// one contiguous region of a process's virtual memory, and MemorySet owns
// the page table plus the segments mapped through it, for both the kernel
// and every user process.
package mm

import (
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/vmm"
)

// SegmentKind selects how a Segment's virtual pages are backed by physical
// frames.
type SegmentKind uint8

const (
	// Framed segments own one allocated frame per virtual page; unmapping
	// the segment frees every frame it holds.
	Framed SegmentKind = iota
	// Linear segments map vpn to vpn-offset directly, without owning any
	// frame; used for the kernel's direct-mapped regions.
	Linear
)

// Permission is the subset of PTE flags a Segment's caller controls
// (PageTable.Map adds FlagValid itself).
type Permission = vmm.PTEFlag

// Segment describes one virtual memory area: a contiguous, page-aligned
// range of virtual pages sharing one backing kind and one set of
// permissions.
type Segment struct {
	startVPN, endVPN addr.VirtPageNum
	kind             SegmentKind
	perm             Permission

	// linearOffset is subtracted from a Linear segment's vpn to obtain its
	// ppn.
	linearOffset int64

	// frames maps vpn to the frame a Framed segment allocated for it, so
	// the segment can free them again when it is unmapped.
	frames map[addr.VirtPageNum]addr.PhysPageNum
}

// NewFramedSegment creates a Framed segment spanning [startVA, endVA),
// rounded out to whole pages.
func NewFramedSegment(startVA, endVA addr.VirtAddr, perm Permission) *Segment {
	return &Segment{
		startVPN: startVA.Floor(),
		endVPN:   endVA.Ceil(),
		kind:     Framed,
		perm:     perm,
		frames:   make(map[addr.VirtPageNum]addr.PhysPageNum),
	}
}

// NewLinearSegment creates a Linear segment spanning [startVA, endVA) that
// maps vpn to vpn-offset.
func NewLinearSegment(startVA, endVA addr.VirtAddr, offset int64, perm Permission) *Segment {
	return &Segment{
		startVPN:     startVA.Floor(),
		endVPN:       endVA.Ceil(),
		kind:         Linear,
		perm:         perm,
		linearOffset: offset,
	}
}

// Range returns the segment's virtual page range.
func (s *Segment) Range() addr.VirtPageNumRange {
	return addr.VirtPageNumRange{Start: s.startVPN, End: s.endVPN}
}

// MapTo installs every page of this segment into pt, allocating a frame per
// page for Framed segments.
func (s *Segment) MapTo(pt *vmm.PageTable, alloc vmm.FrameAllocator) bool {
	ok := true
	s.Range().ForEach(func(vpn addr.VirtPageNum) {
		if !ok {
			return
		}
		var ppn addr.PhysPageNum
		switch s.kind {
		case Framed:
			var allocated bool
			ppn, allocated = alloc.Alloc()
			if !allocated {
				ok = false
				return
			}
			s.frames[vpn] = ppn
		case Linear:
			ppn = addr.PhysPageNum(int64(vpn) - s.linearOffset)
		}
		if !pt.Map(vpn, ppn, s.perm) {
			ok = false
		}
	})
	return ok
}

// UnmapFrom removes every page of this segment from pt, freeing the frames
// a Framed segment owns.
func (s *Segment) UnmapFrom(pt *vmm.PageTable, alloc vmm.FrameAllocator) {
	s.Range().ForEach(func(vpn addr.VirtPageNum) {
		pt.Unmap(vpn)
		if s.kind == Framed {
			if ppn, ok := s.frames[vpn]; ok {
				alloc.Dealloc(ppn)
				delete(s.frames, vpn)
			}
		}
	})
}

// CopyDataTo copies data into the segment's backing frames starting at its
// first page, for use when loading ELF segment contents or zero-filling a
// BSS tail. data must fit within the segment. base is the kernel's
// identity-mapped virtual address for physical page zero (normally
// addr.VirtAddr(0), since the kernel linearly maps all of physical memory).
func (s *Segment) CopyDataTo(data []byte, base addr.VirtAddr) {
	if s.kind != Framed {
		panic("CopyDataTo requires a Framed segment")
	}

	vpn := s.startVPN
	offset := 0
	for offset < len(data) {
		ppn := s.frames[vpn]
		dst := ppn.Bytes(base)
		n := copy(dst, data[offset:])
		offset += n
		vpn = vpn.Next()
	}
}
