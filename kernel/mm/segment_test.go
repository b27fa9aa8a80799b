package mm

import (
	"testing"
	"unsafe"

	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
	"github.com/Phantato/ruscv/kernel/vmm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAllocator hands out sequential PPNs without touching memory.
type fakeAllocator struct{ next addr.PhysPageNum }

func (f *fakeAllocator) Alloc() (addr.PhysPageNum, bool) {
	f.next++
	return f.next, true
}
func (f *fakeAllocator) Dealloc(addr.PhysPageNum) {}

func newTestPageTable(t *testing.T) (*vmm.PageTable, *fakeAllocator) {
	t.Helper()

	pages := map[addr.PhysPageNum]*[512]vmm.PTE{}
	orig := vmm.SetPTEAccessorForTesting(func(ppn addr.PhysPageNum) *[512]vmm.PTE {
		page, ok := pages[ppn]
		if !ok {
			page = &[512]vmm.PTE{}
			pages[ppn] = page
		}
		return page
	})
	t.Cleanup(func() { vmm.SetPTEAccessorForTesting(orig) })

	alloc := &fakeAllocator{}
	pt, ok := vmm.New(alloc)
	require.True(t, ok)
	return pt, alloc
}

func TestFramedSegmentMapUnmap(t *testing.T) {
	pt, alloc := newTestPageTable(t)

	seg := NewFramedSegment(0, addr.VirtAddr(3*kconf.PageSize), vmm.FlagRead|vmm.FlagWrite|vmm.FlagUser)
	require.True(t, seg.MapTo(pt, alloc))

	assert.Equal(t, 3, seg.Range().Len())

	seg.Range().ForEach(func(vpn addr.VirtPageNum) {
		_, ok := pt.Translate(vpn)
		assert.True(t, ok)
	})

	seg.UnmapFrom(pt, alloc)
	seg.Range().ForEach(func(vpn addr.VirtPageNum) {
		_, ok := pt.Translate(vpn)
		assert.False(t, ok)
	})
}

// TestCopyDataToWritesEachPageIntoItsOwnFrame pins down the bug where every
// page of a multi-page copy landed on the same fixed address: it backs three
// distinct frames with three distinct regions of a real arena and confirms
// each page of data lands in its own frame, not all on frame 0's.
func TestCopyDataToWritesEachPageIntoItsOwnFrame(t *testing.T) {
	const pages = 3
	arena := make([]byte, pages*kconf.PageSize)
	base := addr.VirtAddr(uintptr(unsafe.Pointer(&arena[0])))

	seg := NewFramedSegment(0, addr.VirtAddr(pages*kconf.PageSize), vmm.FlagRead|vmm.FlagWrite)
	for i := 0; i < pages; i++ {
		seg.frames[addr.VirtPageNum(i)] = addr.PhysPageNum(i)
	}

	data := make([]byte, pages*kconf.PageSize)
	for i := 0; i < pages; i++ {
		data[i*kconf.PageSize] = byte(0x10 + i)
	}

	seg.CopyDataTo(data, base)

	for i := 0; i < pages; i++ {
		assert.Equal(t, byte(0x10+i), arena[i*kconf.PageSize], "page %d landed in the wrong frame", i)
	}
}

func TestLinearSegmentIdentity(t *testing.T) {
	pt, alloc := newTestPageTable(t)

	startVA := addr.VirtAddr(5 * kconf.PageSize)
	endVA := addr.VirtAddr(7 * kconf.PageSize)
	seg := NewLinearSegment(startVA, endVA, 0, vmm.FlagRead|vmm.FlagWrite)
	require.True(t, seg.MapTo(pt, alloc))

	pte, ok := pt.Translate(startVA.Floor())
	require.True(t, ok)
	assert.Equal(t, startVA.Floor(), pte.PPN())
}
