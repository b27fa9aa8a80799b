package vmm

import (
	"testing"

	"github.com/Phantato/ruscv/kernel"
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFrames backs every page table frame with an ordinary Go array instead
// of a real physical page, letting tests exercise the walking logic without
// touching memory. Swap ptesFn to route through it for the duration of a
// test, the same way the teacher mocks activePDTFn/switchPDTFn in vmm/pdt.go.
type fakeFrames struct {
	next  addr.PhysPageNum
	pages map[addr.PhysPageNum]*[512]PTE
}

func newFakeFrames() *fakeFrames {
	return &fakeFrames{next: 1, pages: map[addr.PhysPageNum]*[512]PTE{}}
}

func (f *fakeFrames) Alloc() (addr.PhysPageNum, bool) {
	ppn := f.next
	f.next++
	f.pages[ppn] = &[512]PTE{}
	return ppn, true
}

func (f *fakeFrames) Dealloc(ppn addr.PhysPageNum) { delete(f.pages, ppn) }

func (f *fakeFrames) install(t *testing.T) {
	t.Helper()
	orig := ptesFn
	ptesFn = func(ppn addr.PhysPageNum) *[512]PTE {
		page, ok := f.pages[ppn]
		if !ok {
			page = &[512]PTE{}
			f.pages[ppn] = page
		}
		return page
	}
	t.Cleanup(func() { ptesFn = orig })
}

func TestMapTranslateUnmap(t *testing.T) {
	alloc := newFakeFrames()
	alloc.install(t)

	pt, ok := New(alloc)
	require.True(t, ok)

	vpn := addr.VirtPageNum(0x1234)
	ppn, ok := alloc.Alloc()
	require.True(t, ok)

	ok = pt.Map(vpn, ppn, FlagRead|FlagWrite)
	require.True(t, ok)

	pte, ok := pt.Translate(vpn)
	require.True(t, ok)
	assert.Equal(t, ppn, pte.PPN())
	assert.True(t, pte.IsValid())
	assert.True(t, pte.HasFlags(FlagRead|FlagWrite))

	pt.Unmap(vpn)
	_, ok = pt.Translate(vpn)
	assert.False(t, ok, "expected page to be unmapped")
}

func TestMapRemapPanics(t *testing.T) {
	alloc := newFakeFrames()
	alloc.install(t)

	pt, ok := New(alloc)
	require.True(t, ok)

	vpn := addr.VirtPageNum(7)
	ppn, _ := alloc.Alloc()
	require.True(t, pt.Map(vpn, ppn, FlagRead))

	orig := panicFn
	var captured *kernel.Error
	panicFn = func(e interface{}) {
		if kerr, ok := e.(*kernel.Error); ok {
			captured = kerr
		}
	}
	defer func() { panicFn = orig }()

	pt.Map(vpn, ppn, FlagRead)
	assert.NotNil(t, captured)
}

func TestTranslateAddr(t *testing.T) {
	alloc := newFakeFrames()
	alloc.install(t)

	pt, ok := New(alloc)
	require.True(t, ok)

	vpn := addr.VirtPageNum(3)
	ppn, _ := alloc.Alloc()
	require.True(t, pt.Map(vpn, ppn, FlagRead|FlagWrite))

	va := addr.VirtAddr(uint64(vpn)<<12 | 0x42)
	pa, err := pt.TranslateAddr(va)
	require.Nil(t, err)
	assert.Equal(t, uint64(ppn)<<12|0x42, uint64(pa))
}
