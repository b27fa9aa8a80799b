package mm

import (
	"debug/elf"
	"unsafe"

	"github.com/Phantato/ruscv/kernel"
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
	"github.com/Phantato/ruscv/kernel/vmm"
)

var (
	errNoLoadSegments = &kernel.Error{Module: "mm", Message: "elf has no PT_LOAD segments"}
	errBadELF         = &kernel.Error{Module: "mm", Message: "malformed elf program"}
	errOutOfFrames    = &kernel.Error{Module: "mm", Message: "out of physical frames"}
)

// MemorySet owns a page table and the ordered list of segments mapped
// through it. It is the kernel's unit of address space: one MemorySet
// describes the kernel's own space, and one describes each user process.
type MemorySet struct {
	PageTable *vmm.PageTable
	segments  []*Segment
	alloc     vmm.FrameAllocator
}

// Token returns the satp value that activates this address space.
func (ms *MemorySet) Token() uint64 {
	return ms.PageTable.Token()
}

// InsertFramed creates, maps and records a new Framed segment spanning
// [startVA, endVA).
func (ms *MemorySet) InsertFramed(startVA, endVA addr.VirtAddr, perm Permission) bool {
	seg := NewFramedSegment(startVA, endVA, perm)
	return ms.push(seg, nil)
}

// push maps seg into the page table, optionally copying data into it
// afterwards, and appends it to the segment list.
func (ms *MemorySet) push(seg *Segment, data []byte) bool {
	if !seg.MapTo(ms.PageTable, ms.alloc) {
		return false
	}
	if data != nil {
		seg.CopyDataTo(data, 0)
	}
	ms.segments = append(ms.segments, seg)
	return true
}

// mapTrampoline maps the trampoline page identically into every address
// space, at the fixed virtual address kconf.Trampoline. It is never
// recorded as a Segment since it is never unmapped or iterated alongside
// user segments.
func (ms *MemorySet) mapTrampoline(img kernelImage) {
	vpn := addr.VirtAddr(kconf.Trampoline).Floor()
	ppn := addr.PhysAddr(img.strampoline).Floor()
	ms.PageTable.Map(vpn, ppn, vmm.FlagRead|vmm.FlagExec)
}

// NewKernel builds the kernel's own address space: the running kernel image
// mapped as Framed segments copying the live .text/.rodata/.data/.bss and
// boot stack, the remaining physical memory mapped Linear with a zero
// offset (so any physical frame is directly addressable by the kernel
// without a separate translation step), and the trampoline.
func NewKernel(alloc vmm.FrameAllocator) (*MemorySet, bool) {
	pt, ok := vmm.New(alloc)
	if !ok {
		return nil, false
	}
	ms := &MemorySet{PageTable: pt, alloc: alloc}

	img := readKernelImageFn()

	sections := []struct {
		start, end uintptr
		perm       Permission
	}{
		{img.stext, img.etext, vmm.FlagRead | vmm.FlagExec},
		{img.srodata, img.erodata, vmm.FlagRead},
		{img.sdata, img.edata, vmm.FlagRead | vmm.FlagWrite},
		{img.sbss, img.ebss, vmm.FlagRead | vmm.FlagWrite},
	}
	for _, s := range sections {
		if s.end <= s.start {
			continue
		}
		// Each section's Framed segment gets its own freshly allocated
		// frames, which start out zeroed; copy the live image into them so
		// .text/.rodata/.data keep their actual contents once this page
		// table is activated, rather than running off zero-filled memory.
		data := unsafe.Slice((*byte)(unsafe.Pointer(s.start)), s.end-s.start)
		if !ms.push(NewFramedSegment(addr.VirtAddr(s.start), addr.VirtAddr(s.end), s.perm), data) {
			return nil, false
		}
	}

	linear := NewLinearSegment(addr.VirtAddr(img.ekernel), addr.VirtAddr(kconf.MemoryEnd), 0, vmm.FlagRead|vmm.FlagWrite)
	if !ms.push(linear, nil) {
		return nil, false
	}

	ms.mapTrampoline(img)
	return ms, true
}

// FromELF builds a user process's address space from the contents of an ELF
// executable: one Framed segment per PT_LOAD program header (always
// including FlagUser), a guard-page-separated user stack immediately above
// the highest loaded address, the TRAP_CONTEXT page, and the trampoline. It
// returns the new address space, the top of the user stack, and the ELF
// entry point.
func FromELF(data []byte, alloc vmm.FrameAllocator) (ms *MemorySet, userStackTop addr.VirtAddr, entry addr.VirtAddr, err *kernel.Error) {
	pt, ok := vmm.New(alloc)
	if !ok {
		return nil, 0, 0, errOutOfFrames
	}
	ms = &MemorySet{PageTable: pt, alloc: alloc}

	f, parseErr := elf.NewFile(byteReaderAt(data))
	if parseErr != nil {
		return nil, 0, 0, errBadELF
	}

	var maxEndVA addr.VirtAddr
	loaded := false
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		loaded = true

		perm := Permission(vmm.FlagUser)
		if prog.Flags&elf.PF_R != 0 {
			perm |= vmm.FlagRead
		}
		if prog.Flags&elf.PF_W != 0 {
			perm |= vmm.FlagWrite
		}
		if prog.Flags&elf.PF_X != 0 {
			perm |= vmm.FlagExec
		}

		startVA := addr.VirtAddr(prog.Vaddr)
		endVA := addr.VirtAddr(prog.Vaddr + prog.Memsz)
		if endVA > maxEndVA {
			maxEndVA = endVA
		}

		seg := NewFramedSegment(startVA, endVA, perm)
		content := make([]byte, prog.Filesz)
		if _, readErr := prog.ReadAt(content, 0); readErr != nil {
			return nil, 0, 0, errBadELF
		}
		if !ms.push(seg, content) {
			return nil, 0, 0, errBadELF
		}
	}
	if !loaded {
		return nil, 0, 0, errNoLoadSegments
	}

	// One guard page, then the user stack.
	userStackBottom := maxEndVA.Ceil().Addr() + addr.VirtAddr(kconf.PageSize)
	userStackTop = userStackBottom + addr.VirtAddr(kconf.UserStackSize)
	if !ms.push(NewFramedSegment(userStackBottom, userStackTop, vmm.FlagRead|vmm.FlagWrite|vmm.FlagUser), nil) {
		return nil, 0, 0, errBadELF
	}

	// TRAP_CONTEXT: readable/writable by the kernel only.
	trapCtxSeg := NewFramedSegment(addr.VirtAddr(kconf.TrapContext), addr.VirtAddr(kconf.Trampoline), vmm.FlagRead|vmm.FlagWrite)
	if !ms.push(trapCtxSeg, nil) {
		return nil, 0, 0, errBadELF
	}

	ms.mapTrampoline(readKernelImageFn())

	return ms, userStackTop, addr.VirtAddr(f.Entry), nil
}

// Recycle unmaps and frees every segment. The page table's own frames (its
// root and intermediate tables) are not freed, here or elsewhere.
func (ms *MemorySet) Recycle() {
	for _, seg := range ms.segments {
		seg.UnmapFrom(ms.PageTable, ms.alloc)
	}
	ms.segments = nil
}

// byteReaderAt adapts a byte slice to io.ReaderAt for debug/elf.NewFile.
type byteReaderAt []byte

func (b byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(b)) {
		return 0, errBadELF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, errBadELF
	}
	return n, nil
}
