package mm

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
)

// The symbols below mark the boundaries of the running kernel image; they
// are defined by arch/riscv64/kernel.ld (the linker script passed to the Go
// linker via -T) rather than by any Go package. Declaring them here as
// bodyless functions backed by image_riscv64.s, each just a MOV of the
// symbol's link-time address, mirrors the split the teacher uses for every
// other asm-backed primitive (kernel/cpu's EnableInterrupts, Halt, ...).
func stext() uintptr
func etext() uintptr
func srodata() uintptr
func erodata() uintptr
func sdata() uintptr
func edata() uintptr
func sbss() uintptr
func ebss() uintptr
func ekernel() uintptr
func strampoline() uintptr

// kernelImage captures the boundaries above as a struct so the rest of mm
// can be unit tested against a fake image instead of the real one.
type kernelImage struct {
	stext, etext     uintptr
	srodata, erodata uintptr
	sdata, edata     uintptr
	sbss, ebss       uintptr
	ekernel          uintptr
	strampoline      uintptr
}

// readKernelImageFn is mocked by tests and is automatically inlined by the
// compiler.
var readKernelImageFn = func() kernelImage {
	return kernelImage{
		stext: stext(), etext: etext(),
		srodata: srodata(), erodata: erodata(),
		sdata: sdata(), edata: edata(),
		sbss: sbss(), ebss: ebss(),
		ekernel:     ekernel(),
		strampoline: strampoline(),
	}
}

// ClearBSS zeroes the kernel's own .bss section. kmain calls this first
// thing, before any package-level variable living there can be trusted to
// read back as zero.
func ClearBSS() {
	img := readKernelImageFn()
	for p := img.sbss; p < img.ebss; p++ {
		*(*byte)(unsafe.Pointer(p)) = 0
	}
}

// FrameAllocRange returns the physical page range the frame allocator
// manages: everything from the end of the kernel image to kconf.MemoryEnd.
func FrameAllocRange() (begin, end addr.PhysPageNum) {
	img := readKernelImageFn()
	return addr.PhysAddr(img.ekernel).Ceil(), addr.PhysAddr(kconf.MemoryEnd).Floor()
}
