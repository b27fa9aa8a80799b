// Package goruntime bootstraps the hosted Go runtime's low-level memory
// hooks (sysReserve/sysMap/sysAlloc) so ordinary Go allocation - make,
// append, new, the stuff every other package in this kernel uses without
// thinking about it - works in a freestanding binary with no OS underneath
// it. Init must run once, right after kernel/heap's buddy allocator is
// ready, and before anything else touches the Go heap.
package goruntime

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel/heap"
)

const wordAlign = unsafe.Sizeof(uintptr(0))

var kernelHeap *heap.Heap

// Init points the runtime hooks below at h. Nothing before this call may
// allocate.
func Init(h *heap.Heap) {
	kernelHeap = h
}

//go:linkname mSysStatInc runtime.mSysStatInc
func mSysStatInc(*uint64, uintptr)

// sysReserve hands the runtime a range of address space for later use by
// sysMap.
//
// This function replaces runtime.sysReserve and is required for initializing
// the Go allocator. The kernel has no demand-paged address space to reserve
// into, so reserving is indistinguishable from allocating: both hand out a
// real range from the buddy heap.
//
//go:redirect-from runtime.sysReserve
//go:nosplit
func sysReserve(_ unsafe.Pointer, size uintptr, reserved *bool) unsafe.Pointer {
	addr, ok := kernelHeap.Alloc(size, wordAlign)
	if !ok {
		return unsafe.Pointer(uintptr(0))
	}

	*reserved = true
	return unsafe.Pointer(addr)
}

// sysMap establishes a mapping for a region previously reserved via
// sysReserve. Reserved regions here are already backed by real buddy-heap
// memory, so there is nothing left to map; this only accounts the region
// against sysStat.
//
// This function replaces runtime.sysMap and is required for initializing the
// Go allocator.
//
//go:redirect-from runtime.sysMap
//go:nosplit
func sysMap(virtAddr unsafe.Pointer, size uintptr, reserved bool, sysStat *uint64) unsafe.Pointer {
	if !reserved {
		panic("sysMap should only be called with reserved=true")
	}

	mSysStatInc(sysStat, uintptr(size))
	return virtAddr
}

// sysAlloc reserves and maps size bytes of fresh heap memory in one step,
// returning the pointer to the region start.
//
// This function replaces runtime.sysAlloc and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysAlloc
//go:nosplit
func sysAlloc(size uintptr, sysStat *uint64) unsafe.Pointer {
	addr, ok := kernelHeap.Alloc(size, wordAlign)
	if !ok {
		return unsafe.Pointer(uintptr(0))
	}

	mSysStatInc(sysStat, uintptr(size))
	return unsafe.Pointer(addr)
}

// sysFree returns a region obtained from sysAlloc/sysMap back to the buddy
// heap.
//
// This function replaces runtime.sysFree and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysFree
//go:nosplit
func sysFree(v unsafe.Pointer, size uintptr, sysStat *uint64) {
	kernelHeap.Dealloc(uintptr(v), size, wordAlign)
	mSysStatInc(sysStat, ^uintptr(size)+1)
}

func init() {
	// Dummy calls so the compiler does not optimize away the functions in
	// this file.
	var (
		reserved bool
		stat     uint64
		zeroPtr  = unsafe.Pointer(uintptr(0))
	)

	sysReserve(zeroPtr, 0, &reserved)
	sysMap(zeroPtr, 0, reserved, &stat)
	sysAlloc(0, &stat)
	sysFree(zeroPtr, 0, &stat)
}
