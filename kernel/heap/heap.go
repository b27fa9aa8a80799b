// Package heap implements the kernel's buddy allocator: a general-purpose
// allocator over a single contiguous byte range, organised as kconf.BuddyOrder
// size classes (2^0 .. 2^(BuddyOrder-1) bytes), each backed by an
// kernel/list.List of free blocks of that size.
package heap

import (
	"unsafe"

	"github.com/Phantato/ruscv/kernel/kconf"
	"github.com/Phantato/ruscv/kernel/list"
)

const wordSize = unsafe.Sizeof(uintptr(0))

// Stats reports the allocator's current usage for diagnostics.
type Stats struct {
	// Total is the total capacity of the heap, in bytes.
	Total uint64
	// Allocated is the number of bytes currently handed out.
	Allocated uint64
	// UserAllocated is Allocated, reported separately in case a future
	// caller wants to distinguish internal bookkeeping blocks from user
	// requests; today the two are equal.
	UserAllocated uint64
}

// Heap is a buddy allocator. The zero value is not usable; call Init (or
// Add) before Alloc/Dealloc.
type Heap struct {
	freeLists [kconf.BuddyOrder]list.List

	total     uint64
	allocated uint64
}

// Init resets h and registers [start, end) as free space.
func (h *Heap) Init(start, end uintptr) {
	*h = Heap{}
	h.Add(start, end)
}

// Add registers the half-open byte range [start, end) as additional free
// space, splitting it into aligned power-of-two blocks and pushing each one
// onto the free list of its size class.
func (h *Heap) Add(start, end uintptr) {
	current := start
	for current < end {
		lowbit := current & (^current + 1)
		size := lowbit
		if lowbit == 0 || lowbit > end-current {
			size = prevPowerOfTwo(end - current)
		}
		if maxBlock := uintptr(1) << (kconf.BuddyOrder - 1); size > maxBlock {
			size = maxBlock
		}

		h.freeLists[order(size)].Push(current)
		h.total += uint64(size)
		current += size
	}
}

// Alloc returns the address of a free block able to hold size bytes aligned
// to align (align must be a power of two), or ok=false if the heap has no
// block large enough.
func (h *Heap) Alloc(size, align uintptr) (addr uintptr, ok bool) {
	size = roundUp(size, align)
	if size < wordSize {
		size = wordSize
	}
	target := order(size)

	classIdx := -1
	for i := int(target); i < kconf.BuddyOrder; i++ {
		if !h.freeLists[i].Empty() {
			classIdx = i
			break
		}
	}
	if classIdx < 0 {
		return 0, false
	}

	block, _ := h.freeLists[classIdx].Pop()

	// Split the block down to the target size, pushing each upper buddy
	// onto the free list one class below the one it came from.
	for i := classIdx; i > int(target); i-- {
		buddy := block + (uintptr(1) << uint(i-1))
		h.freeLists[i-1].Push(buddy)
	}

	h.allocated += uint64(uintptr(1) << target)
	return block, true
}

// Dealloc returns a block of size bytes (as originally passed to Alloc,
// before alignment rounding is re-applied here) back to the heap, coalescing
// it with its buddy whenever the buddy is also free.
func (h *Heap) Dealloc(addr, size, align uintptr) {
	size = roundUp(size, align)
	if size < wordSize {
		size = wordSize
	}
	class := order(size)

	h.freeLists[class].Push(addr)

	block := addr
	for cls := int(class); cls < kconf.BuddyOrder-1; cls++ {
		buddy := block ^ (uintptr(1) << uint(cls))

		found := false
		for cur := h.freeLists[cls].Cursor(); cur.HasNext(); cur.Advance() {
			if cur.Value() == buddy {
				cur.Remove()
				found = true
				break
			}
		}
		if !found {
			break
		}

		// Coalesce: drop the block we just pushed, promote the pair
		// to the next class up as a single block starting at
		// whichever of the two addresses is lower.
		removeBlock(&h.freeLists[cls], block)
		if buddy < block {
			block = buddy
		}
		h.freeLists[cls+1].Push(block)
	}

	h.allocated -= uint64(uintptr(1) << class)
}

// removeBlock unlinks the first occurrence of addr from l, if present.
func removeBlock(l *list.List, addr uintptr) {
	for cur := l.Cursor(); cur.HasNext(); cur.Advance() {
		if cur.Value() == addr {
			cur.Remove()
			return
		}
	}
}

// Stats returns a snapshot of the heap's usage.
func (h *Heap) Stats() Stats {
	return Stats{Total: h.total, Allocated: h.allocated, UserAllocated: h.allocated}
}

// order returns the smallest class index i such that (1<<i) >= size.
func order(size uintptr) uintptr {
	var i uintptr
	for (uintptr(1) << i) < size {
		i++
	}
	return i
}

// prevPowerOfTwo returns the largest power of two that is <= n.
func prevPowerOfTwo(n uintptr) uintptr {
	if n == 0 {
		return 0
	}
	var p uintptr = 1
	for p<<1 <= n {
		p <<= 1
	}
	return p
}

// roundUp rounds size up to the nearest multiple of align.
func roundUp(size, align uintptr) uintptr {
	if align == 0 {
		return size
	}
	return (size + align - 1) &^ (align - 1)
}
