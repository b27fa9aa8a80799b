// Package list implements the intrusive singly-linked free list the buddy
// heap allocator uses to track free blocks of a single size class. A free
// block is never touched by anything other than the allocator, so its first
// machine word is reused as the "next" pointer: no separate node allocation
// is needed, and none would be available this early in boot anyway.
package list

import "unsafe"

// List is an intrusive singly-linked list of free memory blocks. The zero
// value is an empty list.
type List struct {
	head uintptr
}

func nextSlot(block uintptr) *uintptr {
	return (*uintptr)(unsafe.Pointer(block))
}

// Empty reports whether the list has no blocks.
func (l *List) Empty() bool {
	return l.head == 0
}

// Push adds block to the front of the list, overwriting its first word with
// the previous head.
func (l *List) Push(block uintptr) {
	*nextSlot(block) = l.head
	l.head = block
}

// Pop removes and returns the block at the front of the list.
func (l *List) Pop() (block uintptr, ok bool) {
	if l.head == 0 {
		return 0, false
	}
	block = l.head
	l.head = *nextSlot(block)
	return block, true
}

// Cursor walks the list while allowing the current block to be unlinked in
// O(1), without re-scanning from the head. The zero value is not usable;
// obtain one via List.Cursor.
type Cursor struct {
	prevSlot *uintptr
	curr     uintptr
}

// Cursor returns a cursor positioned at the first block in the list.
func (l *List) Cursor() *Cursor {
	return &Cursor{prevSlot: &l.head, curr: l.head}
}

// HasNext reports whether the cursor is positioned on a block.
func (c *Cursor) HasNext() bool {
	return c.curr != 0
}

// Value returns the address of the block the cursor currently points at.
func (c *Cursor) Value() uintptr {
	return c.curr
}

// Advance moves the cursor to the next block in the list.
func (c *Cursor) Advance() {
	c.prevSlot = nextSlot(c.curr)
	c.curr = *c.prevSlot
}

// Remove unlinks the block the cursor currently points at and advances the
// cursor to the block that follows it, returning the removed block's
// address.
func (c *Cursor) Remove() uintptr {
	removed := c.curr
	next := *nextSlot(removed)
	*c.prevSlot = next
	c.curr = next
	return removed
}
