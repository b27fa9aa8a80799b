package goruntime

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phantato/ruscv/kernel/heap"
)

func newArena(t *testing.T, words int) (start, end uintptr) {
	t.Helper()
	buf := make([]uint64, words)
	start = uintptr(unsafe.Pointer(&buf[0]))
	end = start + uintptr(words)*uintptr(wordAlign)
	return start, end
}

func TestInitAndSysAlloc(t *testing.T) {
	var h heap.Heap
	start, end := newArena(t, 1024)
	h.Init(start, end)
	Init(&h)

	var stat uint64
	p := sysAlloc(64, &stat)
	require.NotEqual(t, unsafe.Pointer(uintptr(0)), p)
	assert.Equal(t, uint64(64), stat)
}

func TestSysReserveThenMap(t *testing.T) {
	var h heap.Heap
	start, end := newArena(t, 1024)
	h.Init(start, end)
	Init(&h)

	var reserved bool
	p := sysReserve(nil, 32, &reserved)
	require.True(t, reserved)

	var stat uint64
	mapped := sysMap(p, 32, reserved, &stat)
	assert.Equal(t, p, mapped)
}

func TestSysFreeReturnsMemory(t *testing.T) {
	var h heap.Heap
	start, end := newArena(t, 1024)
	h.Init(start, end)
	Init(&h)

	var stat uint64
	p := sysAlloc(64, &stat)
	before := h.Stats().Allocated

	sysFree(p, 64, &stat)
	assert.Less(t, h.Stats().Allocated, before)
}
