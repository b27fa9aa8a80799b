package mm

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
)

func TestClearBSSZeroesRange(t *testing.T) {
	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = 0xff
	}
	start := uintptr(unsafe.Pointer(&buf[0]))
	end := start + uintptr(len(buf))

	old := readKernelImageFn
	readKernelImageFn = func() kernelImage { return kernelImage{sbss: start, ebss: end} }
	defer func() { readKernelImageFn = old }()

	ClearBSS()

	for _, b := range buf {
		assert.Zero(t, b)
	}
}

func TestFrameAllocRange(t *testing.T) {
	old := readKernelImageFn
	readKernelImageFn = func() kernelImage { return kernelImage{ekernel: 0x80201000} }
	defer func() { readKernelImageFn = old }()

	begin, end := FrameAllocRange()
	assert.Equal(t, addr.PhysAddr(0x80201000).Ceil(), begin)
	assert.Equal(t, addr.PhysAddr(kconf.MemoryEnd).Floor(), end)
}
