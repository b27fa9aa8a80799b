package task

import (
	"github.com/Phantato/ruscv/kernel"
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
	"github.com/Phantato/ruscv/kernel/mm"
	"github.com/Phantato/ruscv/kernel/trap"
	"github.com/Phantato/ruscv/kernel/vmm"
)

var errTrapContextUnmapped = &kernel.Error{Module: "task", Message: "TRAP_CONTEXT not mapped in new address space"}

// ControlBlock is one process: its address space, where its trap context
// lives (both as the process sees it and as the kernel can reach it
// directly), the saved registers needed to switch its kernel stack in and
// out, and its place in the scheduler's lifecycle.
type ControlBlock struct {
	PID    uint64
	Status Status

	memSet    *mm.MemorySet
	trapCtx   *trap.Context // kernel-side pointer, via the identity map
	switchCtx SwitchCtx
}

// NewFromELF loads elfData into a fresh address space, reserves this pid's
// kernel stack in the kernel's own MemorySet, and builds the initial
// TrapContext and SwitchCtx a never-yet-run process needs.
func NewFromELF(pid uint64, elfData []byte, alloc vmm.FrameAllocator, kernelSpace *mm.MemorySet) (*ControlBlock, *kernel.Error) {
	memSet, userSP, entry, err := mm.FromELF(elfData, alloc)
	if err != nil {
		return nil, err
	}

	trapCtxPTE, ok := memSet.PageTable.Translate(addr.VirtAddr(kconf.TrapContext).Floor())
	if !ok {
		return nil, errTrapContextUnmapped
	}
	// The TRAP_CONTEXT frame is reachable from the kernel's own address
	// space too, because the kernel maps all of physical memory linearly
	// at a zero offset: physical address equals kernel virtual address.
	trapCtxKernelVA := addr.VirtAddr(trapCtxPTE.PPN().Addr())
	trapCtx := trap.AtAddr(trapCtxKernelVA)

	kernelStackBottom, kernelStackTop := kconf.KernelStackPosition(pid)
	if !kernelSpace.InsertFramed(addr.VirtAddr(kernelStackBottom), addr.VirtAddr(kernelStackTop), vmm.FlagRead|vmm.FlagWrite) {
		return nil, &kernel.Error{Module: "task", Message: "failed to reserve kernel stack"}
	}

	*trapCtx = trap.NewContext(entry, userSP, kernelSpace.Token(), kernelStackTop, trap.HandlerEntry())

	return &ControlBlock{
		PID:     pid,
		Status:  Ready,
		memSet:  memSet,
		trapCtx: trapCtx,
		switchCtx: SwitchCtx{
			RA: uint64(trap.ReturnToUserEntry()),
			SP: kernelStackTop,
		},
	}, nil
}

// Satp returns the satp token that activates this process's address space.
func (pcb *ControlBlock) Satp() uint64 { return pcb.memSet.Token() }

// TrapContext returns the kernel-side pointer to this process's trap
// context.
func (pcb *ControlBlock) TrapContext() *trap.Context { return pcb.trapCtx }

// Translate resolves a virtual address in this process's own address space
// to a physical one, for syscalls that are handed a user pointer.
func (pcb *ControlBlock) Translate(va addr.VirtAddr) (addr.PhysAddr, *kernel.Error) {
	return pcb.memSet.PageTable.TranslateAddr(va)
}
