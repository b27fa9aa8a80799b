package vmm

import "github.com/Phantato/ruscv/kernel/addr"

// PTEFlag is one of the eight flag bits carried by a page table entry.
type PTEFlag uint8

const (
	// FlagValid marks the entry as present; everything below is ignored
	// by the walker when this bit is clear.
	FlagValid PTEFlag = 1 << 0
	// FlagRead permits loads through this mapping.
	FlagRead PTEFlag = 1 << 1
	// FlagWrite permits stores through this mapping.
	FlagWrite PTEFlag = 1 << 2
	// FlagExec permits instruction fetch through this mapping.
	FlagExec PTEFlag = 1 << 3
	// FlagUser allows U-mode access to this mapping; without it only
	// S-mode can use it.
	FlagUser PTEFlag = 1 << 4
	// FlagGlobal marks the mapping present in every address space. No
	// mapping in this kernel sets it; the trampoline page is mapped with
	// FlagRead|FlagExec only.
	FlagGlobal PTEFlag = 1 << 5
	// FlagAccessed is set by hardware on first access.
	FlagAccessed PTEFlag = 1 << 6
	// FlagDirty is set by hardware on first write.
	FlagDirty PTEFlag = 1 << 7
)

const ptePPNShift = 10

// PTE is a single 64-bit Sv39/Sv48 page table entry: bits [53:10] hold the
// physical page number, bits [7:0] hold the flags above, and the remaining
// bits are reserved.
type PTE uint64

// NewPTE builds a leaf or intermediate entry pointing at ppn with the given
// flags set.
func NewPTE(ppn addr.PhysPageNum, flags PTEFlag) PTE {
	return PTE(uint64(ppn)<<ptePPNShift | uint64(flags))
}

// PPN returns the physical page number this entry points to.
func (p PTE) PPN() addr.PhysPageNum {
	return addr.PhysPageNum(uint64(p) >> ptePPNShift)
}

// Flags returns the entry's low 8 flag bits.
func (p PTE) Flags() PTEFlag {
	return PTEFlag(uint64(p) & 0xff)
}

// HasFlags reports whether every bit in flags is set.
func (p PTE) HasFlags(flags PTEFlag) bool {
	return p.Flags()&flags == flags
}

// IsValid reports whether the entry's valid bit is set.
func (p PTE) IsValid() bool { return p.HasFlags(FlagValid) }

// IsLeaf reports whether the entry maps a page directly, i.e. it grants at
// least one of read/write/exec, as opposed to only pointing at the next
// table level.
func (p PTE) IsLeaf() bool {
	return p.Flags()&(FlagRead|FlagWrite|FlagExec) != 0
}
