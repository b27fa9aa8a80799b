package trap

import (
	"github.com/Phantato/ruscv/kernel/addr"
	"github.com/Phantato/ruscv/kernel/kconf"
)

// trampolineOffsets returns the link-time addresses of the trapAllTraps and
// trapRestore labels in trampoline_riscv64.s. Neither is meaningful on its
// own outside the kernel's own address space; only their difference is
// used, to locate __restore once the page holding this code has been
// mapped at kconf.Trampoline in some other address space.
func trampolineOffsets() (allTraps, restore uintptr)

// TrapEntry is the virtual address hardware jumps to on a trap from
// U-mode. stvec is pointed here at boot (see InitStvec) and again before
// every return to U-mode (see SetUserTrapEntry): every address space maps
// the trampoline page's first instruction, trapAllTraps, at this same
// address.
func TrapEntry() addr.VirtAddr {
	return addr.VirtAddr(kconf.Trampoline)
}

// restoreEntry is the virtual address ReturnToUser jumps to once it has
// loaded the target process's page table and programmed sscratch. It lies
// somewhere inside the trampoline page too, so it stays valid across the
// satp switch that immediately precedes the jump.
func restoreEntry() addr.VirtAddr {
	allTraps, restore := trampolineOffsets()
	return addr.VirtAddr(uint64(kconf.Trampoline) + uint64(restore-allTraps))
}

// jumpToRestore loads trapCxVA and userSatp into a0/a1 - exactly the
// registers trapRestore expects them in - and jumps to target without ever
// returning.
func jumpToRestore(trapCxVA, userSatp, target uintptr)

// HandlerEntry is the address the trampoline jumps to, via Context.TrapHandler,
// once it has switched onto the trapping process's kernel stack and page
// table. kernel/task stores it in every Context it builds.
func HandlerEntry() uintptr

// ReturnToUserEntry is the code address of ReturnToUser. kernel/task uses
// it as the initial return address of a freshly created process's switch
// context, so that the first time the scheduler ever switches into that
// process, control lands directly in ReturnToUser instead of anywhere
// specific to whoever created it.
func ReturnToUserEntry() uintptr
