//go:build amd64

package arch

import "golang.org/x/arch/x86/x86asm"

// IsRelocatable decodes prologue as a stream of x86-64 instructions and
// reports whether none of them use RIP-relative addressing. It is compiled
// only on amd64 hosts and is not called by the installer, which copies the
// prologue bytes verbatim on every architecture without checking them.
func IsRelocatable(prologue []byte) bool {
	for len(prologue) > 0 {
		inst, err := x86asm.Decode(prologue, 64)
		if err != nil {
			return false
		}
		for _, a := range inst.Args {
			if a == nil {
				continue
			}
			if mem, ok := a.(x86asm.Mem); ok && mem.Base == x86asm.RIP {
				return false
			}
			if _, ok := a.(x86asm.Rel); ok {
				return false
			}
		}
		prologue = prologue[inst.Len:]
	}
	return true
}
