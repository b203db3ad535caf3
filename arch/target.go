// Package arch encodes the architecture-specific absolute-jump sequences the
// inline hook installer splices into a function prologue, and the fixed
// prologue size each architecture requires. The encode/decode logic here is
// plain byte manipulation with no platform dependency, so it is exercised by
// tests on any host; only Default (the Target the coordinator hands to the
// installer) is selected per build target.
package arch

// Target is a capability set: a fixed prologue size plus the ability to
// synthesize and recognize an absolute jump for one ISA. AArch64 and AArch32
// are the two shipping variants.
type Target interface {
	// PrologueSize is the fixed number of bytes an installed hook overwrites
	// at the target address.
	PrologueSize() int
	// EncodeJump returns PrologueSize() bytes encoding an unconditional
	// absolute jump to target.
	EncodeJump(target uintptr) []byte
	// DecodeJumpTarget recognizes bytes produced by EncodeJump and extracts
	// the jump target. ok is false if code does not match the expected
	// instruction sequence.
	DecodeJumpTarget(code []byte) (target uintptr, ok bool)
}
