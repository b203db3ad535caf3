//go:build arm64 || arm

package arch

// IsRelocatable is trivially true on the engine's shipping targets: the
// installer never relocates individual instructions in the displaced
// prologue, it copies it verbatim into the trampoline. Callers are
// responsible for choosing hook targets whose first PrologueSize() bytes are
// position-independent (typical function prologues — register saves, stack
// adjustment).
func IsRelocatable(_ []byte) bool {
	return true
}
