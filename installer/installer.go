//go:build linux

// Package installer implements the inline hook installer: it splices an
// architecture-specific absolute jump into a function's prologue and
// synthesizes a trampoline that runs the displaced prologue before jumping
// back into the rest of the original function.
package installer

import (
	"fmt"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/teristalegan6-debug/TeristaSpaceV1/arch"
	"github.com/teristalegan6-debug/TeristaSpaceV1/errs"
	"github.com/teristalegan6-debug/TeristaSpaceV1/memory"
	"github.com/teristalegan6-debug/TeristaSpaceV1/trampoline"
)

// minValidAddress rejects addresses unlikely to be real code. The upper
// bound mirrors a typical AArch64 user-space ceiling but is treated as a
// heuristic sanity check, not a hard platform contract.
const (
	minValidAddress = 0x1000
	maxValidAddress = 0x7fffffff00000000
)

// HookEntry is the record kept for one active or torn-down hook.
type HookEntry struct {
	Target      uintptr
	Replacement uintptr
	Prologue    []byte
	Trampoline  *trampoline.Trampoline
	Active      bool
}

// Installer owns the patching state for every target it has hooked.
type Installer struct {
	logger *zap.Logger
	target arch.Target
	pool   *trampoline.Pool

	mu      sync.Mutex
	entries map[uintptr]*HookEntry
}

// New constructs an Installer for one architecture Target, backed by pool
// for trampoline allocation.
func New(logger *zap.Logger, target arch.Target, pool *trampoline.Pool) *Installer {
	return &Installer{
		logger:  logger,
		target:  target,
		pool:    pool,
		entries: make(map[uintptr]*HookEntry),
	}
}

func isValidAddress(addr uintptr) bool {
	return addr > minValidAddress && addr < maxValidAddress
}

func readMemory(addr uintptr, length int) []byte {
	src := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	out := make([]byte, length)
	copy(out, src)
	return out
}

func writeMemory(addr uintptr, data []byte) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data))
	copy(dst, data)
}

// Install marks the target's page writable, saves its prologue, builds a
// trampoline that replays the saved prologue and jumps back past it, patches
// the target to jump to replacement, flushes both i-cache regions, and
// restores the target's page protection.
func (in *Installer) Install(target, replacement uintptr) (*HookEntry, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !isValidAddress(target) {
		return nil, fmt.Errorf("target 0x%x: %w", target, errs.ErrInvalidAddress)
	}
	if e, ok := in.entries[target]; ok && e.Active {
		return nil, fmt.Errorf("target 0x%x: %w", target, errs.ErrAlreadyHooked)
	}

	prologueSize := in.target.PrologueSize()

	if err := memory.MakeRWX(target, uintptr(prologueSize)); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrPatchFailed, err)
	}

	prologue := readMemory(target, prologueSize)

	tr, err := in.pool.Alloc()
	if err != nil {
		_ = memory.MakeRX(target, uintptr(prologueSize))
		return nil, fmt.Errorf("%w: %v", errs.ErrTrampolineExhausted, err)
	}

	returnAddr := target + uintptr(prologueSize)
	trampolineBuf := append(append([]byte{}, prologue...), in.target.EncodeJump(returnAddr)...)
	if uintptr(len(trampolineBuf)) > tr.Len {
		in.pool.Free(tr)
		_ = memory.MakeRX(target, uintptr(prologueSize))
		return nil, fmt.Errorf("%w: trampoline buffer too large", errs.ErrPatchFailed)
	}
	copy(tr.Bytes(), trampolineBuf)
	memory.FlushICache(tr.Base, uintptr(len(trampolineBuf)))

	writeMemory(target, in.target.EncodeJump(replacement))
	memory.FlushICache(target, uintptr(prologueSize))

	if err := memory.MakeRX(target, uintptr(prologueSize)); err != nil {
		// best-effort rollback: restore the original bytes before reporting failure
		writeMemory(target, prologue)
		memory.FlushICache(target, uintptr(prologueSize))
		in.pool.Free(tr)
		return nil, fmt.Errorf("%w: %v", errs.ErrPatchFailed, err)
	}

	entry := &HookEntry{
		Target:      target,
		Replacement: replacement,
		Prologue:    prologue,
		Trampoline:  tr,
		Active:      true,
	}
	in.entries[target] = entry

	if in.logger != nil {
		in.logger.Debug("hook installed",
			zap.Uintptr("target", target),
			zap.Uintptr("replacement", replacement),
			zap.Uintptr("trampoline", tr.Base),
		)
	}

	return entry, nil
}

// Uninstall restores the saved prologue bytes, flushes the i-cache, and
// restores page protection. The trampoline is returned to the pool but not
// unmapped, since another thread may still be mid-flight inside it.
func (in *Installer) Uninstall(target uintptr) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	entry, ok := in.entries[target]
	if !ok || !entry.Active {
		return fmt.Errorf("target 0x%x: %w", target, errs.ErrNotHooked)
	}

	prologueSize := in.target.PrologueSize()

	if err := memory.MakeRWX(target, uintptr(prologueSize)); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrPatchFailed, err)
	}

	writeMemory(target, entry.Prologue)
	memory.FlushICache(target, uintptr(prologueSize))

	if err := memory.MakeRX(target, uintptr(prologueSize)); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrPatchFailed, err)
	}

	entry.Active = false
	in.pool.Free(entry.Trampoline)
	delete(in.entries, target)

	if in.logger != nil {
		in.logger.Debug("hook uninstalled", zap.Uintptr("target", target))
	}

	return nil
}

// Lookup returns the active entry for target, if any.
func (in *Installer) Lookup(target uintptr) (*HookEntry, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	e, ok := in.entries[target]
	if !ok || !e.Active {
		return nil, false
	}
	return e, true
}
