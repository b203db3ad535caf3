// Package errs defines the sentinel error values surfaced at the engine's API
// boundary as package-level Err* variables, wrapped with context at each
// call site.
package errs

import "errors"

var (
	// ErrNotInitialized means an operation was invoked before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrAlreadyHooked means install was called twice for the same target.
	ErrAlreadyHooked = errors.New("target already hooked")
	// ErrNotHooked means uninstall was called with no matching record.
	ErrNotHooked = errors.New("no hook installed for target")
	// ErrSymbolNotFound means the resolver exhausted all lookup paths.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrPatchFailed means mprotect, prologue copy, or i-cache flush failed;
	// the installer rolls back before returning this.
	ErrPatchFailed = errors.New("failed to patch target")
	// ErrTrampolineExhausted means the allocator could not obtain an RWX page.
	ErrTrampolineExhausted = errors.New("trampoline allocator exhausted")
	// ErrInvalidAddress means the target address failed the bounds sanity check.
	ErrInvalidAddress = errors.New("invalid target address")
	// ErrParseError means a transaction buffer was too short, or its opcode
	// or flags could not be extracted; the transaction is forwarded without
	// a policy check.
	ErrParseError = errors.New("failed to parse transaction")
	// ErrPolicyMissing means a predicate was registered for a service with
	// no prior allow/block entry; non-fatal, the predicate is still
	// registered and gates admission, and the service's fallback allow bit
	// defaults to true.
	ErrPolicyMissing = errors.New("predicate registered for service with no matching policy entry")
)
