//go:build linux && amd64

package memory

import "runtime"

// FlushICache is a no-op on amd64: x86 keeps the instruction cache coherent
// with the data cache for self-modifying code, so no explicit flush is needed.
// This variant exists only so the installer's test suite can run on x86_64 CI
// hosts; production targets this engine ships to are arm64/arm.
func FlushICache(_, _ uintptr) {
	runtime.Gosched()
}
