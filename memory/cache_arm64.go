//go:build linux && arm64

package memory

/*
// ARM64 doesn't automatically keep the instruction cache coherent with the data
// cache, so writes into executable pages need an explicit flush before the CPU
// can safely fetch from them.
#include <stdint.h>
void terista_flush_cache(uint64_t addr, size_t len) {
	char *p = (char *)addr;
	__builtin___clear_cache(p, p + len);
}
*/
import "C"

// FlushICache ensures any CPU executing after this call observes the bytes
// written into [addr, addr+size) by cleaning the data cache to the point of
// unification and invalidating the instruction cache over that range.
func FlushICache(addr, size uintptr) {
	C.terista_flush_cache(C.uint64_t(addr), C.size_t(size))
}
