//go:build linux && arm

package memory

/*
#include <stdint.h>
void terista_flush_cache(uint32_t addr, size_t len) {
	char *p = (char *)(uintptr_t)addr;
	__builtin___clear_cache(p, p + len);
}
*/
import "C"

// FlushICache ensures any CPU executing after this call observes the bytes
// written into [addr, addr+size), via the compiler's cache-clear builtin.
func FlushICache(addr, size uintptr) {
	C.terista_flush_cache(C.uint32_t(addr), C.size_t(size))
}
