// Package memory provides page-granular protection changes and instruction-cache
// maintenance for the inline hook installer and trampoline allocator.
package memory

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// pageSize is read once at init rather than queried on every call.
var pageSize = uintptr(unix.Getpagesize())

// PageSize returns the runtime page size used to align protection requests.
func PageSize() uintptr {
	return pageSize
}

// pageRange returns the page-aligned start and length covering [addr, addr+size).
func pageRange(addr uintptr, size uintptr) (uintptr, uintptr) {
	start := pageSize * (addr / pageSize)
	end := addr + size
	length := ((end - start) + pageSize - 1) / pageSize * pageSize
	return start, length
}

func slice(addr, length uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(length))
}

func mprotectRange(addr, size uintptr, prot int) error {
	start, length := pageRange(addr, size)
	for off := uintptr(0); off < length; off += pageSize {
		data := slice(start+off, pageSize)
		if err := unix.Mprotect(data, prot); err != nil {
			return fmt.Errorf("mprotect at 0x%x: %w", start+off, err)
		}
	}
	return nil
}

// MakeRWX marks every page covering [addr, addr+size) read, write and execute.
func MakeRWX(addr, size uintptr) error {
	return mprotectRange(addr, size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC)
}

// MakeRX restores every page covering [addr, addr+size) to read and execute only.
func MakeRX(addr, size uintptr) error {
	return mprotectRange(addr, size, unix.PROT_READ|unix.PROT_EXEC)
}
