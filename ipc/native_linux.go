//go:build linux

package ipc

/*
#include <stddef.h>
#include <sys/types.h>
#include <stdint.h>

typedef int (*terista_ioctl_fn)(int, unsigned long, void *);
typedef ssize_t (*terista_write_fn)(int, const void *, size_t);
typedef ssize_t (*terista_read_fn)(int, void *, size_t);

static terista_ioctl_fn terista_orig_ioctl;
static terista_write_fn terista_orig_write;
static terista_read_fn  terista_orig_read;

static void terista_set_orig_ioctl(uintptr_t p) { terista_orig_ioctl = (terista_ioctl_fn)p; }
static void terista_set_orig_write(uintptr_t p) { terista_orig_write = (terista_write_fn)p; }
static void terista_set_orig_read(uintptr_t p)  { terista_orig_read  = (terista_read_fn)p; }

static int terista_call_orig_ioctl(int fd, unsigned long request, void *arg) {
	return terista_orig_ioctl(fd, request, arg);
}
static ssize_t terista_call_orig_write(int fd, const void *buf, size_t count) {
	return terista_orig_write(fd, buf, count);
}
static ssize_t terista_call_orig_read(int fd, void *buf, size_t count) {
	return terista_orig_read(fd, buf, count);
}

extern int goHookedIoctl(int fd, unsigned long request, void *arg);
extern ssize_t goHookedWrite(int fd, void *buf, size_t count);
extern ssize_t goHookedRead(int fd, void *buf, size_t count);

static int terista_hooked_ioctl(int fd, unsigned long request, void *arg) {
	return goHookedIoctl(fd, request, arg);
}
static ssize_t terista_hooked_write(int fd, const void *buf, size_t count) {
	return goHookedWrite(fd, (void *)buf, count);
}
static ssize_t terista_hooked_read(int fd, void *buf, size_t count) {
	return goHookedRead(fd, buf, count);
}

static uintptr_t terista_hooked_ioctl_addr(void) { return (uintptr_t)&terista_hooked_ioctl; }
static uintptr_t terista_hooked_write_addr(void) { return (uintptr_t)&terista_hooked_write; }
static uintptr_t terista_hooked_read_addr(void)  { return (uintptr_t)&terista_hooked_read; }
*/
import "C"

import (
	"sync"
	"unsafe"
)

var (
	nativeMu          sync.Mutex
	activeInterceptor *Interceptor
)

// BindNative records in as the interceptor consulted by the native
// replacement bodies below and records origIoctl/origWrite/origRead — the
// trampoline base addresses the hook manager returned for ioctl/write/read
// — as the addresses the replacement bodies call through to on admission.
// The coordinator calls this once, after installing the three hooks.
func BindNative(in *Interceptor, origIoctl, origWrite, origRead uintptr) {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	activeInterceptor = in
	C.terista_set_orig_ioctl(C.uintptr_t(origIoctl))
	C.terista_set_orig_write(C.uintptr_t(origWrite))
	C.terista_set_orig_read(C.uintptr_t(origRead))
}

// UnbindNative clears the interceptor and captured original pointers,
// called once the three hooks have been uninstalled.
func UnbindNative() {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	activeInterceptor = nil
	C.terista_set_orig_ioctl(0)
	C.terista_set_orig_write(0)
	C.terista_set_orig_read(0)
}

// IoctlReplacementAddr is the address the hook manager patches the real
// ioctl symbol to jump to.
func IoctlReplacementAddr() uintptr { return uintptr(C.terista_hooked_ioctl_addr()) }

// WriteReplacementAddr is the address the hook manager patches the real
// write symbol to jump to.
func WriteReplacementAddr() uintptr { return uintptr(C.terista_hooked_write_addr()) }

// ReadReplacementAddr is the address the hook manager patches the real
// read symbol to jump to.
func ReadReplacementAddr() uintptr { return uintptr(C.terista_hooked_read_addr()) }

//export goHookedIoctl
func goHookedIoctl(fd C.int, request C.ulong, arg unsafe.Pointer) C.int {
	nativeMu.Lock()
	in := activeInterceptor
	nativeMu.Unlock()
	if in == nil {
		return C.terista_call_orig_ioctl(fd, request, arg)
	}
	call := func() int {
		return int(C.terista_call_orig_ioctl(fd, request, arg))
	}
	return C.int(in.HandleIoctl(uint32(request), call))
}

//export goHookedWrite
func goHookedWrite(fd C.int, buf unsafe.Pointer, count C.size_t) C.ssize_t {
	nativeMu.Lock()
	in := activeInterceptor
	nativeMu.Unlock()
	if in == nil || count == 0 {
		return C.terista_call_orig_write(fd, buf, count)
	}
	data := unsafe.Slice((*byte)(buf), int(count))
	call := func(b []byte) int {
		if len(b) == 0 {
			return int(C.terista_call_orig_write(fd, nil, 0))
		}
		return int(C.terista_call_orig_write(fd, unsafe.Pointer(&b[0]), C.size_t(len(b))))
	}
	return C.ssize_t(in.HandleWrite(data, call))
}

//export goHookedRead
func goHookedRead(fd C.int, buf unsafe.Pointer, count C.size_t) C.ssize_t {
	nativeMu.Lock()
	in := activeInterceptor
	nativeMu.Unlock()
	if in == nil || count == 0 {
		return C.terista_call_orig_read(fd, buf, count)
	}
	data := unsafe.Slice((*byte)(buf), int(count))
	call := func(b []byte) int {
		if len(b) == 0 {
			return int(C.terista_call_orig_read(fd, nil, 0))
		}
		return int(C.terista_call_orig_read(fd, unsafe.Pointer(&b[0]), C.size_t(len(b))))
	}
	return C.ssize_t(in.HandleRead(data, call))
}
