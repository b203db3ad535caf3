//go:build linux

// Package trampoline allocates and pools executable page regions used by the
// inline hook installer to hold a hooked function's displaced prologue plus the
// jump back into the original code.
package trampoline

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/teristalegan6-debug/TeristaSpaceV1/memory"
)

// Trampoline is one page-aligned RWX region handed to a single HookEntry.
type Trampoline struct {
	Base uintptr
	Len  uintptr

	data []byte
}

// Bytes returns the writable view over the trampoline's backing page.
func (t *Trampoline) Bytes() []byte {
	return t.data
}

// Pool hands out distinct page-aligned RWX regions on demand and unmaps them
// only at Close — trampolines are retained after Free until the owning
// Pool is torn down, because an uninstalled hook's trampoline may still be
// executing on another thread (see the coordinator's quiescence discipline).
type Pool struct {
	mu     sync.Mutex
	live   map[uintptr]*Trampoline
	freed  map[uintptr]*Trampoline
	closed bool
}

// NewPool constructs an empty trampoline pool.
func NewPool() *Pool {
	return &Pool{
		live:  make(map[uintptr]*Trampoline),
		freed: make(map[uintptr]*Trampoline),
	}
}

// Alloc maps a fresh anonymous RWX page and returns it as a Trampoline.
func (p *Pool) Alloc() (*Trampoline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("trampoline pool closed")
	}

	size := int(memory.PageSize())
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("allocate trampoline: %w", err)
	}

	tr := &Trampoline{
		Base: uintptr(unsafe.Pointer(&data[0])),
		Len:  uintptr(size),
		data: data,
	}
	p.live[tr.Base] = tr
	return tr, nil
}

// Free retires a trampoline back to the pool. The memory is not unmapped
// immediately; it is released only when Close is called, once the caller has
// ensured no in-flight call could still be executing inside it.
func (p *Pool) Free(tr *Trampoline) {
	if tr == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live[tr.Base]; ok {
		delete(p.live, tr.Base)
		p.freed[tr.Base] = tr
	}
}

// Close unmaps every trampoline the pool has ever handed out, live or freed.
// Called only during coordinator teardown.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	var firstErr error
	for _, tr := range p.live {
		if err := unix.Munmap(tr.data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, tr := range p.freed {
		if err := unix.Munmap(tr.data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.live = make(map[uintptr]*Trampoline)
	p.freed = make(map[uintptr]*Trampoline)
	p.closed = true
	return firstErr
}

// Live reports how many trampolines are currently allocated and not yet freed.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}
