//go:build linux

// Package bridge exposes the engine's operations as a flat set of exported
// functions shaped for a host-language caller (the runtime that links this
// engine and drives it is an external collaborator; only this thin,
// JNI-style surface is provided here).
package bridge

import (
	"sync"

	"github.com/teristalegan6-debug/TeristaSpaceV1/engine"
	"github.com/teristalegan6-debug/TeristaSpaceV1/logging"
)

var (
	mu          sync.Mutex
	coordinator *engine.Coordinator
)

// Initialize constructs and arms the package-level Coordinator singleton.
// Calling it again before Cleanup is a no-op, matching the coordinator's
// own idempotent Initialize.
func Initialize(cfg engine.Config) bool {
	mu.Lock()
	defer mu.Unlock()

	if coordinator == nil {
		logger, err := logging.New(cfg.Debug)
		if err != nil {
			return false
		}
		coordinator = engine.New(logger, cfg)
	}
	return coordinator.Initialize() == nil
}

// Cleanup tears down the singleton coordinator.
func Cleanup() {
	mu.Lock()
	defer mu.Unlock()
	if coordinator == nil {
		return
	}
	_ = coordinator.Teardown()
}

// InstallHook installs replacement over symbol and writes the trampoline
// base address to backup.
func InstallHook(symbol string, replacement uintptr, backup *uintptr) bool {
	mu.Lock()
	c := coordinator
	mu.Unlock()
	if c == nil {
		return false
	}
	addr, err := c.InstallHook(symbol, replacement)
	if err != nil {
		return false
	}
	if backup != nil {
		*backup = addr
	}
	return true
}

// UninstallHook reverses InstallHook for symbol.
func UninstallHook(symbol string) bool {
	mu.Lock()
	c := coordinator
	mu.Unlock()
	if c == nil {
		return false
	}
	return c.UninstallHook(symbol) == nil
}

// FindSymbol resolves name within library, or across every open library
// when library is empty, returning 0 on failure.
func FindSymbol(library, name string) uintptr {
	mu.Lock()
	c := coordinator
	mu.Unlock()
	if c == nil {
		return 0
	}
	addr, err := c.FindSymbol(library, name)
	if err != nil {
		return 0
	}
	return addr
}

// LoadLibrary opens path through the engine's resolver.
func LoadLibrary(path string) bool {
	mu.Lock()
	c := coordinator
	mu.Unlock()
	if c == nil {
		return false
	}
	return c.LoadLibrary(path) == nil
}

// HookIPC attaches the IPC interceptor to the system library's ioctl,
// write, and read symbols.
func HookIPC() bool {
	mu.Lock()
	c := coordinator
	mu.Unlock()
	if c == nil {
		return false
	}
	return c.HookIPC() == nil
}

// UnhookIPC detaches the three IPC syscall hooks installed by HookIPC.
func UnhookIPC() bool {
	mu.Lock()
	c := coordinator
	mu.Unlock()
	if c == nil {
		return false
	}
	return c.UnhookIPC() == nil
}

// SetIPCFilter sets the plain allow bit for service.
func SetIPCFilter(service string, allow bool) bool {
	mu.Lock()
	c := coordinator
	mu.Unlock()
	if c == nil {
		return false
	}
	return c.SetIPCFilter(service, allow) == nil
}
