//go:build linux

// Package engine owns the process-wide Coordinator: the single instance
// that arms the resolver, installer, hook manager, and IPC interceptor on
// Initialize and tears all four down together.
package engine

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/teristalegan6-debug/TeristaSpaceV1/arch"
	"github.com/teristalegan6-debug/TeristaSpaceV1/errs"
	"github.com/teristalegan6-debug/TeristaSpaceV1/installer"
	"github.com/teristalegan6-debug/TeristaSpaceV1/ipc"
	"github.com/teristalegan6-debug/TeristaSpaceV1/manager"
	"github.com/teristalegan6-debug/TeristaSpaceV1/policy"
	"github.com/teristalegan6-debug/TeristaSpaceV1/resolver"
	"github.com/teristalegan6-debug/TeristaSpaceV1/trampoline"
)

// State is the Coordinator's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Initialized
)

// Coordinator is the single process-wide instance tying the engine's
// subcomponents together. A single mutex serializes Initialize, Teardown,
// InstallHook, UninstallHook, and the IPC filter mutators; hot-path
// replacement bodies (ipc.Interceptor's Handle* methods) never take it.
type Coordinator struct {
	logger *zap.Logger
	cfg    Config

	mu    sync.Mutex
	state State

	pool      *trampoline.Pool
	Resolver  *resolver.Resolver
	Installer *installer.Installer
	Manager   *manager.Manager
	Policy    *policy.ServicePolicy
	Interceptor *ipc.Interceptor

	ipcHooked bool
}

// New constructs a Coordinator in the Uninitialized state. Subcomponents
// are not built until Initialize.
func New(logger *zap.Logger, cfg Config) *Coordinator {
	return &Coordinator{logger: logger, cfg: cfg, state: Uninitialized}
}

// Initialize is idempotent: a second call while already Initialized is a
// no-op that returns nil. On first call it allocates the trampoline pool,
// constructs the resolver/installer/manager/policy/interceptor, and opens
// the configured system libraries.
func (c *Coordinator) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Initialized {
		return nil
	}

	c.pool = trampoline.NewPool()
	c.Resolver = resolver.New(c.logger)
	c.Installer = installer.New(c.logger, arch.Default, c.pool)
	c.Manager = manager.New(c.logger, c.Resolver, c.Installer)
	c.Policy = policy.New()
	c.Interceptor = ipc.New(c.logger, c.Policy)

	for _, path := range []string{c.cfg.LibcPath, c.cfg.LinkerPath, c.cfg.IPCClientLibPath} {
		if path == "" {
			continue
		}
		if err := c.Resolver.Open(path); err != nil && c.logger != nil {
			c.logger.Warn("failed to open configured library at initialize", zap.String("path", path), zap.Error(err))
		}
	}

	c.state = Initialized
	if c.logger != nil {
		c.logger.Info("engine initialized")
	}
	return nil
}

// Teardown uninstalls every hook in reverse install order, drops the
// resolver's library handles, and resets to Uninitialized. A second call
// while already Uninitialized is a no-op.
func (c *Coordinator) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Uninitialized {
		return nil
	}

	c.Manager.UninstallAllHooks()
	ipc.UnbindNative()
	c.ipcHooked = false
	for _, path := range c.Resolver.ListLoaded() {
		if err := c.Resolver.Close(path); err != nil && c.logger != nil {
			c.logger.Warn("failed to close library during teardown", zap.String("path", path), zap.Error(err))
		}
	}
	if err := c.pool.Close(); err != nil && c.logger != nil {
		c.logger.Warn("failed to release trampoline pool during teardown", zap.Error(err))
	}

	c.Resolver = nil
	c.Installer = nil
	c.Manager = nil
	c.Policy = nil
	c.Interceptor = nil
	c.pool = nil
	c.state = Uninitialized

	if c.logger != nil {
		c.logger.Info("engine torn down")
	}
	return nil
}

func (c *Coordinator) requireInitialized() error {
	if c.state != Initialized {
		return errs.ErrNotInitialized
	}
	return nil
}

// InstallHook resolves symbol and installs replacement over it, returning
// the trampoline base address as the backup.
func (c *Coordinator) InstallHook(symbol string, replacement uintptr) (uintptr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInitialized(); err != nil {
		return 0, err
	}
	return c.Manager.InstallByName(symbol, replacement)
}

// UninstallHook reverses InstallHook for symbol.
func (c *Coordinator) UninstallHook(symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInitialized(); err != nil {
		return err
	}
	return c.Manager.UninstallByName(symbol)
}

// FindSymbol resolves name against library (or every open library if
// library is empty) and returns its address.
func (c *Coordinator) FindSymbol(library, name string) (uintptr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInitialized(); err != nil {
		return 0, err
	}
	if library != "" {
		addr, ok := c.Resolver.Resolve(library, name)
		if !ok {
			return 0, fmt.Errorf("symbol %q in %q: %w", name, library, errs.ErrSymbolNotFound)
		}
		return addr, nil
	}
	addr, ok := c.Resolver.ResolveAny(name)
	if !ok {
		return 0, fmt.Errorf("symbol %q: %w", name, errs.ErrSymbolNotFound)
	}
	return addr, nil
}

// LoadLibrary opens path through the resolver.
func (c *Coordinator) LoadLibrary(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInitialized(); err != nil {
		return err
	}
	return c.Resolver.Open(path)
}

// HookIPC attaches the IPC interceptor by resolving "ioctl", "write", and
// "read" from the system C library through the hook manager and installing
// three distinct replacement bodies — one per syscall signature — each
// dispatching to Interceptor.HandleIoctl/HandleWrite/HandleRead. Installing
// through c.Manager, rather than the installer directly, is what lets
// Teardown's uninstall_all restore all three alongside every named hook.
// A failure partway through rolls back whatever was already installed.
func (c *Coordinator) HookIPC() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInitialized(); err != nil {
		return err
	}
	if c.ipcHooked {
		return nil
	}

	ioctlBackup, err := c.Manager.InstallByName("ioctl", ipc.IoctlReplacementAddr())
	if err != nil {
		return fmt.Errorf("hook ipc: ioctl: %w", err)
	}
	writeBackup, err := c.Manager.InstallByName("write", ipc.WriteReplacementAddr())
	if err != nil {
		_ = c.Manager.UninstallByName("ioctl")
		return fmt.Errorf("hook ipc: write: %w", err)
	}
	readBackup, err := c.Manager.InstallByName("read", ipc.ReadReplacementAddr())
	if err != nil {
		_ = c.Manager.UninstallByName("write")
		_ = c.Manager.UninstallByName("ioctl")
		return fmt.Errorf("hook ipc: read: %w", err)
	}

	ipc.BindNative(c.Interceptor, ioctlBackup, writeBackup, readBackup)
	c.ipcHooked = true
	if c.logger != nil {
		c.logger.Info("ipc interceptor attached")
	}
	return nil
}

// UnhookIPC uninstalls the three IPC syscall hooks installed by HookIPC. It
// takes no arguments: the coordinator is the one that resolved and
// installed them, so it is the one that tracks them.
func (c *Coordinator) UnhookIPC() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Initialized || !c.ipcHooked {
		return nil
	}

	var firstErr error
	for _, sym := range []string{"ioctl", "write", "read"} {
		if err := c.Manager.UninstallByName(sym); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	ipc.UnbindNative()
	c.ipcHooked = false
	return firstErr
}

// SetIPCFilter sets the plain allow bit for service.
func (c *Coordinator) SetIPCFilter(service string, allow bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInitialized(); err != nil {
		return err
	}
	c.Policy.SetAllow(service, allow)
	return nil
}

// ClearIPCFilters restores the default allow/block seed.
func (c *Coordinator) ClearIPCFilters() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInitialized(); err != nil {
		return err
	}
	c.Policy.Clear()
	return nil
}

// Status reports the current lifecycle state.
func (c *Coordinator) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
