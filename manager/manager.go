//go:build linux

// Package manager is the hook manager façade: it resolves a symbol by name,
// installs an inline hook on it, and keeps the by-symbol index that is the
// single source of truth for teardown.
package manager

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/teristalegan6-debug/TeristaSpaceV1/errs"
	"github.com/teristalegan6-debug/TeristaSpaceV1/installer"
	"github.com/teristalegan6-debug/TeristaSpaceV1/resolver"
)

// activeHook is one entry in the by-symbol index.
type activeHook struct {
	symbol string
	target uintptr
}

// Manager ties a Resolver (name -> address) to an Installer (address ->
// patched address), and tracks every hook it has installed in insertion
// order so teardown can walk it in reverse.
type Manager struct {
	logger   *zap.Logger
	resolver *resolver.Resolver
	installer *installer.Installer

	mu     sync.Mutex
	byName map[string]*activeHook
	order  []string
}

// New constructs a Manager over an already-opened resolver and installer.
func New(logger *zap.Logger, res *resolver.Resolver, in *installer.Installer) *Manager {
	return &Manager{
		logger:    logger,
		resolver:  res,
		installer: in,
		byName:    make(map[string]*activeHook),
	}
}

// InstallByName resolves symbol across every registered library, installs
// an inline hook redirecting it to replacement, and records the hook under
// symbol. It returns the trampoline's base address as the backup callers
// use to invoke the original body.
func (m *Manager) InstallByName(symbol string, replacement uintptr) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[symbol]; ok {
		return 0, fmt.Errorf("symbol %q: %w", symbol, errs.ErrAlreadyHooked)
	}

	addr, ok := m.resolver.ResolveAny(symbol)
	if !ok {
		return 0, fmt.Errorf("symbol %q: %w", symbol, errs.ErrSymbolNotFound)
	}

	entry, err := m.installer.Install(addr, replacement)
	if err != nil {
		return 0, err
	}

	m.byName[symbol] = &activeHook{symbol: symbol, target: addr}
	m.order = append(m.order, symbol)

	if m.logger != nil {
		m.logger.Debug("hook installed by name", zap.String("symbol", symbol), zap.Uintptr("target", addr))
	}
	return entry.Trampoline.Base, nil
}

// UninstallByName reverses InstallByName for symbol.
func (m *Manager) UninstallByName(symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hook, ok := m.byName[symbol]
	if !ok {
		return fmt.Errorf("symbol %q: %w", symbol, errs.ErrNotHooked)
	}

	if err := m.installer.Uninstall(hook.target); err != nil {
		return err
	}

	delete(m.byName, symbol)
	for i, s := range m.order {
		if s == symbol {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	if m.logger != nil {
		m.logger.Debug("hook uninstalled by name", zap.String("symbol", symbol))
	}
	return nil
}

// UninstallAllHooks tears down every active hook in reverse insertion
// order, tolerating individual failures by logging and continuing so one
// stuck hook cannot block teardown of the rest.
func (m *Manager) UninstallAllHooks() {
	m.mu.Lock()
	order := make([]string, len(m.order))
	copy(order, m.order)
	m.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		if err := m.UninstallByName(order[i]); err != nil && m.logger != nil {
			m.logger.Warn("failed to uninstall hook during teardown",
				zap.String("symbol", order[i]), zap.Error(err))
		}
	}
}

// ActiveHooks returns the currently hooked symbol names in insertion order.
func (m *Manager) ActiveHooks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}
