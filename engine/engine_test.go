//go:build linux

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teristalegan6-debug/TeristaSpaceV1/errs"
	"github.com/teristalegan6-debug/TeristaSpaceV1/policy"
)

func blankConfig() Config {
	return Config{}
}

func TestOperationsRejectedBeforeInitialize(t *testing.T) {
	c := New(nil, blankConfig())
	_, err := c.InstallHook("anything", 0x1000)
	require.ErrorIs(t, err, errs.ErrNotInitialized)

	_, err = c.FindSymbol("", "anything")
	require.ErrorIs(t, err, errs.ErrNotInitialized)
}

func TestInitializeIsIdempotent(t *testing.T) {
	c := New(nil, blankConfig())
	require.NoError(t, c.Initialize())
	firstResolver := c.Resolver
	require.NoError(t, c.Initialize())
	require.Same(t, firstResolver, c.Resolver, "second Initialize must not reconstruct subcomponents")
	require.NoError(t, c.Teardown())
}

func TestTeardownIsIdempotent(t *testing.T) {
	c := New(nil, blankConfig())
	require.NoError(t, c.Teardown(), "tearing down before initialize is a no-op")
	require.NoError(t, c.Initialize())
	require.NoError(t, c.Teardown())
	require.NoError(t, c.Teardown())
}

func TestInstallFindUninstallHookRoundTrip(t *testing.T) {
	c := New(nil, blankConfig())
	require.NoError(t, c.Initialize())
	defer c.Teardown()

	region, err := c.pool.Alloc()
	require.NoError(t, err)
	for i := 0; i < 64; i++ {
		region.Bytes()[i] = 0x90
	}
	c.Resolver.Register("synthetic.so", "do_thing", region.Base, true)

	addr, err := c.FindSymbol("", "do_thing")
	require.NoError(t, err)
	require.Equal(t, region.Base, addr)

	backup, err := c.InstallHook("do_thing", 0xdeadbeef00)
	require.NoError(t, err)
	require.NotZero(t, backup)

	require.NoError(t, c.UninstallHook("do_thing"))
	require.ErrorIs(t, c.UninstallHook("do_thing"), errs.ErrNotHooked)
}

func TestTeardownUninstallsEveryHook(t *testing.T) {
	c := New(nil, blankConfig())
	require.NoError(t, c.Initialize())

	for _, name := range []string{"sym_a", "sym_b", "sym_c"} {
		region, err := c.pool.Alloc()
		require.NoError(t, err)
		c.Resolver.Register("synthetic.so", name, region.Base, true)
		_, err = c.InstallHook(name, 0x1000)
		require.NoError(t, err)
	}
	require.Len(t, c.Manager.ActiveHooks(), 3)
	mgr := c.Manager

	require.NoError(t, c.Teardown())
	require.Equal(t, Uninitialized, c.Status())
	require.Empty(t, mgr.ActiveHooks(), "teardown uninstalls every hook")

	_, err := c.InstallHook("sym_a", 0x1000)
	require.ErrorIs(t, err, errs.ErrNotInitialized)
}

func TestSetAndClearIPCFilter(t *testing.T) {
	c := New(nil, blankConfig())
	require.NoError(t, c.Initialize())
	defer c.Teardown()

	require.NoError(t, c.SetIPCFilter("isms", true))
	require.True(t, c.Policy.Allow(policy.Transaction{Service: "isms"}))

	require.NoError(t, c.ClearIPCFilters())
	require.False(t, c.Policy.Allow(policy.Transaction{Service: "isms"}))
}

func registerIPCSymbols(t *testing.T, c *Coordinator) {
	t.Helper()
	for _, name := range []string{"ioctl", "write", "read"} {
		region, err := c.pool.Alloc()
		require.NoError(t, err)
		c.Resolver.Register("libc.so", name, region.Base, true)
	}
}

func TestHookIPCInstallsThroughManagerAndIsIdempotent(t *testing.T) {
	c := New(nil, blankConfig())
	require.NoError(t, c.Initialize())
	defer c.Teardown()

	registerIPCSymbols(t, c)

	require.NoError(t, c.HookIPC())
	require.ElementsMatch(t, []string{"ioctl", "write", "read"}, c.Manager.ActiveHooks())

	require.NoError(t, c.HookIPC(), "a second HookIPC call is a no-op")
	require.Len(t, c.Manager.ActiveHooks(), 3, "idempotent attach must not double-install")
}

func TestUnhookIPCRemovesAllThreeAndIsIdempotent(t *testing.T) {
	c := New(nil, blankConfig())
	require.NoError(t, c.Initialize())
	defer c.Teardown()

	registerIPCSymbols(t, c)
	require.NoError(t, c.HookIPC())

	require.NoError(t, c.UnhookIPC())
	require.Empty(t, c.Manager.ActiveHooks())
	require.NoError(t, c.UnhookIPC(), "unhooking twice is a no-op")
}

func TestTeardownRestoresNamedHooksAndIPCHooksTogether(t *testing.T) {
	c := New(nil, blankConfig())
	require.NoError(t, c.Initialize())

	for _, name := range []string{"sym_a", "sym_b", "sym_c"} {
		region, err := c.pool.Alloc()
		require.NoError(t, err)
		c.Resolver.Register("synthetic.so", name, region.Base, true)
		_, err = c.InstallHook(name, 0x1000)
		require.NoError(t, err)
	}

	registerIPCSymbols(t, c)
	require.NoError(t, c.HookIPC())

	require.Len(t, c.Manager.ActiveHooks(), 6, "three named hooks plus ioctl/write/read")
	mgr := c.Manager

	require.NoError(t, c.Teardown())
	require.Equal(t, Uninitialized, c.Status())
	require.Empty(t, mgr.ActiveHooks(), "every hook is uninstalled, which restores its saved prologue")

	_, err := c.InstallHook("sym_a", 0x1000)
	require.ErrorIs(t, err, errs.ErrNotInitialized)
}
