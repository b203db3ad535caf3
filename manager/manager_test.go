//go:build linux

package manager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teristalegan6-debug/TeristaSpaceV1/arch"
	"github.com/teristalegan6-debug/TeristaSpaceV1/installer"
	"github.com/teristalegan6-debug/TeristaSpaceV1/resolver"
	"github.com/teristalegan6-debug/TeristaSpaceV1/trampoline"
)

// newResolvedTarget allocates an RWX region to stand in for a function
// body and registers its address under name so ResolveAny can find it
// without touching the filesystem.
func newResolvedTarget(t *testing.T, pool *trampoline.Pool, res *resolver.Resolver, name string) uintptr {
	t.Helper()
	region, err := pool.Alloc()
	require.NoError(t, err)
	for i := 0; i < 64; i++ {
		region.Bytes()[i] = 0x90
	}
	res.Register("synthetic.so", name, region.Base, true)
	return region.Base
}

func newManager(t *testing.T) (*Manager, *trampoline.Pool) {
	t.Helper()
	targetPool := trampoline.NewPool()
	t.Cleanup(func() { targetPool.Close() })
	trampolinePool := trampoline.NewPool()
	t.Cleanup(func() { trampolinePool.Close() })

	res := resolver.New(nil)
	in := installer.New(nil, arch.Default, trampolinePool)
	return New(nil, res, in), targetPool
}

func TestInstallByNameResolvesAndInstalls(t *testing.T) {
	mgr, pool := newManager(t)
	res := mgr.resolver
	newResolvedTarget(t, pool, res, "do_thing")

	backup, err := mgr.InstallByName("do_thing", 0xdeadbeef00)
	require.NoError(t, err)
	require.NotZero(t, backup)
	require.Contains(t, mgr.ActiveHooks(), "do_thing")
}

func TestInstallByNameRejectsUnknownSymbol(t *testing.T) {
	mgr, _ := newManager(t)
	_, err := mgr.InstallByName("nonexistent", 0x1000)
	require.Error(t, err)
}

func TestInstallByNameRejectsDoubleInstall(t *testing.T) {
	mgr, pool := newManager(t)
	res := mgr.resolver
	newResolvedTarget(t, pool, res, "do_thing")

	_, err := mgr.InstallByName("do_thing", 0x1000)
	require.NoError(t, err)

	_, err = mgr.InstallByName("do_thing", 0x2000)
	require.Error(t, err)
}

func TestUninstallByNameRemovesFromIndex(t *testing.T) {
	mgr, pool := newManager(t)
	res := mgr.resolver
	newResolvedTarget(t, pool, res, "do_thing")

	_, err := mgr.InstallByName("do_thing", 0x1000)
	require.NoError(t, err)

	require.NoError(t, mgr.UninstallByName("do_thing"))
	require.NotContains(t, mgr.ActiveHooks(), "do_thing")

	require.Error(t, mgr.UninstallByName("do_thing"))
}

func TestUninstallAllHooksClearsEverything(t *testing.T) {
	mgr, pool := newManager(t)
	res := mgr.resolver
	newResolvedTarget(t, pool, res, "sym_a")
	newResolvedTarget(t, pool, res, "sym_b")
	newResolvedTarget(t, pool, res, "sym_c")

	for _, s := range []string{"sym_a", "sym_b", "sym_c"} {
		_, err := mgr.InstallByName(s, 0x1000)
		require.NoError(t, err)
	}

	mgr.UninstallAllHooks()
	require.Empty(t, mgr.ActiveHooks())
}
