//go:build linux

package resolver

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// injectLibrary registers a synthetic library without touching the
// filesystem, isolating cache semantics from ELF parsing.
func injectLibrary(r *Resolver, path string, symbols map[string]SymbolRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPath[path] = &LoadedLibrary{Path: path, symbols: symbols}
	r.order = append(r.order, path)
}

func TestResolveCachesAndIsCoherentAcrossCalls(t *testing.T) {
	r := New(nil)
	injectLibrary(r, "/lib/libfoo.so", map[string]SymbolRecord{
		"do_thing": {Name: "do_thing", Address: 0x1000, LibraryPath: "/lib/libfoo.so", IsFunction: true},
	})

	addr1, ok := r.Resolve("/lib/libfoo.so", "do_thing")
	require.True(t, ok)
	require.Equal(t, uintptr(0x1000), addr1)

	addr2, ok := r.Resolve("/lib/libfoo.so", "do_thing")
	require.True(t, ok)
	require.Equal(t, addr1, addr2)

	_, ok = r.Resolve("/lib/libfoo.so", "missing")
	require.False(t, ok)
}

func TestResolveAnyIteratesRegistrationOrder(t *testing.T) {
	r := New(nil)
	injectLibrary(r, "/lib/first.so", map[string]SymbolRecord{
		"shared": {Name: "shared", Address: 0x1, LibraryPath: "/lib/first.so"},
	})
	injectLibrary(r, "/lib/second.so", map[string]SymbolRecord{
		"shared": {Name: "shared", Address: 0x2, LibraryPath: "/lib/second.so"},
	})

	addr, ok := r.ResolveAny("shared")
	require.True(t, ok)
	require.Equal(t, uintptr(0x1), addr, "first registered library wins")
}

func TestClearCacheForcesRederivation(t *testing.T) {
	r := New(nil)
	injectLibrary(r, "/lib/libfoo.so", map[string]SymbolRecord{
		"sym": {Name: "sym", Address: 0x42, LibraryPath: "/lib/libfoo.so"},
	})

	addr, ok := r.Resolve("/lib/libfoo.so", "sym")
	require.True(t, ok)
	require.Equal(t, uintptr(0x42), addr)

	r.ClearCache()
	require.Empty(t, r.cache)

	addr, ok = r.Resolve("/lib/libfoo.so", "sym")
	require.True(t, ok)
	require.Equal(t, uintptr(0x42), addr)
}

func TestCloseUnregistersAndEvictsScopedCache(t *testing.T) {
	r := New(nil)
	injectLibrary(r, "/lib/libfoo.so", map[string]SymbolRecord{
		"sym": {Name: "sym", Address: 0x42, LibraryPath: "/lib/libfoo.so"},
	})
	_, ok := r.Resolve("/lib/libfoo.so", "sym")
	require.True(t, ok)

	require.NoError(t, r.Close("/lib/libfoo.so"))
	require.NotContains(t, r.ListLoaded(), "/lib/libfoo.so")

	_, ok = r.Resolve("/lib/libfoo.so", "sym")
	require.False(t, ok)

	require.Error(t, r.Close("/lib/libfoo.so"))
}

func TestListLoadedReflectsRegistrationOrder(t *testing.T) {
	r := New(nil)
	injectLibrary(r, "/lib/a.so", nil)
	injectLibrary(r, "/lib/b.so", nil)
	require.Equal(t, []string{"/lib/a.so", "/lib/b.so"}, r.ListLoaded())
}

func TestNameOfReverseLooksUpAddress(t *testing.T) {
	r := New(nil)
	injectLibrary(r, "/lib/libfoo.so", map[string]SymbolRecord{
		"do_thing": {Name: "do_thing", Address: 0x1000, LibraryPath: "/lib/libfoo.so"},
	})

	name, lib, ok := r.NameOf(0x1000)
	require.True(t, ok)
	require.Equal(t, "do_thing", name)
	require.Equal(t, "/lib/libfoo.so", lib)

	_, _, ok = r.NameOf(0x9999)
	require.False(t, ok)
}

func TestFindByPatternMatchesAcrossLibraries(t *testing.T) {
	r := New(nil)
	injectLibrary(r, "/lib/a.so", map[string]SymbolRecord{
		"binder_transact": {Name: "binder_transact", Address: 1},
		"other_fn":        {Name: "other_fn", Address: 2},
	})
	injectLibrary(r, "/lib/b.so", map[string]SymbolRecord{
		"binder_ioctl": {Name: "binder_ioctl", Address: 3},
	})

	matches := r.FindByPattern(regexp.MustCompile(`^binder_`))
	require.Len(t, matches, 2)
	require.Equal(t, "binder_ioctl", matches[0].Name)
	require.Equal(t, "binder_transact", matches[1].Name)
}

func TestOpenParsesRealELFObject(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)

	r := New(nil)
	require.NoError(t, r.Open(self))
	require.Contains(t, r.ListLoaded(), self)

	require.NoError(t, r.Open(self), "re-opening an already-registered path is a no-op")
}

func TestDeviceForFDRejectsNonBinderTargets(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "plain-file")
	require.NoError(t, err)
	defer f.Close()

	_, isBinder := DeviceForFD(int(f.Fd()))
	require.False(t, isBinder)
}
