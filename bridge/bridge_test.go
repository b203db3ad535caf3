//go:build linux

package bridge

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teristalegan6-debug/TeristaSpaceV1/engine"
)

func TestInitializeCleanupLifecycle(t *testing.T) {
	defer Cleanup()

	require.True(t, Initialize(engine.Config{}))
	require.True(t, Initialize(engine.Config{}), "second Initialize before Cleanup is a no-op success")

	Cleanup()
	require.False(t, UninstallHook("anything"), "operations fail once torn down")
}

func TestFindSymbolFailsWithoutInitialize(t *testing.T) {
	mu.Lock()
	coordinator = nil
	mu.Unlock()

	require.Equal(t, uintptr(0), FindSymbol("", "anything"))
	require.False(t, InstallHook("anything", 0x1000, nil))
}

func TestLoadLibraryOpensRealObjectAndRejectsGarbagePath(t *testing.T) {
	require.True(t, Initialize(engine.Config{}))
	defer Cleanup()

	self, err := os.Executable()
	require.NoError(t, err)
	require.True(t, LoadLibrary(self))

	require.False(t, LoadLibrary("/does/not/exist.so"))
}

func TestSetIPCFilterRequiresInitialize(t *testing.T) {
	mu.Lock()
	coordinator = nil
	mu.Unlock()
	require.False(t, SetIPCFilter("isms", true))

	require.True(t, Initialize(engine.Config{}))
	defer Cleanup()
	require.True(t, SetIPCFilter("isms", true))
}
