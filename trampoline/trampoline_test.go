//go:build linux

package trampoline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocReturnsDistinctPageAlignedRegions(t *testing.T) {
	p := NewPool()
	defer p.Close()

	a, err := p.Alloc()
	require.NoError(t, err)
	b, err := p.Alloc()
	require.NoError(t, err)

	require.NotEqual(t, a.Base, b.Base)
	require.Zero(t, a.Base%a.Len, "trampoline base must be page-aligned")
	require.Equal(t, 2, p.Live())
}

func TestFreeRetainsMappingUntilClose(t *testing.T) {
	p := NewPool()
	defer p.Close()

	tr, err := p.Alloc()
	require.NoError(t, err)

	p.Free(tr)
	require.Equal(t, 0, p.Live(), "freed trampoline drops out of the live set")

	// the page must still be valid to write to until Close tears the pool down
	tr.Bytes()[0] = 0x90
	require.Equal(t, byte(0x90), tr.Bytes()[0])
}

func TestCloseUnmapsEverything(t *testing.T) {
	p := NewPool()
	_, err := p.Alloc()
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "double close is a no-op")

	_, err = p.Alloc()
	require.Error(t, err, "pool rejects allocation after close")
}
