package symtable

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveEmpty(t *testing.T) {
	r := NewResolver()
	require.Nil(t, r.Resolve(nil))
}

func TestResolveOwnFrame(t *testing.T) {
	var pcs [4]uintptr
	n := runtime.Callers(1, pcs[:])
	require.Greater(t, n, 0)

	r := NewResolver()
	names := r.Resolve(pcs[:n])
	require.Len(t, names, n)
	require.Contains(t, names[0], "TestResolveOwnFrame")
}

func TestResolveCachesAcrossCalls(t *testing.T) {
	var pcs [1]uintptr
	n := runtime.Callers(1, pcs[:])
	require.Greater(t, n, 0)

	r := NewResolver()
	first := r.Resolve(pcs[:n])
	require.Equal(t, 1, r.cache.Len())

	second := r.Resolve(pcs[:n])
	require.Equal(t, first, second)
	require.Equal(t, 1, r.cache.Len())
}

func TestELFSymTabEmptyTable(t *testing.T) {
	tab := NewELFSymTab()
	_, err := tab.GetName(0x1000, true)
	require.ErrorIs(t, err, ErrSymTableEmpty)
}

func TestELFSymTabNotFoundWithoutCache(t *testing.T) {
	tab := NewELFSymTab()
	_, err := tab.GetName(0x1000, false)
	require.ErrorIs(t, err, ErrSymNotFound)
}
