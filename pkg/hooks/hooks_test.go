package hooks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocAndFree(t *testing.T) {
	a := NewArenaAllocator(true)

	ptr, err := a.Alloc(16)
	require.NoError(t, err)
	require.NotZero(t, ptr)
	require.Equal(t, 1, a.Len())

	a.Free(ptr)
	require.Equal(t, 0, a.Len())
}

func TestArenaAllocZeroSize(t *testing.T) {
	a := NewArenaAllocator(true)

	ptr, err := a.Alloc(0)
	require.NoError(t, err)
	require.NotZero(t, ptr)
}

func TestArenaAllocUniqueAddresses(t *testing.T) {
	a := NewArenaAllocator(true)

	p1, _ := a.Alloc(8)
	p2, _ := a.Alloc(8)
	require.NotEqual(t, p1, p2)
}

func TestArenaReallocPreservesData(t *testing.T) {
	a := NewArenaAllocator(true)

	ptr, _ := a.Alloc(4)
	a.blocks[ptr][0] = 0xAB

	resized, err := a.Realloc(ptr, 8)
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), a.blocks[resized][0])
}

func TestArenaReallocUntrackedActsAsAlloc(t *testing.T) {
	a := NewArenaAllocator(true)

	ptr, err := a.Realloc(0xDEAD, 8)
	require.NoError(t, err)
	require.NotZero(t, ptr)
	require.Equal(t, 1, a.Len())
}

func TestArenaFreeUntrackedIsNoop(t *testing.T) {
	a := NewArenaAllocator(true)
	require.NotPanics(t, func() {
		a.Free(0xDEAD)
	})
}

func TestArenaAllocMemsetFalseFillsGarbagePattern(t *testing.T) {
	a := NewArenaAllocator(false)

	ptr, err := a.Alloc(4)
	require.NoError(t, err)
	for _, b := range a.blocks[ptr] {
		require.Equal(t, byte(0xAA), b)
	}
}

func TestArenaAllocMemsetTrueZeroes(t *testing.T) {
	a := NewArenaAllocator(true)

	ptr, err := a.Alloc(4)
	require.NoError(t, err)
	for _, b := range a.blocks[ptr] {
		require.Equal(t, byte(0), b)
	}
}
