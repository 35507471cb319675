package symcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMiss(t *testing.T) {
	c := NewSymCache()
	_, err := c.Get(0x1000)
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestSetThenGet(t *testing.T) {
	c := NewSymCache()
	c.Set("main.main", 0x1000)

	sym, err := c.Get(0x1000)
	require.NoError(t, err)
	require.Equal(t, "main.main", sym)
}

func TestLen(t *testing.T) {
	c := NewSymCache()
	require.Equal(t, 0, c.Len())

	c.Set("a", 1)
	c.Set("b", 2)
	require.Equal(t, 2, c.Len())
}

func TestOverwrite(t *testing.T) {
	c := NewSymCache()
	c.Set("old", 0x42)
	c.Set("new", 0x42)

	sym, err := c.Get(0x42)
	require.NoError(t, err)
	require.Equal(t, "new", sym)
}
