// Package symcache memoizes program-counter-to-symbol-name lookups.
package symcache

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrCacheMiss is returned by Get when the address has not been cached yet.
var ErrCacheMiss = errors.New("symbol cache miss")

// SymCache is a concurrency-safe memoization table from an address to
// the symbol name resolved for it. The zero value is not usable; use
// NewSymCache.
type SymCache struct {
	mu      sync.RWMutex
	symbols map[uint64]string
}

// NewSymCache creates an empty symbol cache.
func NewSymCache() *SymCache {
	return &SymCache{
		symbols: make(map[uint64]string),
	}
}

// Get returns the cached symbol name for ip, or ErrCacheMiss if it has
// not been resolved yet.
func (c *SymCache) Get(ip uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sym, ok := c.symbols[ip]
	if !ok {
		return "", ErrCacheMiss
	}

	return sym, nil
}

// Set records the resolved symbol name for ip.
func (c *SymCache) Set(sym string, ip uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.symbols[ip] = sym
}

// Len returns the number of cached entries.
func (c *SymCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.symbols)
}
