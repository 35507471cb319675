//go:build cgo

package hooks

/*
#include <stdlib.h>
*/
import "C"

import (
	"sync"
	"unsafe"
)

// CAllocator wraps the platform C allocator directly, for hosts that
// want the leak detector watching their real malloc/free traffic
// instead of the pure-Go ArenaAllocator.
type CAllocator struct {
	mu     sync.Mutex
	memset bool
}

// NewCAllocator creates an Allocator backed by the C allocator. memset
// mirrors Config.MemsetAllocations: true routes allocations through
// C.calloc (zero-filled), false through C.malloc (whatever was already
// in that memory), exactly the libc distinction the original tool's
// kTraceyMemsetAllocations toggle is modeled on.
func NewCAllocator(memset bool) *CAllocator {
	return &CAllocator{memset: memset}
}

func (c *CAllocator) Alloc(size uint64) (uintptr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ptr unsafe.Pointer
	if c.memset {
		ptr = C.calloc(C.size_t(size), 1)
	} else {
		ptr = C.malloc(C.size_t(size))
	}
	if ptr == nil {
		return 0, ErrOutOfMemory
	}

	return uintptr(ptr), nil
}

func (c *CAllocator) Realloc(addr uintptr, size uint64) (uintptr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ptr := C.realloc(unsafe.Pointer(addr), C.size_t(size)) //nolint:govet
	if ptr == nil && size > 0 {
		return 0, ErrOutOfMemory
	}

	return uintptr(ptr), nil
}

func (c *CAllocator) Free(addr uintptr) {
	if addr == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	C.free(unsafe.Pointer(addr)) //nolint:govet
}
