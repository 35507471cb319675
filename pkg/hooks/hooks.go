// Package hooks defines the boundary between the leak detector core
// and the actual memory allocator backing a host program. The core
// never allocates or frees memory itself: it only ever watches and
// forgets addresses an Allocator hands out, exactly as the detector
// this package is modeled on treats its allocator as replaceable.
package hooks

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrOutOfMemory is returned by an Allocator that cannot satisfy a
// request, the Go equivalent of the detector's bad_alloc condition.
var ErrOutOfMemory = errors.New("hooks: allocator out of memory")

// Allocator is the interface the leak detector's registry hooks are
// wired to. A host program supplies its own; ArenaAllocator is the
// pure-Go reference implementation used by the demo CLI and tests.
type Allocator interface {
	Alloc(size uint64) (uintptr, error)
	Realloc(addr uintptr, size uint64) (uintptr, error)
	Free(addr uintptr)
}

// ArenaAllocator is a mutex-guarded, address-space-independent
// allocator: it hands out synthetic addresses backed by ordinary Go
// byte slices, so it works without cgo and without dipping into
// unsafe pointer arithmetic on real memory. It exists so the rest of
// this module has something concrete to Watch and Forget in tests and
// in the demo command, without depending on the host's own allocator.
type ArenaAllocator struct {
	mu      sync.Mutex
	blocks  map[uintptr][]byte
	nextPtr uint64
	memset  bool
}

// NewArenaAllocator creates an empty ArenaAllocator. Address 0 is
// reserved as the "nil" sentinel, mirroring a real allocator that
// never legitimately hands out address zero. memset mirrors
// Config.MemsetAllocations: when false, a freshly returned block is
// filled with a fixed non-zero byte instead of zeroes, the way a real
// malloc (which never zeroes on the caller's behalf) would leave
// whatever garbage was already sitting in that memory.
func NewArenaAllocator(memset bool) *ArenaAllocator {
	return &ArenaAllocator{
		blocks:  make(map[uintptr][]byte),
		nextPtr: 1,
		memset:  memset,
	}
}

// Alloc reserves size bytes and returns a unique synthetic address for
// them. A size of zero still returns a distinct, valid address, per
// this module's zero-sized-allocation semantics.
func (a *ArenaAllocator) Alloc(size uint64) (uintptr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ptr := uintptr(atomic.AddUint64(&a.nextPtr, 1) - 1)
	block := make([]byte, size)
	if !a.memset {
		for i := range block {
			block[i] = 0xAA
		}
	}
	a.blocks[ptr] = block

	return ptr, nil
}

// Realloc resizes the block at addr, preserving its contents up to the
// smaller of the two sizes, and returns the (possibly unchanged)
// address. Reallocating an untracked address is treated as a fresh
// Alloc, matching realloc(3)'s behavior for a NULL pointer.
func (a *ArenaAllocator) Realloc(addr uintptr, size uint64) (uintptr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	old, ok := a.blocks[addr]
	if !ok {
		ptr := uintptr(atomic.AddUint64(&a.nextPtr, 1) - 1)
		block := make([]byte, size)
		if !a.memset {
			for i := range block {
				block[i] = 0xAA
			}
		}
		a.blocks[ptr] = block
		return ptr, nil
	}

	resized := make([]byte, size)
	copy(resized, old)
	a.blocks[addr] = resized

	return addr, nil
}

// Free releases the block at addr. Freeing an untracked address is a
// no-op: the registry, not the allocator, is responsible for flagging
// wild frees.
func (a *ArenaAllocator) Free(addr uintptr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.blocks, addr)
}

// Len reports the number of live blocks, for tests.
func (a *ArenaAllocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.blocks)
}
