// Package registry tracks every allocation a host program has made
// but not yet released, keyed by raw address. It is the live-state
// core of the leak detector: everything else (the reporter, the
// status server) only ever reads a Snapshot of it.
package registry

import (
	"sync"

	log "github.com/rs/zerolog"

	"github.com/maxgio92/tracey/pkg/stackcapture"
)

const (
	// DefaultMaxFrames matches stackcapture.DefaultMaxFrames.
	DefaultMaxFrames = stackcapture.DefaultMaxFrames

	// DefaultAllocsOverhead assumes no bookkeeping overhead, i.e. the
	// registry's Usage tracks exactly what callers asked to Watch.
	DefaultAllocsOverhead = 1.0
)

// entry is one live allocation.
type entry struct {
	id    uint64
	size  uint64
	stack stackcapture.Stack
}

// Entry is the exported, read-only view of a live allocation returned
// by Snapshot.
type Entry struct {
	ID    uint64
	Size  uint64
	Stack stackcapture.Stack
}

// Stats is a point-in-time summary of the registry's live state.
type Stats struct {
	Leaks       uint64
	Usage       uint64
	Peak        uint64
	DoubleWatch uint64
}

// Snapshot is a consistent, point-in-time copy of every entry the
// registry currently considers live, filtered to the entries created
// since the last Restart.
type Snapshot struct {
	Entries []Entry
	Epoch   uint64
}

// Registry is the reentrancy-guarded, address-keyed table of live
// allocations. The zero value is not usable; use New.
//
// A single mutex serializes every access to the map: Watch, Forget and
// every control operation block on Lock, so concurrent callers on
// different goroutines are correctly queued rather than dropped, per
// spec.md §5's "serializes insert/remove/query through the lock."
// Lock alone cannot express same-goroutine reentrancy, since Go's
// Mutex is not recursive and a nested Lock on the goroutine already
// holding it would deadlock instead of failing fast. The only place
// that can actually happen is Forget's wild-pointer log line: if
// writing it reaches back into a hooked allocator that itself calls
// Watch or Forget, the nested call runs synchronously on the same
// goroutine. inside marks that narrow window — mu is released before
// logging but inside stays true until the log call returns — so the
// nested call's Lock succeeds (mu is free) and it can then see inside
// already set and discard itself instead of corrupting the map or
// double-releasing mu.
type Registry struct {
	mu      sync.Mutex
	entries map[uintptr]*entry
	inside  bool

	nextID uint64
	epoch  uint64

	usage uint64
	peak  uint64

	doubleWatch uint64

	maxFrames          int
	skipFrames         int
	skipEndFrames      int
	reportWildPointers bool
	allocsOverhead     float64

	logger log.Logger
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:        make(map[uintptr]*entry),
		nextID:         1,
		maxFrames:      DefaultMaxFrames,
		allocsOverhead: DefaultAllocsOverhead,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Watch records addr as a live allocation of size bytes, capturing the
// calling stack. A second Watch of an address already live replaces
// the old record (no error) and increments Stats.DoubleWatch, so a
// host that cares about the allocator-bug signal can still see it via
// Stats without this call ever failing. Watching address zero is a
// no-op.
func (r *Registry) Watch(addr uintptr, size uint64) {
	if addr == 0 {
		return
	}

	stack := stackcapture.Capture(r.skipFrames+1, r.effectiveMaxFrames()).DropOuter(r.skipEndFrames)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inside {
		return
	}

	if old, ok := r.entries[addr]; ok {
		r.usage -= uint64(float64(old.size) * r.allocsOverhead)
		r.doubleWatch++
	}

	id := r.nextID
	r.nextID++

	r.entries[addr] = &entry{id: id, size: size, stack: stack}

	weighted := uint64(float64(size) * r.allocsOverhead)
	r.usage += weighted
	if r.usage > r.peak {
		r.peak = r.usage
	}
}

// Forget releases addr. Forgetting an address that was never watched,
// or was already forgotten, is a no-op; if Config.ReportWildPointers
// is set it additionally logs a warning with the current call stack.
func (r *Registry) Forget(addr uintptr) {
	r.mu.Lock()

	if r.inside {
		r.mu.Unlock()
		return
	}

	old, ok := r.entries[addr]
	if ok {
		weighted := uint64(float64(old.size) * r.allocsOverhead)
		if weighted > r.usage {
			r.usage = 0
		} else {
			r.usage -= weighted
		}
		delete(r.entries, addr)
	}

	if ok || !r.reportWildPointers {
		r.mu.Unlock()
		return
	}

	// inside stays set across the log call below with mu released: a
	// logger write that recurses into this registry's hooked allocator
	// runs Watch/Forget on this same goroutine while mu is free, and
	// must see inside=true and bail rather than deadlock trying to
	// re-lock a mutex this goroutine already holds further up the stack.
	r.inside = true
	r.mu.Unlock()

	stack := stackcapture.Capture(1, r.effectiveMaxFrames()).DropOuter(r.skipEndFrames)
	r.logger.Warn().
		Uint64("frames", uint64(stack.Len())).
		Interface("pcs", stack.PCs()).
		Msgf("forget of untracked address %#x", addr)

	r.mu.Lock()
	r.inside = false
	r.mu.Unlock()
}

// QuerySize returns the size Watch was last called with for addr, and
// whether addr is currently live. A zero-sized live allocation reports
// (0, true), distinguishing it from an absent address's (0, false).
func (r *Registry) QuerySize(addr uintptr) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[addr]
	if !ok {
		return 0, false
	}

	return e.size, true
}

// Restart marks every currently-live entry as pre-existing: Snapshot
// will no longer include it, as if the registry had just started
// fresh, without actually releasing any of the addresses it is
// tracking.
func (r *Registry) Restart() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.epoch = r.nextID
}

// Stats returns a point-in-time summary of the registry.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		Leaks:       uint64(len(r.entries)),
		Usage:       r.usage,
		Peak:        r.peak,
		DoubleWatch: r.doubleWatch,
	}
}

// Snapshot copies out every entry created since the last Restart, for
// the reporter to aggregate without holding the registry's lock for
// the whole of its own work.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.id < r.epoch {
			continue
		}
		entries = append(entries, Entry{ID: e.id, Size: e.size, Stack: e.stack})
	}

	return Snapshot{Entries: entries, Epoch: r.epoch}
}

// TotalAllocs returns the number of allocations ever Watch-ed,
// including ones since Forgotten, used as the denominator of the
// reporter's leak score.
func (r *Registry) TotalAllocs() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.nextID - 1
}

func (r *Registry) effectiveMaxFrames() int {
	if r.maxFrames <= 0 {
		return DefaultMaxFrames
	}

	return r.maxFrames
}
