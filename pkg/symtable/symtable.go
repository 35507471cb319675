// Package symtable resolves captured program counters to human
// readable symbol names.
package symtable

import (
	"debug/elf"
	"runtime"

	"github.com/pkg/errors"

	"github.com/maxgio92/tracey/pkg/symcache"
)

var (
	ErrSymNotFound   = errors.New("symbol not found")
	ErrSymTableEmpty = errors.New("symtable is empty")
)

// UnresolvedSymbol is substituted for a program counter the resolver
// could not map to a function, mirroring a PC of zero padding a short
// callstack.
const UnresolvedSymbol = "????"

// Resolver resolves program counters captured from the running
// process's own stack. It is the default Symbolizer backend: the Go
// runtime's own line-table lookup, batched through runtime.
// CallersFrames and memoized in a symcache.SymCache so that a hot
// leak site is only ever unwound by name once.
type Resolver struct {
	cache *symcache.SymCache
}

// NewResolver creates a Resolver with an empty cache.
func NewResolver() *Resolver {
	return &Resolver{cache: symcache.NewSymCache()}
}

// Resolve maps each program counter in pcs to a symbol name, in the
// same order. A PC the runtime cannot resolve maps to UnresolvedSymbol
// rather than aborting the batch.
func (r *Resolver) Resolve(pcs []uintptr) []string {
	if len(pcs) == 0 {
		return nil
	}

	names := make([]string, len(pcs))
	missing := make([]uintptr, 0, len(pcs))
	missingIdx := make([]int, 0, len(pcs))

	for i, pc := range pcs {
		if name, err := r.cache.Get(uint64(pc)); err == nil {
			names[i] = name
			continue
		}
		missing = append(missing, pc)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return names
	}

	// Inlining means one input PC can expand into several consecutive
	// Frames, and a PC the runtime has no function for yields no Frame
	// at all, so frames.Next() calls don't line up 1:1 with missing's
	// indices. Every frame expanded from one input PC carries the same
	// Frame.PC, which the runtime reports as the input PC minus one for
	// a return address past its function's entry, so track position by
	// comparing Frame.PC against missing[j] and missing[j]-1 rather
	// than by loop counter.
	frames := runtime.CallersFrames(missing)
	j := 0
	for {
		frame, more := frames.Next()

		for j < len(missing)-1 && frame.PC != missing[j] && frame.PC != missing[j]-1 {
			j++
		}

		idx := missingIdx[j]
		if names[idx] == "" {
			name := frame.Function
			if name == "" {
				name = UnresolvedSymbol
			}
			names[idx] = name
			r.cache.Set(name, uint64(missing[j]))
		}

		if !more {
			break
		}
	}

	for _, idx := range missingIdx {
		if names[idx] == "" {
			names[idx] = UnresolvedSymbol
		}
	}

	return names
}

// ELFSymTab resolves addresses against the static symbol table of an
// on-disk ELF binary, for attaching the reporter to a separate
// process's address space rather than the instrumented process's own.
type ELFSymTab struct {
	Symtab []elf.Symbol
	cache  *symcache.SymCache
}

// NewELFSymTab creates an empty ELF symbol table.
func NewELFSymTab() *ELFSymTab {
	tab := new(ELFSymTab)
	tab.Symtab = make([]elf.Symbol, 0)
	tab.cache = symcache.NewSymCache()

	return tab
}

// Load reads the ELF file's symbol table with debug/elf. It is a
// no-op if a table has already been loaded.
func (e *ELFSymTab) Load(pathname string) error {
	if e.Symtab != nil && len(e.Symtab) > 0 {
		return nil
	}

	file, err := elf.Open(pathname)
	if err != nil {
		return errors.Wrap(err, "error opening ELF file")
	}
	defer file.Close()

	syms, err := file.Symbols()
	if err != nil {
		return errors.Wrap(err, "error reading ELF symtable section")
	}

	e.Symtab = syms

	return nil
}

// GetName returns the symbol name covering address ip.
func (e *ELFSymTab) GetName(ip uint64, cache bool) (string, error) {
	if !cache {
		for _, s := range e.Symtab {
			if ip >= s.Value && ip < (s.Value+s.Size) {
				return s.Name, nil
			}
		}
		return "", ErrSymNotFound
	}

	sym, err := e.cache.Get(ip)
	if err == nil {
		return sym, nil
	}

	if e.Symtab == nil || len(e.Symtab) == 0 {
		return "", ErrSymTableEmpty
	}

	for _, s := range e.Symtab {
		if ip >= s.Value && ip < (s.Value+s.Size) {
			sym = s.Name
		}
	}
	if sym == "" {
		return "", ErrSymNotFound
	}

	e.cache.Set(sym, ip)

	return sym, nil
}
