package registry

import "github.com/pkg/errors"

var (
	// ErrWildFree names a Forget of an address the registry never
	// watched. Forget itself returns nothing and does not use it: a
	// wild free is at most logged, see Config.ReportWildPointers.
	ErrWildFree = errors.New("registry: forget of an untracked address")

	// ErrFatal names an unrecoverable condition a host program should
	// treat as fatal. No function in this package returns it.
	ErrFatal = errors.New("registry: fatal condition")
)
