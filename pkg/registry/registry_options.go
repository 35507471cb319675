package registry

import (
	log "github.com/rs/zerolog"
)

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLogger sets the logger the registry uses for wild-pointer
// warnings. The registry names its own child logger
// with component=registry.
func WithLogger(logger log.Logger) Option {
	return func(r *Registry) {
		r.logger = logger.With().Str("component", "registry").Logger()
	}
}

// WithMaxFrames bounds how many frames Watch captures per allocation.
func WithMaxFrames(max int) Option {
	return func(r *Registry) {
		r.maxFrames = max
	}
}

// WithSkipFrames sets how many innermost frames Watch elides before
// capturing, letting a thin allocator wrapper hide its own frame from
// every captured stack.
func WithSkipFrames(skip int) Option {
	return func(r *Registry) {
		r.skipFrames = skip
	}
}

// WithSkipEndFrames trims this many outermost (oldest-caller) frames
// off every captured stack, letting a host elide boilerplate like its
// own thread-start frame from every report.
func WithSkipEndFrames(skip int) Option {
	return func(r *Registry) {
		r.skipEndFrames = skip
	}
}

// WithReportWildPointers enables a warning log entry whenever Forget
// is called on an address the registry never watched.
func WithReportWildPointers(report bool) Option {
	return func(r *Registry) {
		r.reportWildPointers = report
	}
}

// WithAllocsOverhead sets the factor each allocation's size is
// multiplied by in Stats' Usage/Peak accounting, to approximate
// bookkeeping cost a real allocator would add on top of the requested
// size.
func WithAllocsOverhead(overhead float64) Option {
	return func(r *Registry) {
		r.allocsOverhead = overhead
	}
}
