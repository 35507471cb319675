package report

import (
	log "github.com/rs/zerolog"
)

// Option configures a Reporter at construction time.
type Option func(*Reporter)

// WithLogger sets the Reporter's logger, named with component=report.
// Build does not currently write to it.
func WithLogger(logger log.Logger) Option {
	return func(r *Reporter) {
		r.logger = logger.With().Str("component", "report").Logger()
	}
}
