package statusserver

import (
	log "github.com/rs/zerolog"

	"github.com/maxgio92/tracey/pkg/config"
)

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger sets the logger the server uses for connection handling.
func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With().Str("component", "statusserver").Logger()
	}
}

// WithReportPath overrides where "/report" writes the rendered HTML
// report before opening it.
func WithReportPath(path string) Option {
	return func(s *Server) {
		s.reportPath = path
	}
}

// WithConfig attaches the active Config so the status page can print
// it alongside the live stats.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.cfg = cfg
	}
}
