// Package statusserver exposes the live registry state over a plain
// TCP listener: a GET to "/" returns a status page, a GET to
// "/report" additionally builds and opens a full leak report.
package statusserver

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"

	"github.com/maxgio92/tracey/pkg/config"
	"github.com/maxgio92/tracey/pkg/registry"
	"github.com/maxgio92/tracey/pkg/report"
)

// Server is a minimal HTTP/1.1 status endpoint over the registry.
type Server struct {
	ln   net.Listener
	addr string

	reg      *registry.Registry
	reporter *report.Reporter
	cfg      *config.Config

	reportPath string

	logger log.Logger
}

// New creates a Server listening on addr (e.g. ":9090") once
// ListenAndServe is called.
func New(addr string, reg *registry.Registry, reporter *report.Reporter, opts ...Option) *Server {
	s := &Server{
		addr:       addr,
		reg:        reg,
		reporter:   reporter,
		reportPath: "tracey-report.html",
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ListenAndServe starts the TCP listener and begins accepting
// connections on a background goroutine. It returns once the listener
// is up; ctx governs the accept loop's lifetime.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrap(err, "failed to listen on TCP")
	}
	s.ln = ln

	go s.acceptConnections(ctx)

	return nil
}

// Shutdown closes the listener, unblocking the accept loop.
func (s *Server) Shutdown() error {
	if s.ln == nil {
		return nil
	}

	return s.ln.Close()
}

func (s *Server) acceptConnections(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("stopping accepting connections")
			return
		default:
			conn, err := s.ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					s.logger.Debug().Msg("ignoring accepting connection as it is closed")
					return
				}
				s.logger.Warn().Err(err).Msg("accept error")
				continue
			}

			go s.processConnection(ctx, conn)
		}
	}
}

func (s *Server) processConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		s.logger.Debug().Err(err).Msg("failed to read request line")
		return
	}

	fields := strings.Fields(line)
	path := "/"
	if len(fields) >= 2 {
		path = fields[1]
	}

	body := s.render(ctx, path)

	resp := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		len(body), body)

	if err := s.safeWrite(conn, []byte(resp)); err != nil {
		s.logger.Debug().Err(err).Msg("failed to write response")
	}
}

func (s *Server) render(ctx context.Context, path string) string {
	stats := s.reg.Stats()

	if path == "/report" {
		rep, err := s.reporter.Build(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to build report")
		} else if f, err := os.Create(s.reportPath); err == nil {
			rep.WriteHTML(f)
			f.Close()
			if err := report.View(s.reportPath); err != nil {
				s.logger.Debug().Err(err).Msg("failed to view report")
			}
		}
	}

	return fmt.Sprintf(
		"<html><body><xmp>\nleaks: %d\nusage: %d\npeak: %d\ndouble-watch: %d\n\n%s\n</xmp>\n<a href=\"/report\">view report</a>\n</body></html>",
		stats.Leaks, stats.Usage, stats.Peak, stats.DoubleWatch, s.settingsDump(),
	)
}

func (s *Server) settingsDump() string {
	if s.cfg == nil {
		return "settings: n/a"
	}

	return fmt.Sprintf(
		"settings:\n  allocs-overhead: %v\n  stacktrace-max-frames: %d\n  stacktrace-skip-begin: %d\n  stacktrace-skip-end: %d\n  report-wild-pointers: %v\n  memset-allocations: %v\n  report-on-exit: %v\n  webserver-addr: %s",
		s.cfg.AllocsOverhead, s.cfg.StacktraceMaxFrames, s.cfg.StacktraceSkipBegin, s.cfg.StacktraceSkipEnd,
		s.cfg.ReportWildPointers, s.cfg.MemsetAllocations, s.cfg.ReportOnExit, s.cfg.WebserverAddr,
	)
}

func (s *Server) safeWrite(conn net.Conn, data []byte) error {
	_, err := conn.Write(data)
	if err != nil {
		switch {
		case errors.Is(err, syscall.EPIPE):
			return errors.Wrap(err, "peer closed the connection")
		case errors.Is(err, syscall.ECONNRESET):
			return errors.Wrap(err, "peer reset the connection")
		default:
			return errors.Wrap(err, "failed to write")
		}
	}

	return nil
}
