package statusserver

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maxgio92/tracey/pkg/config"
	"github.com/maxgio92/tracey/pkg/registry"
	"github.com/maxgio92/tracey/pkg/report"
)

type nopResolver struct{}

func (nopResolver) Resolve(pcs []uintptr) []string {
	out := make([]string, len(pcs))
	for i := range pcs {
		out[i] = "????"
	}
	return out
}

func TestServerServesStatusPage(t *testing.T) {
	reg := registry.New()
	reg.Watch(0x1, 64)

	reporter := report.New(reg, nopResolver{})
	s := New("127.0.0.1:0", reg, reporter)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.ln = ln

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.acceptConnections(ctx)

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	status, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, status, "200")
}

func TestRenderReportsStats(t *testing.T) {
	reg := registry.New()
	reg.Watch(0x1, 64)
	reporter := report.New(reg, nopResolver{})

	s := New("127.0.0.1:0", reg, reporter)
	body := s.render(context.Background(), "/")
	require.Contains(t, body, "leaks: 1")
	require.Contains(t, body, "usage: 64")
}

func TestRenderIncludesReportLink(t *testing.T) {
	reg := registry.New()
	reporter := report.New(reg, nopResolver{})

	s := New("127.0.0.1:0", reg, reporter)
	body := s.render(context.Background(), "/")
	require.Contains(t, body, `<a href="/report">`)
}

func TestRenderIncludesSettingsDump(t *testing.T) {
	reg := registry.New()
	reporter := report.New(reg, nopResolver{})

	s := New("127.0.0.1:0", reg, reporter, WithConfig(config.Defaults()))
	body := s.render(context.Background(), "/")
	require.Contains(t, body, "settings:")
	require.Contains(t, body, "webserver-addr")
}
