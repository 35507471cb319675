package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxgio92/tracey/pkg/registry"
)

func stubResolver(names map[uintptr]string) Resolver {
	return resolverFunc(func(pcs []uintptr) []string {
		out := make([]string, len(pcs))
		for i, pc := range pcs {
			if n, ok := names[pc]; ok {
				out[i] = n
			} else {
				out[i] = "????"
			}
		}
		return out
	})
}

func TestBuildEmptyRegistry(t *testing.T) {
	reg := registry.New()
	r := New(reg, stubResolver(nil))

	rep, err := r.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(0), rep.Leaks)
	require.Equal(t, "perfect", rep.Score)
}

func TestBuildCountsLeaksAndBytes(t *testing.T) {
	reg := registry.New()
	reg.Watch(0x1, 100)
	reg.Watch(0x2, 50)

	r := New(reg, stubResolver(nil))
	rep, err := r.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), rep.Leaks)
	require.Equal(t, uint64(150), rep.WastedBytes)
	require.Equal(t, uint64(2), rep.TotalAllocs)
}

func TestBuildRespectsCanceledContext(t *testing.T) {
	reg := registry.New()
	r := New(reg, stubResolver(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Build(ctx)
	require.Error(t, err)
}

func TestScoreThresholds(t *testing.T) {
	cases := []struct {
		leaks, total uint64
		want         string
	}{
		{0, 0, "perfect"},
		{0, 100, "perfect"},
		{1, 100, "excellent"},
		{2, 100, "good"},
		{3, 100, "poor"},
		{8, 100, "mediocre"},
		{20, 100, "lame"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, score(c.leaks, c.total))
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	reg := registry.New()
	reg.Watch(0x1, 10)

	r := New(reg, stubResolver(nil))
	rep, err := r.Build(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteJSON(&buf))
	require.Contains(t, buf.String(), `"leaks":1`)
}

func TestWriteHTMLWrapsInXmp(t *testing.T) {
	reg := registry.New()
	reg.Watch(0x1, 10)

	r := New(reg, stubResolver(nil))
	rep, err := r.Build(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteHTML(&buf))
	require.Contains(t, buf.String(), "<xmp>")
	require.Contains(t, buf.String(), ToolName)
}
