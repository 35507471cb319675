package cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	log "github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/maxgio92/tracey/pkg/cmd/options"
)

func TestNewRootCmdStructure(t *testing.T) {
	opts := options.NewCommonOptions(
		options.WithContext(context.Background()),
		options.WithLogger(log.New(log.ConsoleWriter{Out: os.Stderr})),
	)
	cmd := NewRootCmd(opts)

	require.Equal(t, "tracey", cmd.Use)
	require.True(t, cmd.DisableAutoGenTag)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"demo", "status", "stop", "wait"} {
		require.Contains(t, names, want)
	}
}

func TestNewRootCmdLogLevelFlag(t *testing.T) {
	opts := options.NewCommonOptions(
		options.WithContext(context.Background()),
		options.WithLogger(log.New(log.ConsoleWriter{Out: os.Stderr})),
	)
	cmd := NewRootCmd(opts)

	flag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, flag)
	require.Equal(t, "info", flag.DefValue)
}

func TestNewRootCmdHelp(t *testing.T) {
	opts := options.NewCommonOptions(
		options.WithContext(context.Background()),
		options.WithLogger(log.New(log.ConsoleWriter{Out: os.Stderr})),
	)
	cmd := NewRootCmd(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "tracey")
}
