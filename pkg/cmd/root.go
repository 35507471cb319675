package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/tracey/internal/settings"
	"github.com/maxgio92/tracey/pkg/cmd/demo"
	"github.com/maxgio92/tracey/pkg/cmd/options"
	"github.com/maxgio92/tracey/pkg/cmd/status"
	"github.com/maxgio92/tracey/pkg/cmd/stop"
	"github.com/maxgio92/tracey/pkg/cmd/wait"
)

func NewRootCmd(opts *options.CommonOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:               settings.CmdName,
		Short:             "tracey is a callstack-based memory leak detector",
		Long:              `tracey tracks allocations by call site and reports the ones that were never released.`,
		DisableAutoGenTag: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	cmd.AddCommand(demo.NewCommand(opts))
	cmd.AddCommand(status.NewCommand(opts))
	cmd.AddCommand(stop.NewCommand(opts))
	cmd.AddCommand(wait.NewCommand(opts))

	return cmd
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	logger := log.New(log.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	go func() {
		<-ctx.Done()
		logger.Info().Msg("terminating...")
		cancel()
	}()

	opts := options.NewCommonOptions(
		options.WithContext(ctx),
		options.WithLogger(logger),
	)

	if err := NewRootCmd(opts).Execute(); err != nil {
		os.Exit(1)
	}
}
