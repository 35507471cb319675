package wait

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/tracey/internal/settings"
	"github.com/maxgio92/tracey/pkg/cmd/options"
)

const CmdName = "wait"

func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := &Options{CommonOptions: opts}

	cmd := &cobra.Command{
		Use:               CmdName,
		Short:             fmt.Sprintf("Wait for the %s status endpoint to be ready", settings.CmdName),
		DisableAutoGenTag: true,
		RunE:              o.Run,
	}

	cmd.Flags().StringVarP(&o.addr, "addr", "a", ":9090", fmt.Sprintf("Address of the %s status endpoint", settings.CmdName))
	cmd.Flags().DurationVar(&o.timeout, "timeout", time.Second*30, "Timeout")

	return cmd
}

func (o *Options) Run(_ *cobra.Command, _ []string) error {
	logLevel, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		o.Logger.Fatal().Err(err).Msg("invalid log level")
	}
	o.Logger = o.Logger.Level(logLevel).With().Str("component", "wait").Logger()

	start := time.Now()
	retryInterval := 250 * time.Millisecond
	o.Logger.Info().Str("addr", o.addr).Msg("waiting for the status endpoint to be ready")

	for {
		if time.Since(start) >= o.timeout {
			return errors.New("timeout waiting for the status endpoint")
		}

		conn, err := net.DialTimeout("tcp", o.addr, retryInterval)
		if err != nil {
			time.Sleep(retryInterval)
			continue
		}
		conn.Close()

		o.Logger.Info().Msg("status endpoint is ready")
		return nil
	}
}
