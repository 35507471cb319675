package demo

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/tracey/internal/output"
	"github.com/maxgio92/tracey/internal/settings"
	"github.com/maxgio92/tracey/pkg/cmd/common"
	"github.com/maxgio92/tracey/pkg/cmd/options"
	"github.com/maxgio92/tracey/pkg/config"
	"github.com/maxgio92/tracey/pkg/hooks"
	"github.com/maxgio92/tracey/pkg/registry"
	"github.com/maxgio92/tracey/pkg/report"
	"github.com/maxgio92/tracey/pkg/statusserver"
	"github.com/maxgio92/tracey/pkg/symtable"
)

const CmdName = "demo"

func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := NewOptions()
	o.CommonOptions = opts

	cmd := &cobra.Command{
		Use:   CmdName,
		Short: "Run a synthetic allocation workload under the leak detector",
		Long: `demo drives a toy allocation workload through the leak detector core
so the registry, reporter and status endpoint have something real to show.`,
		DisableAutoGenTag: true,
		RunE:              o.Run,
	}

	cmd.Flags().BoolVarP(&o.detach, "detach", "d", false, fmt.Sprintf("Run %s as a daemon", settings.CmdName))
	cmd.Flags().BoolVar(&o.webserver, "webserver", false, "Expose the live status endpoint")
	cmd.Flags().StringVar(&o.webserverAddr, "webserver-addr", ":9090", "Address for the status endpoint")
	cmd.Flags().BoolVar(&o.reportOnExit, "report-on-exit", true, "Write a report when the workload stops")
	cmd.Flags().StringVar(&o.reportPath, "report-path", "tracey-report.html", "Path to write the final report to")
	cmd.Flags().IntVar(&o.leakRate, "leak-rate", 5, "Percentage of allocations that are never freed")
	cmd.Flags().StringVar(&o.configPath, "config", "", "Path to a configuration file")

	return cmd
}

func (o *Options) Run(cmd *cobra.Command, _ []string) error {
	if o.detach {
		return o.daemonize()
	}

	os.WriteFile(settings.PidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
	defer os.Remove(settings.PidFile)

	logLevel, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	o.Logger = o.Logger.Level(logLevel).With().Str("component", "demo").Logger()

	if o.configPath != "" {
		o.viper.SetConfigFile(o.configPath)
		if err := o.viper.ReadInConfig(); err != nil {
			return errors.Wrap(err, "failed to read configuration file")
		}
	}

	if err := o.viper.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "failed to bind flags")
	}

	cfg, err := config.Load(o.viper)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	reg := registry.New(append(cfg.RegistryOptions(), registry.WithLogger(o.Logger))...)
	resolver := symtable.NewResolver()
	reporter := report.New(reg, resolver, report.WithLogger(o.Logger))
	allocator := hooks.NewArenaAllocator(cfg.MemsetAllocations)

	if cfg.Webserver || o.webserver {
		srv := statusserver.New(cfg.WebserverAddr, reg, reporter,
			statusserver.WithLogger(o.Logger),
			statusserver.WithConfig(cfg),
		)
		if err := srv.ListenAndServe(o.Ctx); err != nil {
			return errors.Wrap(err, "failed to start status endpoint")
		}
		defer srv.Shutdown()
	}

	if cfg.ReportOnExit {
		defer o.writeFinalReport(reporter)
	}

	go output.StatusBar(o.Ctx, time.Second, func() {
		stats := reg.Stats()
		output.PrintRight(fmt.Sprintf("leaks: %d usage: %d peak: %d", stats.Leaks, stats.Usage, stats.Peak))
	})

	o.runWorkload(o.Ctx, reg, allocator)

	return nil
}

// runWorkload allocates and mostly-frees memory through allocator,
// Watching/Forgetting each block with the registry, until ctx is
// canceled. A fraction of blocks are deliberately never freed so the
// demo has leaks worth reporting.
func (o *Options) runWorkload(ctx context.Context, reg *registry.Registry, allocator *hooks.ArenaAllocator) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	var live []uintptr

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			size := uint64(64 + rand.Intn(4096))
			ptr, err := allocator.Alloc(size)
			if err != nil {
				o.Logger.Warn().Err(err).Msg("allocation failed")
				continue
			}
			reg.Watch(ptr, size)

			if rand.Intn(100) < o.leakRate {
				// Deliberately leaked: never freed, never forgotten.
				continue
			}

			live = append(live, ptr)
			if len(live) > 8 {
				victim := live[0]
				live = live[1:]
				allocator.Free(victim)
				reg.Forget(victim)
			}
		}
	}
}

func (o *Options) writeFinalReport(reporter *report.Reporter) {
	rep, err := reporter.Build(context.Background())
	if err != nil {
		o.Logger.Warn().Err(err).Msg("failed to build final report")
		return
	}

	f, err := os.Create(o.reportPath)
	if err != nil {
		o.Logger.Warn().Err(err).Msg("failed to create report file")
		return
	}
	defer f.Close()

	if err := rep.WriteHTML(f); err != nil {
		o.Logger.Warn().Err(err).Msg("failed to write report")
		return
	}

	o.Logger.Info().Str("path", o.reportPath).Msg("report written")
}

func (o *Options) daemonize() error {
	if common.IsDaemonRunning() {
		fmt.Println("daemon already running")
		return nil
	}

	args := []string{CmdName}
	args = append(args, fmt.Sprintf("--webserver=%s", strconv.FormatBool(o.webserver)))
	args = append(args, fmt.Sprintf("--webserver-addr=%s", o.webserverAddr))
	args = append(args, fmt.Sprintf("--report-on-exit=%s", strconv.FormatBool(o.reportOnExit)))
	args = append(args, fmt.Sprintf("--report-path=%s", o.reportPath))
	args = append(args, fmt.Sprintf("--leak-rate=%d", o.leakRate))

	cmd := exec.Command(os.Args[0], args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if settings.LogFile != "" {
		f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			o.Logger.Error().Err(err).Msg("failed to open log file")
			return err
		}
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		o.Logger.Error().Err(err).Msgf("failed to start %s", settings.CmdName)
		return err
	}

	if err := os.WriteFile(settings.PidFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0644); err != nil {
		o.Logger.Error().Err(err).Msg("failed to write PID file")
		return err
	}

	return nil
}
