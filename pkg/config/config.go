// Package config loads the leak detector's tunables through viper,
// bound to the CLI's cobra flags, mirroring the original tool's
// compile-time configuration macros as ordinary runtime settings.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/maxgio92/tracey/pkg/registry"
)

// Config holds every tunable of the leak detector core.
type Config struct {
	AllocsOverhead      float64 `mapstructure:"allocs-overhead"`
	StacktraceMaxFrames int     `mapstructure:"stacktrace-max-frames"`
	StacktraceSkipBegin int     `mapstructure:"stacktrace-skip-begin"`
	StacktraceSkipEnd   int     `mapstructure:"stacktrace-skip-end"`
	ReportWildPointers  bool    `mapstructure:"report-wild-pointers"`
	MemsetAllocations   bool    `mapstructure:"memset-allocations"`
	ReportOnExit        bool    `mapstructure:"report-on-exit"`
	Webserver           bool    `mapstructure:"webserver"`
	WebserverAddr       string  `mapstructure:"webserver-addr"`
}

// Defaults mirrors the original tool's compile-time defaults.
func Defaults() *Config {
	return &Config{
		AllocsOverhead:      registry.DefaultAllocsOverhead,
		StacktraceMaxFrames: registry.DefaultMaxFrames,
		StacktraceSkipBegin: 0,
		StacktraceSkipEnd:   0,
		ReportWildPointers:  false,
		MemsetAllocations:   true,
		ReportOnExit:        true,
		Webserver:           false,
		WebserverAddr:       ":9090",
	}
}

// Load reads Config from v, falling back to Defaults for anything v
// has no value bound for.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Defaults()

	bindDefaults(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if cfg.AllocsOverhead < 1.0 {
		return nil, errors.New("allocs-overhead must be >= 1.0")
	}

	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("allocs-overhead", cfg.AllocsOverhead)
	v.SetDefault("stacktrace-max-frames", cfg.StacktraceMaxFrames)
	v.SetDefault("stacktrace-skip-begin", cfg.StacktraceSkipBegin)
	v.SetDefault("stacktrace-skip-end", cfg.StacktraceSkipEnd)
	v.SetDefault("report-wild-pointers", cfg.ReportWildPointers)
	v.SetDefault("memset-allocations", cfg.MemsetAllocations)
	v.SetDefault("report-on-exit", cfg.ReportOnExit)
	v.SetDefault("webserver", cfg.Webserver)
	v.SetDefault("webserver-addr", cfg.WebserverAddr)
}

// RegistryOptions translates Config into registry.Options.
func (c *Config) RegistryOptions() []registry.Option {
	return []registry.Option{
		registry.WithAllocsOverhead(c.AllocsOverhead),
		registry.WithMaxFrames(c.StacktraceMaxFrames),
		registry.WithSkipFrames(c.StacktraceSkipBegin),
		registry.WithSkipEndFrames(c.StacktraceSkipEnd),
		registry.WithReportWildPointers(c.ReportWildPointers),
	}
}
