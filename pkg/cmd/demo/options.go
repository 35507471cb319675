package demo

import (
	"context"

	log "github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/maxgio92/tracey/pkg/cmd/options"
)

type Options struct {
	detach        bool
	webserver     bool
	webserverAddr string
	reportOnExit  bool
	reportPath    string
	leakRate      int
	configPath    string

	viper *viper.Viper

	*options.CommonOptions
}

type Option func(o *Options)

func NewOptions(opts ...Option) *Options {
	o := new(Options)
	o.CommonOptions = new(options.CommonOptions)
	o.viper = viper.New()

	for _, f := range opts {
		f(o)
	}

	return o
}

func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Ctx = ctx
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithLogLevel(level string) Option {
	return func(o *Options) {
		o.LogLevel = level
	}
}
