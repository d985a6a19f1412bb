package store

import (
	"github.com/on-the-ground/unidir_go/effects/registry"
	"go.uber.org/zap"
)

// Config holds the tunables of a store.
type Config struct {
	RegistryShards int `yaml:"registry_shards"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		RegistryShards: 1,
	}
}

// Option configures a store at construction.
type Option func(*options)

type options struct {
	config   Config
	logger   *zap.Logger
	registry *registry.Registry
	snapshot any
}

func newOptions(opts []Option) options {
	o := options{
		config: DefaultConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithConfig replaces the default configuration.
func WithConfig(config Config) Option {
	return func(o *options) {
		o.config = config
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry hands the store an existing registry instead of creating one.
// The store takes ownership: closing it cancels everything in reg.
func WithRegistry(reg *registry.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithSnapshot sets how state is copied before it leaves the store. Use it
// when S holds maps, slices or pointers that observers must not share.
//
// fn must be a func(S) S for the store's S; New panics otherwise.
func WithSnapshot[S any](fn func(S) S) Option {
	return func(o *options) {
		o.snapshot = fn
	}
}
