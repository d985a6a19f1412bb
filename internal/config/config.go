// Package config loads the YAML configuration of the unidir command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/on-the-ground/unidir_go/log"
	"github.com/on-the-ground/unidir_go/store"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log   LogConfig    `yaml:"log"`
	Store store.Config `yaml:"store"`
	View  ViewConfig   `yaml:"view"`
	Demo  DemoConfig   `yaml:"demo"`
}

type LogConfig struct {
	Level log.LogLevel `yaml:"level"`
	// Console switches from JSON to human readable output.
	Console bool `yaml:"console"`
}

type ViewConfig struct {
	// ChangeBuffer is the capacity of view store change channels.
	ChangeBuffer int `yaml:"change_buffer"`
}

// DemoConfig drives the demo subcommands.
type DemoConfig struct {
	Tick  time.Duration `yaml:"tick"`
	Count int           `yaml:"count"`
	Words []string      `yaml:"words"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:   log.LogInfo,
			Console: true,
		},
		Store: store.DefaultConfig(),
		View: ViewConfig{
			ChangeBuffer: 16,
		},
		Demo: DemoConfig{
			Tick:  100 * time.Millisecond,
			Count: 5,
			Words: []string{"the", "quick", "brown", "fox"},
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
// An empty path yields the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	if _, perr := zapcore.ParseLevel(string(c.Log.Level)); perr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", perr))
	}
	if c.Store.RegistryShards < 1 {
		err = multierr.Append(err, fmt.Errorf("store.registry_shards must be at least 1, got %d", c.Store.RegistryShards))
	}
	if c.View.ChangeBuffer < 1 {
		err = multierr.Append(err, fmt.Errorf("view.change_buffer must be at least 1, got %d", c.View.ChangeBuffer))
	}
	if c.Demo.Tick <= 0 {
		err = multierr.Append(err, fmt.Errorf("demo.tick must be positive, got %s", c.Demo.Tick))
	}
	if c.Demo.Count < 0 {
		err = multierr.Append(err, fmt.Errorf("demo.count must not be negative, got %d", c.Demo.Count))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
