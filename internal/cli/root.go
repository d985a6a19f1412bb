package cli

import (
	"fmt"

	"github.com/on-the-ground/unidir_go/internal/config"
	"github.com/on-the-ground/unidir_go/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags and what PersistentPreRunE derives from them.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	Config config.Config
	Logger *zap.Logger
}

// NewRootCommand creates the root command for the unidir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "unidir",
		Short: "unidir - unidirectional state runtime demos",
		Long: `Runs small stores end to end: a reducer, the effects it starts and a
view store printing every change that reaches it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				log.Sync(opts.Logger)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overrides the config file (debug|info|warn|error)")

	cmd.AddCommand(NewCountdownCommand(opts))
	cmd.AddCommand(NewDictationCommand(opts))

	return cmd
}

func (o *RootOptions) load() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.Log.Level = log.LogLevel(o.LogLevel)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	var logger *zap.Logger
	if cfg.Log.Console {
		logger, err = log.NewConsole(cfg.Log.Level)
	} else {
		logger, err = log.New(cfg.Log.Level)
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	o.Config = cfg
	o.Logger = logger
	return nil
}
