package main

import (
	"github.com/spf13/cobra"

	"github.com/c360/streambuf/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFiles []string
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Exercise generic buffer pipelines under load",
		Long: `streambuf - build a buffer pipeline from configuration and drive it.

A pipeline is one storage strategy (ring, bounded, overwriting, heap)
optionally wrapped in one concurrency decorator (blocking, bounded,
timeout). Configuration is layered: built-in defaults, then each --config
file in order, then STREAMBUF_* environment variables.

Examples:
  # Run the default pipeline
  streambuf bench

  # Layer a file over the defaults and raise the log level
  streambuf bench --config bench.yaml --log-level debug

  # Check a configuration and print the merged result
  streambuf validate --config bench.yaml --print`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringSliceVarP(&opts.configFiles, "config", "c", nil, "configuration file layer (repeatable, later wins)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "override log format (text, json)")

	cmd.AddCommand(newBenchCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load resolves the layered configuration and applies flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(false)
	for _, path := range o.configFiles {
		loader.AddLayer(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
