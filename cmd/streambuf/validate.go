package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var printConfig bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the layered configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if printConfig {
				fmt.Fprint(out, cfg.String())
				return nil
			}
			fmt.Fprintln(out, "Configuration is valid")
			return nil
		},
	}

	cmd.Flags().BoolVar(&printConfig, "print", false, "print the merged configuration as YAML")
	return cmd
}
