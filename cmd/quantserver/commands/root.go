// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/quantserver/cmd/quantserver/handlers"
)

// Root returns the root command for the quantserver CLI.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:   "quantserver",
		Short: "Start and stop the quant trading server from backup snapshots",
		// main reports errors.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to an optional YAML configuration file")
	cmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase log verbosity (-v shows API attempts)")

	cmd.AddCommand(Start(opts))
	cmd.AddCommand(Stop(opts))
	cmd.AddCommand(Status(opts))
	cmd.AddCommand(Prune(opts))
	cmd.AddCommand(Version())

	return cmd
}
