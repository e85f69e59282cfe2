package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/quantserver/cmd/quantserver/handlers"
)

// Start returns the start command.
func Start(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Boot the trading server unless it is already running",
		Long: `Start boots the trading server if no live instance carries the label.

The instance is created from the newest complete backup snapshot, or from
the base snapshot (VULTR_SNAPSHOT_ID) when no backup exists. The first-boot
script joins the tailnet, pulls the code and starts the trading service.
The command returns once the instance is active and running.

Example:
  quantserver start`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Start(cmd.Context(), *opts)
		},
	}
}
