package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/quantserver/cmd/quantserver/handlers"
)

// Stop returns the stop command.
func Stop(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Snapshot the trading server, then destroy it",
		Long: `Stop takes a backup snapshot of the running instance, waits for it to
complete and only then destroys the instance. If the snapshot fails or
times out the instance is left running.

Afterwards old backups are pruned according to the retention policy
(VULTR_SNAPSHOT_RETAIN_DAYS, VULTR_SNAPSHOT_MAX_COUNT). Pruning failures
are reported as warnings.

Example:
  quantserver stop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Stop(cmd.Context(), *opts)
		},
	}
}
