package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/quantserver/cmd/quantserver/handlers"
)

// Prune returns the prune command.
func Prune(opts *handlers.Options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete backup snapshots outside the retention policy",
		Long: `Prune applies the retention policy to backup snapshots without touching
the instance. The newest backup is always kept.

Example:
  quantserver prune --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Prune(cmd.Context(), *opts, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only show which backups would be deleted")

	return cmd
}
