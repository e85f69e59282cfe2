package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/quantserver/cmd/quantserver/handlers"
	"github.com/imamik/quantserver/internal/ui"
)

// Status returns the status command.
func Status(opts *handlers.Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the instance, its backups and the retention plan",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return ui.ValidateFormat(output)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), *opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ui.FormatText, "Output format: text or yaml")

	return cmd
}
