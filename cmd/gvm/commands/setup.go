package commands

import (
	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// Setup returns the command for the full interactive provisioning flow.
//
// Optional flags:
//
//	--all:        run every module without the selector
//	--dry-run:    rehearse without changing the system
//	--force:      ignore completion markers
//	--plain:      line output instead of the interactive UI
//	--config, -c: path to a configuration file overlay
func Setup() *cobra.Command {
	var opts handlers.Options
	var all bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Select and run provisioning modules",
		Long: `Select and run provisioning modules.

In a terminal this opens the interactive selector: pick modules, confirm the
resolved execution order and watch progress live. The previous selection is
remembered and pre-checked on the next run.

Examples:
  # Interactive selection
  gvm setup

  # Everything, no questions asked
  gvm setup --all

  # Rehearse what a full run would do
  gvm setup --all --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Setup(cmd.Context(), opts, all)
		},
	}

	runFlags(cmd, &opts)
	cmd.Flags().BoolVar(&all, "all", false, "Run all modules without the selector")

	return cmd
}
